// Package reporting provides console activity reporting functionality.
// It queries the ClickHouse console_events table to summarize how operators
// use the console: views opened, mutations issued, failures and demo fallbacks.
package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// DailyActivity represents console activity for a single day.
type DailyActivity struct {
	Date      time.Time `json:"date"`      // Day the events were recorded on
	Views     int64     `json:"views"`     // List views rendered
	Modals    int64     `json:"modals"`    // Detail modals opened
	Mutations int64     `json:"mutations"` // Mutations issued (approve/reject/settle/read)
	Exports   int64     `json:"exports"`   // CSV exports
	Failures  int64     `json:"failures"`  // Requests answered with a 4xx/5xx status
	Fallbacks int64     `json:"fallbacks"` // Views served from demo data
	AvgMS     float64   `json:"avg_ms"`    // Mean request duration in milliseconds
}

// EntityActivity breaks activity down per entity kind.
type EntityActivity struct {
	Entity    string  `json:"entity"`     // campaign, partner, settlement, ...
	Requests  int64   `json:"requests"`   // All recorded events for the entity
	Mutations int64   `json:"mutations"`  // Mutations among them
	ErrorRate float64 `json:"error_rate"` // Share of failed requests as percentage (0-100)
}

// ActivitySummary is the console activity report over a period.
type ActivitySummary struct {
	Days     int              `json:"days"`     // Length of the reporting period
	Total    DailyActivity    `json:"total"`    // Aggregated over the whole period
	Daily    []DailyActivity  `json:"daily"`    // Day-by-day breakdown, newest first
	Entities []EntityActivity `json:"entities"` // Busiest entities first
	Devices  map[string]int64 `json:"devices"`  // Events per device type
}

// GenerateActivityReport queries ClickHouse for console activity over the
// last days days and assembles daily, per-entity and per-device breakdowns.
func GenerateActivityReport(ctx context.Context, db *sql.DB, days int) (*ActivitySummary, error) {
	if days <= 0 {
		days = 7
	}
	summary := &ActivitySummary{Days: days}

	daily, err := getDailyActivity(ctx, db, days)
	if err != nil {
		return nil, fmt.Errorf("get daily activity: %w", err)
	}
	summary.Daily = daily
	summary.Total = totalActivity(daily)

	entities, err := getEntityActivity(ctx, db, days)
	if err != nil {
		return nil, fmt.Errorf("get entity activity: %w", err)
	}
	summary.Entities = entities

	devices, err := getDeviceBreakdown(ctx, db, days)
	if err != nil {
		return nil, fmt.Errorf("get device breakdown: %w", err)
	}
	summary.Devices = devices

	return summary, nil
}

// totalActivity sums daily rows; the average duration is weighted by the
// number of events per day.
func totalActivity(daily []DailyActivity) DailyActivity {
	total := DailyActivity{Date: time.Now()}
	var weighted float64
	var events int64
	for _, d := range daily {
		total.Views += d.Views
		total.Modals += d.Modals
		total.Mutations += d.Mutations
		total.Exports += d.Exports
		total.Failures += d.Failures
		total.Fallbacks += d.Fallbacks
		n := d.Views + d.Modals + d.Mutations + d.Exports
		weighted += d.AvgMS * float64(n)
		events += n
	}
	if events > 0 {
		total.AvgMS = weighted / float64(events)
	}
	return total
}

func getDailyActivity(ctx context.Context, db *sql.DB, days int) ([]DailyActivity, error) {
	query := `
		SELECT
			toDate(timestamp) as date,
			countIf(event_type = 'view') as views,
			countIf(event_type = 'modal') as modals,
			countIf(event_type = 'mutation') as mutations,
			countIf(event_type = 'export') as exports,
			countIf(status >= 400) as failures,
			countIf(fallback = 1) as fallbacks,
			round(avg(duration_ms), 2) as avg_ms
		FROM console_events
		WHERE timestamp >= now() - INTERVAL ? DAY
		GROUP BY date
		ORDER BY date DESC`

	rows, err := db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("query daily activity: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []DailyActivity
	for rows.Next() {
		var d DailyActivity
		if err := rows.Scan(&d.Date, &d.Views, &d.Modals, &d.Mutations, &d.Exports, &d.Failures, &d.Fallbacks, &d.AvgMS); err != nil {
			return nil, fmt.Errorf("scan daily activity: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func getEntityActivity(ctx context.Context, db *sql.DB, days int) ([]EntityActivity, error) {
	query := `
		SELECT
			entity,
			count() as requests,
			countIf(event_type = 'mutation') as mutations,
			round(countIf(status >= 400) / count() * 100, 2) as error_rate
		FROM console_events
		WHERE timestamp >= now() - INTERVAL ? DAY
		GROUP BY entity
		ORDER BY requests DESC`

	rows, err := db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("query entity activity: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []EntityActivity
	for rows.Next() {
		var e EntityActivity
		if err := rows.Scan(&e.Entity, &e.Requests, &e.Mutations, &e.ErrorRate); err != nil {
			return nil, fmt.Errorf("scan entity activity: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Requests > out[j].Requests })
	return out, nil
}

func getDeviceBreakdown(ctx context.Context, db *sql.DB, days int) (map[string]int64, error) {
	query := `
		SELECT ifNull(device_type, 'unknown') as device, count() as events
		FROM console_events
		WHERE timestamp >= now() - INTERVAL ? DAY
		GROUP BY device`

	rows, err := db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("query device breakdown: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(map[string]int64)
	for rows.Next() {
		var device string
		var n int64
		if err := rows.Scan(&device, &n); err != nil {
			return nil, fmt.Errorf("scan device breakdown: %w", err)
		}
		out[device] = n
	}
	return out, rows.Err()
}
