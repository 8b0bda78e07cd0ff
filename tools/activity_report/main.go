// Activity Report Tool summarizes how operators used the admin console.
//
// It reads the ClickHouse console_events table directly and prints daily
// activity, the busiest entities and the device mix.
//
// Usage:
//
//	go run ./tools/activity_report -days=30
//
// Configuration:
//
//	-days: Optional. Number of days to include in the report (default: 7)
//	-clickhouse-dsn: Optional. ClickHouse connection string (default: tcp://localhost:9000)
//	-json: Optional. Print the raw summary as JSON instead of tables
//
// Environment Variables:
//
//	CLICKHOUSE_DSN: ClickHouse connection string (overridden by -clickhouse-dsn flag)
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/patrickwarner/troyconsole/internal/reporting"
)

func main() {
	var (
		days   = flag.Int("days", 7, "Number of days to include in report")
		dsn    = flag.String("clickhouse-dsn", getEnv("CLICKHOUSE_DSN", "tcp://localhost:9000"), "ClickHouse DSN")
		asJSON = flag.Bool("json", false, "Print the summary as JSON")
	)
	flag.Parse()

	if *days < 1 || *days > 365 {
		fmt.Fprintf(os.Stderr, "Error: days must be between 1 and 365\n")
		os.Exit(1)
	}

	db, err := sql.Open("clickhouse", *dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to ClickHouse: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging ClickHouse: %v\n", err)
		os.Exit(1)
	}

	summary, err := reporting.GenerateActivityReport(ctx, db, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printActivityReport(os.Stdout, summary, time.Now())
}

const rule = "───────────────────────────────────────────────────────────────────────────"

// printActivityReport writes the summary as plain-text tables.
func printActivityReport(w io.Writer, summary *reporting.ActivitySummary, now time.Time) {
	fmt.Fprintf(w, "CONSOLE ACTIVITY REPORT\n%s\n", rule)
	fmt.Fprintf(w, "Report Period: %d days (ending %s)\n", summary.Days, now.Format("2006-01-02"))
	fmt.Fprintf(w, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	total := summary.Total
	fmt.Fprintf(w, "OVERALL\n%s\n", rule)
	fmt.Fprintf(w, "Views:      %s\n", formatNumber(total.Views))
	fmt.Fprintf(w, "Modals:     %s\n", formatNumber(total.Modals))
	fmt.Fprintf(w, "Mutations:  %s\n", formatNumber(total.Mutations))
	fmt.Fprintf(w, "Exports:    %s\n", formatNumber(total.Exports))
	fmt.Fprintf(w, "Failures:   %s\n", formatNumber(total.Failures))
	fmt.Fprintf(w, "Fallbacks:  %s\n", formatNumber(total.Fallbacks))
	fmt.Fprintf(w, "Avg time:   %.1f ms\n\n", total.AvgMS)

	if len(summary.Daily) > 0 {
		fmt.Fprintf(w, "DAILY BREAKDOWN\n%s\n", rule)
		fmt.Fprintf(w, "Date        |  Views | Modals | Mutations | Exports | Failures | Fallbacks\n")
		for _, d := range summary.Daily {
			fmt.Fprintf(w, "%-10s  | %6s | %6s | %9s | %7s | %8s | %9s\n",
				d.Date.Format("2006-01-02"),
				formatNumber(d.Views), formatNumber(d.Modals), formatNumber(d.Mutations),
				formatNumber(d.Exports), formatNumber(d.Failures), formatNumber(d.Fallbacks))
		}
		fmt.Fprintln(w)
	}

	if len(summary.Entities) > 0 {
		fmt.Fprintf(w, "ENTITIES\n%s\n", rule)
		fmt.Fprintf(w, "Entity          | Requests | Mutations | Error rate\n")
		for _, e := range summary.Entities {
			fmt.Fprintf(w, "%-15s | %8s | %9s | %9.2f%%\n", e.Entity, formatNumber(e.Requests), formatNumber(e.Mutations), e.ErrorRate)
		}
		fmt.Fprintln(w)
	}

	if len(summary.Devices) > 0 {
		fmt.Fprintf(w, "DEVICES\n%s\n", rule)
		devices := make([]string, 0, len(summary.Devices))
		for d := range summary.Devices {
			devices = append(devices, d)
		}
		sort.Strings(devices)
		for _, d := range devices {
			fmt.Fprintf(w, "%-10s %s\n", d, formatNumber(summary.Devices[d]))
		}
		fmt.Fprintln(w)
	}

	if total.Fallbacks > 0 {
		fmt.Fprintf(w, "NOTE: %s views were served from demo data; check backend availability\n", formatNumber(total.Fallbacks))
	}
}

// formatNumber formats large integers with comma separators.
// Example: 1234567 becomes "1,234,567"
func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}
	result := ""
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(digit)
	}
	return result
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
