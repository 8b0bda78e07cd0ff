// Package progress derives the campaign progress view: filtering, progress
// buckets, aggregate stats and campaign codes.
package progress

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/patrickwarner/troyconsole/internal/listing"
	"github.com/patrickwarner/troyconsole/internal/models"
)

// Filter selects progress rows by campaign and recency.
type Filter struct {
	// Campaign is a campaign id, or "all".
	Campaign string
	// Range is one of "7d", "30d", "90d" or "all".
	Range string
}

var rangeDays = map[string]int{"7d": 7, "30d": 30, "90d": 90}

// FilterProgressData applies f. With campaign and range both "all" (or empty)
// the input is returned unchanged. A range keeps rows whose start date lies
// within that many days before now; rows without a parseable start date are
// dropped when a range is set.
func FilterProgressData(data []models.ProgressRecord, f Filter, now time.Time) []models.ProgressRecord {
	campaignAll := f.Campaign == "" || strings.EqualFold(f.Campaign, "all")
	days, hasRange := rangeDays[strings.ToLower(f.Range)]
	if campaignAll && !hasRange {
		return data
	}

	var since time.Time
	if hasRange {
		since = now.AddDate(0, 0, -days)
	}
	out := make([]models.ProgressRecord, 0, len(data))
	for _, p := range data {
		if !campaignAll && p.CampaignRef().String() != f.Campaign && p.ID.String() != f.Campaign {
			continue
		}
		if hasRange {
			start, err := models.ParseDate(p.StartDate, now.Location())
			if err != nil || start.Before(since) || start.After(now) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Progress buckets.
const (
	ClassLow    = "low"
	ClassMedium = "medium"
	ClassHigh   = "high"
)

// ProgressClass buckets a percentage: low below 25, medium from 25 up to but
// excluding 75, high from 75.
func ProgressClass(p float64) string {
	switch {
	case p < 25:
		return ClassLow
	case p < 75:
		return ClassMedium
	default:
		return ClassHigh
	}
}

// Stats is the aggregate shown above the progress table.
type Stats struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	// Average is the rounded mean progress percentage.
	Average int `json:"average"`
}

// CalculateProgressStats counts active and completed rows and averages their
// progress. Empty input yields zeros.
func CalculateProgressStats(data []models.ProgressRecord) Stats {
	var s Stats
	if len(data) == 0 {
		return s
	}
	var sum float64
	for _, p := range data {
		switch p.Status {
		case models.CampaignActive:
			s.Active++
		case models.CampaignCompleted:
			s.Completed++
		}
		sum += p.ProgressPercentage.Float()
	}
	s.Average = int(math.Round(sum / float64(len(data))))
	return s
}

// PaginateProgressData returns one page of progress rows.
func PaginateProgressData(data []models.ProgressRecord, page, limit int) []models.ProgressRecord {
	items, _ := listing.Paginate(data, page, limit)
	return items
}

var codePrefixes = map[string]string{
	"agency":   "AC",
	"partner":  "PC",
	"customer": "CC",
	"admin":    "AD",
}

// defaultCodePrefix is used for user types without a dedicated prefix.
const defaultCodePrefix = "CP"

// GenerateCampaignCodeByUserType builds "<prefix>-MMDD" from the creating
// user type and the campaign date. The result depends only on its inputs.
func GenerateCampaignCodeByUserType(userType, date string) (string, error) {
	t, err := models.ParseDate(date, time.UTC)
	if err != nil {
		return "", fmt.Errorf("campaign code: %w", err)
	}
	prefix, ok := codePrefixes[strings.ToLower(strings.TrimSpace(userType))]
	if !ok {
		prefix = defaultCodePrefix
	}
	return fmt.Sprintf("%s-%02d%02d", prefix, int(t.Month()), t.Day()), nil
}

// MergeOverrides replaces server progress with locally stored overrides,
// keyed by campaign id. The input is not modified.
func MergeOverrides(data []models.ProgressRecord, overrides map[string]float64) []models.ProgressRecord {
	if len(overrides) == 0 {
		return data
	}
	out := make([]models.ProgressRecord, len(data))
	copy(out, data)
	for i := range out {
		if pct, ok := overrides[out[i].CampaignRef().String()]; ok {
			out[i].ProgressPercentage = models.Number(clamp(pct))
		}
	}
	return out
}

func clamp(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}
