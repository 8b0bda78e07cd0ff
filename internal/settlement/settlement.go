// Package settlement computes partner payouts and aggregates them for the
// settlement views. Money is handled as decimal KRW.
package settlement

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/patrickwarner/troyconsole/internal/models"
)

// DefaultUnitPrice is the payout per completed review in KRW.
const DefaultUnitPrice int64 = 300

// Amount is reviewCount * unitPrice.
func Amount(reviewCount models.Number, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(reviewCount.Float()).Mul(unitPrice)
}

// Fill completes settlements the backend returned without a unit price or
// amount. Records that carry an amount keep it. The input is not modified.
func Fill(items []models.Settlement, unitPrice int64) []models.Settlement {
	if unitPrice <= 0 {
		unitPrice = DefaultUnitPrice
	}
	out := make([]models.Settlement, len(items))
	copy(out, items)
	for i := range out {
		if out[i].UnitPrice == 0 {
			out[i].UnitPrice = models.Number(unitPrice)
		}
		if out[i].Amount == 0 {
			amt := Amount(out[i].ReviewCount, decimal.NewFromFloat(out[i].UnitPrice.Float()))
			out[i].Amount = models.Number(amt.InexactFloat64())
		}
	}
	return out
}

// FilterByStatus keeps settlements with the given status; "" and "all" keep
// everything.
func FilterByStatus(items []models.Settlement, status string) []models.Settlement {
	if status == "" || strings.EqualFold(status, "all") {
		return items
	}
	out := make([]models.Settlement, 0, len(items))
	for _, s := range items {
		if string(s.Status) == status {
			out = append(out, s)
		}
	}
	return out
}

// Range names accepted by FilterByRange.
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeAll   = "all"
)

// FilterByRange keeps settlements created today, in the last 7 days, or in
// the current calendar month relative to now. Unknown ranges and "all" keep
// everything; records without a parseable date are dropped otherwise.
func FilterByRange(items []models.Settlement, rng string, now time.Time) []models.Settlement {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	var since time.Time
	switch rng {
	case RangeToday:
		since = today
	case RangeWeek:
		since = today.AddDate(0, 0, -6)
	case RangeMonth:
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return items
	}
	out := make([]models.Settlement, 0, len(items))
	for _, s := range items {
		t, err := models.ParseDate(s.DateKey(), loc)
		if err != nil || t.Before(since) || t.After(now) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// MonthBucket aggregates settlements created in one calendar month.
type MonthBucket struct {
	Month  string          `json:"month"` // YYYY-MM
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ByMonth groups settlements per creation month, newest month first.
// Records without a parseable date are grouped under "unknown", last.
func ByMonth(items []models.Settlement, loc *time.Location) []MonthBucket {
	idx := make(map[string]*MonthBucket)
	for _, s := range items {
		key := "unknown"
		if t, err := models.ParseDate(s.DateKey(), loc); err == nil {
			key = t.Format("2006-01")
		}
		b, ok := idx[key]
		if !ok {
			b = &MonthBucket{Month: key, Amount: decimal.Zero}
			idx[key] = b
		}
		b.Count++
		b.Amount = b.Amount.Add(decimal.NewFromFloat(s.Amount.Float()))
	}
	out := make([]MonthBucket, 0, len(idx))
	for _, b := range idx {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month == "unknown" || out[j].Month == "unknown" {
			return out[j].Month == "unknown" && out[i].Month != "unknown"
		}
		return out[i].Month > out[j].Month
	})
	return out
}

// StatusTotal is the count and amount of settlements in one status.
type StatusTotal struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary is the header of the settlement view.
type Summary struct {
	Total        StatusTotal                             `json:"total"`
	Reviews      int64                                   `json:"reviews"`
	ByStatus     map[models.SettlementStatus]StatusTotal `json:"by_status"`
	PendingTotal decimal.Decimal                         `json:"pending_total"`
}

// Summarize totals settlements overall and per status. Pending and
// processing amounts together make up PendingTotal.
func Summarize(items []models.Settlement) Summary {
	s := Summary{
		Total:        StatusTotal{Amount: decimal.Zero},
		ByStatus:     make(map[models.SettlementStatus]StatusTotal),
		PendingTotal: decimal.Zero,
	}
	for _, st := range []models.SettlementStatus{models.SettlementPending, models.SettlementProcessing, models.SettlementCompleted} {
		s.ByStatus[st] = StatusTotal{Amount: decimal.Zero}
	}
	for _, it := range items {
		amt := decimal.NewFromFloat(it.Amount.Float())
		s.Total.Count++
		s.Total.Amount = s.Total.Amount.Add(amt)
		s.Reviews += it.ReviewCount.Int()

		t := s.ByStatus[it.Status]
		t.Count++
		t.Amount = t.Amount.Add(amt)
		s.ByStatus[it.Status] = t

		if it.Status == models.SettlementPending || it.Status == models.SettlementProcessing {
			s.PendingTotal = s.PendingTotal.Add(amt)
		}
	}
	return s
}

// FormatKRW renders an amount with thousands separators and the won sign.
func FormatKRW(d decimal.Decimal) string {
	neg := d.IsNegative()
	digits := d.Abs().Round(0).StringFixed(0)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString("원")
	return b.String()
}
