package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/patrickwarner/troyconsole/internal/reporting"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}

func TestPrintActivityReport(t *testing.T) {
	day := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	summary := &reporting.ActivitySummary{
		Days:     7,
		Total:    reporting.DailyActivity{Views: 1200, Mutations: 8, Fallbacks: 3},
		Daily:    []reporting.DailyActivity{{Date: day, Views: 1200, Mutations: 8, Fallbacks: 3}},
		Entities: []reporting.EntityActivity{{Entity: "payments", Requests: 40, Mutations: 8, ErrorRate: 2.5}},
		Devices:  map[string]int64{"mobile": 2, "desktop": 10},
	}
	var buf bytes.Buffer
	printActivityReport(&buf, summary, day)
	out := buf.String()

	assert.Contains(t, out, "Report Period: 7 days (ending 2024-06-14)")
	assert.Contains(t, out, "Views:      1,200")
	assert.Contains(t, out, "payments")
	assert.Contains(t, out, "2.50%")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("desktop")), bytes.Index(buf.Bytes(), []byte("mobile")))
	assert.Contains(t, out, "3 views were served from demo data")
}
