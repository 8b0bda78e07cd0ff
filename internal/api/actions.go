package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/reporting"
)

// maxActions caps the limit parameter of the action journal.
const maxActions = 500

// ListActions returns the newest console actions, optionally for one entity.
//
// Query Parameters:
//   - entity: view name such as payments or settlements
//   - limit: number of entries (default 50, max 500)
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	limit := pageParam(r, "limit", 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > maxActions {
		limit = maxActions
	}
	entity := r.URL.Query().Get("entity")
	actions, err := s.Journal.RecentActions(r.Context(), entity, limit)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errUnavailable, err))
		return
	}
	writeJSON(w, actions)
}

// ActivityReportHandler handles GET /reports/activity requests. It
// summarizes console usage recorded in ClickHouse.
//
// Query Parameters:
//   - days: Number of days to include in the report (default: 7, max: 365)
func (s *Server) ActivityReportHandler(w http.ResponseWriter, r *http.Request) {
	if s.ClickHouseDB == nil {
		s.Logger.Error("clickhouse unavailable")
		http.Error(w, "analytics database unavailable", http.StatusInternalServerError)
		return
	}

	days := 7
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsedDays, err := strconv.Atoi(daysParam)
		if err != nil || parsedDays <= 0 {
			http.Error(w, "invalid days parameter", http.StatusBadRequest)
			return
		}
		if parsedDays > 365 {
			parsedDays = 365
		}
		days = parsedDays
	}

	start := time.Now()
	report, err := reporting.GenerateActivityReport(r.Context(), s.ClickHouseDB, days)
	if err != nil {
		s.logger(r).Error("failed to generate activity report", zap.Int("days", days), zap.Error(err))
		http.Error(w, "failed to generate report", http.StatusInternalServerError)
		return
	}
	s.logger(r).Info("activity report generated",
		zap.Int("days", days),
		zap.Int64("views", report.Total.Views),
		zap.Int64("mutations", report.Total.Mutations),
		zap.Duration("duration", time.Since(start)))
	writeJSON(w, report)
}
