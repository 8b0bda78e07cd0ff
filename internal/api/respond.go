package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/analytics"
	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/middleware"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/render"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Output formats negotiated with the format query parameter.
const (
	formatHTML = "html"
	formatJSON = "json"
	formatCSV  = "csv"
)

func outputFormat(r *http.Request) string {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case formatJSON:
		return formatJSON
	case formatCSV:
		return formatCSV
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return formatJSON
	}
	return formatHTML
}

// requestInfo collects what a handler learned about the request for the
// activity event written when it finishes.
type requestInfo struct {
	id       string
	entity   string
	entityID string
	role     string
	client   string
	// set from concurrent loads on the dashboard
	fallback atomic.Bool
}

type infoKey struct{}

func info(r *http.Request) *requestInfo {
	if ri, ok := r.Context().Value(infoKey{}).(*requestInfo); ok {
		return ri
	}
	return &requestInfo{}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// instrument wraps a handler with request metrics, a request id and an
// activity event of the given type.
func (s *Server) instrument(endpoint, event string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ri := &requestInfo{id: r.Header.Get(middleware.RequestIDHeader)}
		if ri.id == "" {
			ri.id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, ri.id)
		rec := &statusRecorder{ResponseWriter: w}
		h(rec, r.WithContext(context.WithValue(r.Context(), infoKey{}, ri)))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(status))
		s.Metrics.RecordRequestLatency(endpoint, r.Method, elapsed)

		if s.Analytics == nil || event == "" {
			return
		}
		if event == analytics.EventView && outputFormat(r) == formatCSV {
			event = analytics.EventExport
		}
		ev := analytics.ActivityEvent{
			Timestamp:  start.UTC(),
			EventType:  event,
			RequestID:  ri.id,
			Entity:     ri.entity,
			EntityID:   ri.entityID,
			Role:       ri.role,
			Status:     status,
			DurationMS: elapsed.Milliseconds(),
			Fallback:   ri.fallback.Load(),
		}.WithUserAgent(r.UserAgent())
		ev.Country = s.GeoIP.LookupRequest(r).Country
		if err := s.Analytics.RecordActivity(context.WithoutCancel(r.Context()), ev); err != nil && !errors.Is(err, analytics.ErrUnavailable) {
			s.logger(r).Warn("record activity", zap.Error(err))
		}
	}
}

func (s *Server) logger(r *http.Request) *zap.Logger {
	return middleware.LoggerFromRequest(r, s.Logger)
}

// statusFor maps an error onto the HTTP status the console answers with.
func statusFor(err error) int {
	var se *backend.StatusError
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, session.ErrInvalidRole),
		errors.Is(err, models.ErrInvalidDate), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errUnavailable):
		return http.StatusInternalServerError
	case errors.As(err, &se):
		switch se.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return se.Code
		}
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}

var (
	errBadRequest  = errors.New("bad request")
	errUnavailable = errors.New("dependency unavailable")
	errRateLimited = errors.New("rate limited")
)

// userMessage is the text shown in the inline error fragment.
func userMessage(err error) string {
	var se *backend.StatusError
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &se):
		if se.Message != "" {
			return se.Message
		}
		return "요청을 처리하지 못했습니다 (" + strconv.Itoa(se.Code) + ")"
	case errors.Is(err, backend.ErrMalformed):
		return "서버 응답 형식이 올바르지 않습니다"
	case errors.Is(err, models.ErrNotFound):
		return "항목을 찾을 수 없습니다"
	case errors.Is(err, errRateLimited):
		return "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요"
	case errors.Is(err, models.ErrValidation), errors.Is(err, session.ErrInvalidRole),
		errors.Is(err, models.ErrInvalidDate), errors.Is(err, errBadRequest):
		return err.Error()
	case errors.Is(err, errUnavailable):
		return "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해 주세요"
	}
	// transport failures name the backend URL; they stay in the log
	return "서버에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요"
}

// fail answers with an error fragment, or JSON when the client asked for it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := userMessage(err)
	log := s.logger(r).With(zap.Int("status", status), zap.String("path", r.URL.Path))
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Error(err))
	}

	if outputFormat(r) == formatJSON {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		body := map[string]any{"error": msg}
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			body["fields"] = ve.Fields
		}
		_ = json.NewEncoder(w).Encode(body)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	retry := ""
	if r.Method == http.MethodGet {
		retry = r.URL.RequestURI()
	}
	if rerr := s.Renderer.Render(w, "error", render.Error{Status: status, Message: msg, Retry: retry}); rerr != nil {
		log.Error("render error fragment", zap.Error(rerr))
	}
}

// html renders a fragment with the right content type.
func (s *Server) html(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Renderer.Render(w, name, data); err != nil {
		s.logger(r).Error("render", zap.String("template", name), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}
