package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avct/uasurfer"
	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = errors.New("analytics unavailable")

// Event types recorded for console activity.
const (
	EventView     = "view"
	EventModal    = "modal"
	EventMutation = "mutation"
	EventExport   = "export"
)

// AnalyticsService records console activity. Implementations should handle
// cases where underlying storage is unavailable by returning ErrUnavailable.
type AnalyticsService interface {
	RecordActivity(ctx context.Context, ev ActivityEvent) error
}

// ActivityEvent mirrors a row in the console_events table.
type ActivityEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id,omitempty"`
	Role       string    `json:"role"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Fallback   bool      `json:"fallback"`
	DeviceType string    `json:"device_type,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	Country    string    `json:"country,omitempty"`
}

// WithUserAgent fills the device and browser fields from a raw User-Agent.
func (ev ActivityEvent) WithUserAgent(ua string) ActivityEvent {
	if ua == "" {
		return ev
	}
	u := uasurfer.Parse(ua)
	switch u.DeviceType {
	case uasurfer.DeviceComputer:
		ev.DeviceType = "desktop"
	case uasurfer.DevicePhone:
		ev.DeviceType = "mobile"
	case uasurfer.DeviceTablet:
		ev.DeviceType = "tablet"
	default:
		ev.DeviceType = "other"
	}
	ev.Browser = u.Browser.Name.StringTrimPrefix()
	return ev
}

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB *sql.DB
}

// InitClickHouse connects to ClickHouse and ensures the events table exists.
func InitClickHouse(dsn string) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(10)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	create := `CREATE TABLE IF NOT EXISTS console_events (
       timestamp    DateTime,
       event_type   String,
       request_id   String,
       entity       String,
       entity_id    Nullable(String),
       role         String,
       status       UInt16,
       duration_ms  Int64,
       fallback     UInt8,
       device_type  Nullable(String),
       browser      Nullable(String),
       country      Nullable(String)
   ) ENGINE=MergeTree() ORDER BY (event_type, timestamp)`
	if _, err := db.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db}, nil
}

// RecordActivity inserts a single event row into the console_events table.
func (a *Analytics) RecordActivity(ctx context.Context, ev ActivityEvent) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	var fallback uint8
	if ev.Fallback {
		fallback = 1
	}
	stmt := `INSERT INTO console_events (timestamp, event_type, request_id, entity, entity_id, role, status, duration_ms, fallback, device_type, browser, country) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := a.DB.ExecContext(ctx, stmt, ev.Timestamp, ev.EventType, ev.RequestID, ev.Entity,
		nullable(ev.EntityID), ev.Role, uint16(ev.Status), ev.DurationMS, fallback,
		nullable(ev.DeviceType), nullable(ev.Browser), nullable(ev.Country)); err != nil {
		zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("event_type", ev.EventType))
		return fmt.Errorf("insert %s event: %w", ev.EventType, err)
	}
	return nil
}

// EventsByRequestID returns all events for a given request ID ordered by timestamp.
func (a *Analytics) EventsByRequestID(ctx context.Context, id string) ([]ActivityEvent, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT timestamp, event_type, request_id, entity, entity_id, role, status, duration_ms, fallback, device_type, browser, country FROM console_events WHERE request_id=? ORDER BY timestamp`
	rows, err := a.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var events []ActivityEvent
	for rows.Next() {
		var ev ActivityEvent
		var entityID, device, browser, country sql.NullString
		var status uint16
		var fallback uint8
		if err := rows.Scan(&ev.Timestamp, &ev.EventType, &ev.RequestID, &ev.Entity, &entityID, &ev.Role, &status, &ev.DurationMS, &fallback, &device, &browser, &country); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.EntityID = entityID.String
		ev.DeviceType = device.String
		ev.Browser = browser.String
		ev.Country = country.String
		ev.Status = int(status)
		ev.Fallback = fallback == 1
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return events, nil
}

// Close terminates the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
