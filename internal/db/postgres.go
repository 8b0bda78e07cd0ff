package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/models"
)

// Postgres wraps a postgres DB connection.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the action journal if it doesn't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS console_actions (
    id BIGSERIAL PRIMARY KEY,
    role TEXT NOT NULL,
    user_id TEXT,
    entity TEXT NOT NULL,
    entity_id TEXT,
    action TEXT NOT NULL,
    outcome TEXT NOT NULL,
    error TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_console_actions_created_at ON console_actions (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_console_actions_entity ON console_actions (entity, entity_id);
`

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// ensureSchema creates the required tables if they do not exist.
func (p *Postgres) ensureSchema() error {
	ctx := context.Background()
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertAction appends a console mutation to the journal and sets its id.
func (p *Postgres) InsertAction(ctx context.Context, a *models.ConsoleAction) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	err := p.DB.QueryRowContext(ctx,
		`INSERT INTO console_actions (role, user_id, entity, entity_id, action, outcome, error, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		a.Role, nullString(a.UserID), a.Entity, nullString(a.EntityID), a.Action, a.Outcome, nullString(a.Error), a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert console action: %w", err)
	}
	return nil
}

// RecentActions returns the newest journal entries, optionally restricted to
// one entity kind.
func (p *Postgres) RecentActions(ctx context.Context, entity string, limit int) ([]models.ConsoleAction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.DB.QueryContext(ctx,
		`SELECT id, role, user_id, entity, entity_id, action, outcome, error, created_at
		 FROM console_actions
		 WHERE ($1 = '' OR entity = $1)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, entity, limit)
	if err != nil {
		return nil, fmt.Errorf("query console actions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []models.ConsoleAction
	for rows.Next() {
		var a models.ConsoleAction
		var userID, entityID, errText sql.NullString
		if err := rows.Scan(&a.ID, &a.Role, &userID, &a.Entity, &entityID, &a.Action, &a.Outcome, &errText, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan console action: %w", err)
		}
		a.UserID = userID.String
		a.EntityID = entityID.String
		a.Error = errText.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
