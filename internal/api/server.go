package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/analytics"
	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/config"
	"github.com/patrickwarner/troyconsole/internal/db"
	"github.com/patrickwarner/troyconsole/internal/demo"
	"github.com/patrickwarner/troyconsole/internal/geoip"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/notifications"
	"github.com/patrickwarner/troyconsole/internal/observability"
	"github.com/patrickwarner/troyconsole/internal/ratelimit"
	"github.com/patrickwarner/troyconsole/internal/render"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger       *zap.Logger
	Backend      *backend.Client
	Store        *db.RedisStore
	Journal      db.Journal
	ClickHouseDB *sql.DB
	Analytics    analytics.AnalyticsService
	Views        models.ViewStore
	Feeds        *notifications.Feeds
	Fallback     *demo.Fallback
	Renderer     *render.Renderer
	Metrics      observability.MetricsRegistry
	Config       config.Config
	Location     *time.Location
	Limiter      *ratelimit.ClientLimiter
	GeoIP        *geoip.GeoIP

	now func() time.Time

	// local scopes used when Redis is not configured, keyed by client id
	localMu sync.Mutex
	local   map[string]*localEntry
}

type localEntry struct {
	store *session.MapStore
	seen  time.Time
}

// NewServer constructs a Server. Optional dependencies may be nil: without
// Redis the local session scope lives in process memory, without a journal
// actions are kept in memory, and without ClickHouse activity is not recorded.
func NewServer(logger *zap.Logger, client *backend.Client, store *db.RedisStore, journal db.Journal, ch *sql.DB, an analytics.AnalyticsService, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if journal == nil {
		journal = db.NewMemoryJournal()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	s := &Server{
		Logger:       logger,
		Backend:      client,
		Store:        store,
		Journal:      journal,
		ClickHouseDB: ch,
		Analytics:    an,
		Views:        models.NewInMemoryViewStore(cfg.CacheTTL),
		Feeds:        notifications.NewFeeds(cfg.CacheTTL),
		Renderer:     render.Must(),
		Metrics:      metrics,
		Config:       cfg,
		Location:     time.Local,
	}
	s.Limiter = ratelimit.NewClientLimiter(ratelimit.Config{
		Capacity:   cfg.MutationRateCapacity,
		RefillRate: cfg.MutationRateRefill,
		Enabled:    cfg.MutationRateLimitEnabled,
	}, metrics)
	s.Fallback = &demo.Fallback{Enabled: cfg.DemoMode, TTL: cfg.CacheTTL, Logger: logger}
	if store != nil {
		s.Fallback.Store = store
	}
	return s
}

func (s *Server) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// feed returns the notification feed of the requesting console client in
// its current role. sessionFor must have run first.
func (s *Server) feed(r *http.Request, sc session.Context) *notifications.Feed {
	client := info(r).client
	if client == "" {
		client = session.ClientID(nil, r)
	}
	return s.Feeds.For(client, string(sc.Role))
}

func (s *Server) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

// RefreshMessage is published after every successful mutation so other
// console instances drop their cached copy of the affected view.
type RefreshMessage struct {
	View   string `json:"view"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

func (s *Server) notifyUpdate(view, action, id string) {
	s.Views.ForgetView(view)
	if s.Store == nil || s.Store.Client == nil {
		s.Logger.Debug("redis store not available, skipping refresh notification")
		return
	}
	payload, err := json.Marshal(RefreshMessage{View: view, Action: action, ID: id})
	if err != nil {
		s.Logger.Error("failed to marshal refresh message", zap.Error(err))
		return
	}
	if err := s.Store.PublishRefresh(context.Background(), payload); err != nil {
		s.Logger.Error("failed to publish refresh message", zap.Error(err))
	}
}

// HandleRefresh applies a refresh message received from another instance.
func (s *Server) HandleRefresh(payload []byte) {
	var msg RefreshMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.Logger.Warn("invalid refresh message", zap.Error(err))
		return
	}
	if msg.View == "" {
		return
	}
	s.Views.ForgetView(msg.View)
	s.Logger.Debug("view refreshed", zap.String("view", msg.View), zap.String("action", msg.Action))
}
