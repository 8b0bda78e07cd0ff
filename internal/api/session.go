package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickwarner/troyconsole/internal/session"
)

// RoleHeader lets the console script pick the role explicitly.
const RoleHeader = "X-Console-Role"

func requestRole(r *http.Request) (session.Role, error) {
	v := r.URL.Query().Get("role")
	if v == "" {
		v = r.Header.Get(RoleHeader)
	}
	if v == "" {
		return session.Admin, nil
	}
	return session.ParseRole(v)
}

// localScope returns the persistent scope of a console client: Redis when
// configured, process memory otherwise. In-memory scopes idle longer than
// CacheTTL are dropped, as Redis expires its keys.
func (s *Server) localScope(client string) session.Store {
	if s.Store != nil && s.Store.Client != nil {
		return s.Store.Scope(client, s.Config.CacheTTL)
	}
	now := s.clock()
	s.localMu.Lock()
	defer s.localMu.Unlock()
	if s.local == nil {
		s.local = make(map[string]*localEntry)
	}
	e, ok := s.local[client]
	if !ok {
		s.pruneLocalLocked(now)
		e = &localEntry{store: session.NewMapStore(nil)}
		s.local[client] = e
	}
	e.seen = now
	return e.store
}

// PruneLocal drops in-memory session scopes and notification feeds idle
// longer than CacheTTL. It returns how many entries were removed.
func (s *Server) PruneLocal() int {
	s.localMu.Lock()
	n := s.pruneLocalLocked(s.clock())
	s.localMu.Unlock()
	return n + s.Feeds.Prune()
}

func (s *Server) pruneLocalLocked(now time.Time) int {
	ttl := s.Config.CacheTTL
	if ttl <= 0 {
		return 0
	}
	n := 0
	for k, e := range s.local {
		if now.Sub(e.seen) > ttl {
			delete(s.local, k)
			n++
		}
	}
	return n
}

func (s *Server) resolver(client string) *session.Resolver {
	return &session.Resolver{
		Local:       s.localScope(client),
		DemoMode:    s.Config.DemoMode,
		DemoToken:   s.Config.DemoToken,
		SeedStorage: s.Config.DemoSeedStorage,
		Logger:      s.Logger,
	}
}

// sessionFor resolves the caller's session and console client id.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (session.Context, string, error) {
	ri := info(r)
	client := ri.client
	if client == "" {
		client = session.ClientID(w, r)
		ri.client = client
	}
	role, err := requestRole(r)
	if err != nil {
		return session.Context{}, client, err
	}
	sc, err := s.resolver(client).Resolve(r.Context(), role, session.FromRequest(r))
	if err != nil {
		return session.Context{}, client, err
	}
	ri.role = string(sc.Role)
	return sc, client, nil
}

type sessionRequest struct {
	Role        string `json:"role"`
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	CompanyName string `json:"company_name"`
}

// RememberSession stores the tokens the login page obtained so later
// requests from this console client resolve them from the local scope.
func (s *Server) RememberSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, r, fmt.Errorf("%w: invalid json", errBadRequest))
			return
		}
	} else {
		req = sessionRequest{
			Role:        r.FormValue("role"),
			Token:       r.FormValue("token"),
			UserID:      r.FormValue("user_id"),
			CompanyName: r.FormValue("company_name"),
		}
	}
	role, err := session.ParseRole(req.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		s.fail(w, r, fmt.Errorf("%w: token is required", errBadRequest))
		return
	}
	client := session.ClientID(w, r)
	sc := session.Context{Role: role, Token: strings.TrimSpace(req.Token), UserID: req.UserID, CompanyName: req.CompanyName}
	if err := s.resolver(client).Remember(r.Context(), sc); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errUnavailable, err))
		return
	}
	info(r).role = string(role)
	w.WriteHeader(http.StatusNoContent)
}
