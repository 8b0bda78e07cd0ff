package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ClientCookie identifies a console client (one browser) across requests.
const ClientCookie = "troy_client"

// RequestStore is the per-request scope: the Authorization header stands in
// for any role-scoped token key, everything else is read from cookies.
type RequestStore struct {
	r *http.Request
}

// FromRequest returns the request scope of r.
func FromRequest(r *http.Request) RequestStore { return RequestStore{r: r} }

func (s RequestStore) Get(_ context.Context, key string) (string, error) {
	if strings.HasPrefix(key, "troy_token_") {
		if h := s.r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), nil
		}
	}
	c, err := s.r.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Set is not supported on the request scope; sessions are persisted through
// the local scope.
func (s RequestStore) Set(context.Context, string, string) error {
	return errors.New("request scope is read-only")
}

// ClientID returns the console client id of r, issuing a new one through w
// when the request carries none.
func ClientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ClientCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	if w != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     ClientCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id
}

// MapStore is an in-memory Store, used for tests and the CLI.
type MapStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMapStore(kv map[string]string) *MapStore {
	m := make(map[string]string, len(kv))
	for k, v := range kv {
		m[k] = v
	}
	return &MapStore{m: m}
}

func (s *MapStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[key], nil
}

func (s *MapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
