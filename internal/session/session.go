// Package session resolves the bearer token and identity a console request
// acts under. Sessions are keyed by role; every component receives a typed
// Context instead of reading storage itself.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Role is one of the four platform roles, each with its own session namespace.
type Role string

const (
	Admin    Role = "admin"
	Agency   Role = "agency"
	Partner  Role = "partner"
	Customer Role = "customer"
)

// Roles lists every valid role.
var Roles = []Role{Admin, Agency, Partner, Customer}

var ErrInvalidRole = errors.New("invalid role")

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Roles {
		if r == v {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// TokenKey is the role-scoped storage key of the bearer token.
func TokenKey(r Role) string { return "troy_token_" + string(r) }

// UserIDKey is the role-scoped storage key of the user id.
func UserIDKey(r Role) string { return "troy_user_id_" + string(r) }

// CompanyNameKey is the role-scoped storage key of the company name.
func CompanyNameKey(r Role) string { return "troy_company_name_" + string(r) }

// LegacyTokenKeys are the unscoped keys older clients wrote, consulted after
// the scoped ones.
func LegacyTokenKeys(r Role) []string {
	keys := []string{"troy_token", "token", "authToken"}
	if r == Admin {
		keys = append([]string{"adminToken"}, keys...)
	}
	return keys
}

// Store is one storage scope. Get returns "" with a nil error for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Context is the resolved session for one role.
type Context struct {
	Role        Role   `json:"role"`
	Token       string `json:"-"`
	UserID      string `json:"user_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	// Demo is set when the token is the configured demo placeholder.
	Demo bool `json:"demo"`
}

// Authenticated reports whether a bearer token is available.
func (c Context) Authenticated() bool { return c.Token != "" }

// Resolver looks up sessions across ordered scopes.
type Resolver struct {
	// Local is the persistent scope shared across requests of one console client.
	Local     Store
	DemoMode  bool
	DemoToken string
	// SeedStorage writes the demo token into Local when none is stored.
	SeedStorage bool
	Logger      *zap.Logger
}

// Resolve returns the session for role. Scopes are consulted in order:
// request scopes first, then Local; role-scoped keys are tried in every scope
// before any legacy key. With nothing found, admin sessions fall back to the
// demo placeholder when demo mode is on.
func (r *Resolver) Resolve(ctx context.Context, role Role, request ...Store) (Context, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return Context{}, err
	}
	scopes := make([]Store, 0, len(request)+1)
	for _, s := range request {
		if s != nil {
			scopes = append(scopes, s)
		}
	}
	if r.Local != nil {
		scopes = append(scopes, r.Local)
	}

	sc := Context{Role: role}
	sc.Token = r.first(ctx, scopes, TokenKey(role))
	if sc.Token == "" {
		sc.Token = r.first(ctx, scopes, LegacyTokenKeys(role)...)
	}
	sc.UserID = r.first(ctx, scopes, UserIDKey(role))
	sc.CompanyName = r.first(ctx, scopes, CompanyNameKey(role))

	if sc.Token == "" && r.DemoMode && role == Admin && r.DemoToken != "" {
		sc.Token = r.DemoToken
		if r.SeedStorage && r.Local != nil {
			if err := r.Local.Set(ctx, TokenKey(role), r.DemoToken); err != nil {
				r.logger().Warn("seed demo token", zap.Error(err))
			}
		}
	}
	sc.Demo = r.DemoMode && sc.Token != "" && sc.Token == r.DemoToken
	return sc, nil
}

// first returns the first non-empty value for keys, trying every scope for a
// key before moving to the next key. Scope errors are logged and skipped.
func (r *Resolver) first(ctx context.Context, scopes []Store, keys ...string) string {
	for _, key := range keys {
		for _, s := range scopes {
			v, err := s.Get(ctx, key)
			if err != nil {
				r.logger().Warn("session scope lookup failed", zap.String("key", key), zap.Error(err))
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// Remember persists a session into the local scope so later requests from the
// same console client resolve it without presenting the token again.
func (r *Resolver) Remember(ctx context.Context, sc Context) error {
	if r.Local == nil {
		return nil
	}
	pairs := [][2]string{
		{TokenKey(sc.Role), sc.Token},
		{UserIDKey(sc.Role), sc.UserID},
		{CompanyNameKey(sc.Role), sc.CompanyName},
	}
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		if err := r.Local.Set(ctx, p[0], p[1]); err != nil {
			return fmt.Errorf("remember %s: %w", p[0], err)
		}
	}
	return nil
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.L()
	}
	return r.Logger
}

type ctxKey struct{}

// WithContext attaches a resolved session to ctx.
func WithContext(ctx context.Context, sc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// FromContext returns the session attached by WithContext.
func FromContext(ctx context.Context) (Context, bool) {
	sc, ok := ctx.Value(ctxKey{}).(Context)
	return sc, ok
}
