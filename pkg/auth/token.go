// Package auth issues and verifies the three bearer-token kinds used by the
// ordering service: admin, chef and guest.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind is the role claim carried by a token
type Kind string

const (
	KindAdmin Kind = "admin"
	KindChef  Kind = "chef"
	KindGuest Kind = "guest"
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindAdmin, KindChef, KindGuest:
		return true
	}
	return false
}

// Claims is the payload of every token. Subject holds the admin or chef
// record id; guest tokens have no subject and carry a table binding instead.
type Claims struct {
	Role        Kind   `json:"role"`
	TenantID    string `json:"tenant"`
	Username    string `json:"username,omitempty"`
	ChefID      string `json:"chef_id,omitempty"`
	TableNumber int    `json:"table,omitempty"`
	jwt.RegisteredClaims
}

// Config holds signing settings
type Config struct {
	Secret   string
	Issuer   string
	AdminTTL time.Duration
	ChefTTL  time.Duration
	GuestTTL time.Duration
}

// Manager signs and verifies tokens with a shared HS256 secret
type Manager struct {
	secret []byte
	issuer string
	ttl    map[Kind]time.Duration
	now    func() time.Time
}

// NewManager creates a token manager. Zero TTLs fall back to 7d / 8h / 2h.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl: map[Kind]time.Duration{
			KindAdmin: orDefault(cfg.AdminTTL, 7*24*time.Hour),
			KindChef:  orDefault(cfg.ChefTTL, 8*time.Hour),
			KindGuest: orDefault(cfg.GuestTTL, 2*time.Hour),
		},
		now: time.Now,
	}
	return m
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// TTL returns the lifetime of tokens of the given kind
func (m *Manager) TTL(kind Kind) time.Duration {
	return m.ttl[kind]
}

// IssueAdminToken signs a token for a hotel admin
func (m *Manager) IssueAdminToken(adminID, username, tenantID string) (string, error) {
	return m.sign(&Claims{
		Role:     KindAdmin,
		TenantID: tenantID,
		Username: username,
	}, adminID)
}

// IssueChefToken signs a token for a chef. recordID is the chef's storage id,
// chefID the login handle chosen by the admin.
func (m *Manager) IssueChefToken(recordID, chefID, tenantID string) (string, error) {
	return m.sign(&Claims{
		Role:     KindChef,
		TenantID: tenantID,
		ChefID:   chefID,
	}, recordID)
}

// IssueGuestToken signs a capability token bound to a table of a tenant
func (m *Manager) IssueGuestToken(tenantID string, tableNumber int) (string, error) {
	if tenantID == "" || tableNumber <= 0 {
		return "", fmt.Errorf("guest token requires tenant and table")
	}
	return m.sign(&Claims{
		Role:        KindGuest,
		TenantID:    tenantID,
		TableNumber: tableNumber,
	}, "")
}

func (m *Manager) sign(claims *Claims, subject string) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl[claims.Role])),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Role, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and role of raw against kind.
// raw may carry a "Bearer " prefix. All failures are *Error.
func (m *Manager) Verify(kind Kind, raw string) (*Claims, error) {
	raw = StripBearer(raw)
	if raw == "" {
		return nil, &Error{Kind: ErrMissing}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, &Error{Kind: ErrInvalid, Err: err}
	}
	if !token.Valid {
		return nil, &Error{Kind: ErrInvalid, Err: jwt.ErrTokenUnverifiable}
	}

	if claims.Role != kind {
		return nil, &Error{Kind: ErrRoleMismatch, Err: fmt.Errorf("want %s, got %q", kind, claims.Role)}
	}
	if claims.TenantID == "" {
		return nil, &Error{Kind: ErrInvalid, Err: errors.New("token has no tenant")}
	}
	if kind == KindGuest && claims.TableNumber <= 0 {
		return nil, &Error{Kind: ErrInvalid, Err: errors.New("guest token has no table")}
	}
	if kind != KindGuest && claims.Subject == "" {
		return nil, &Error{Kind: ErrInvalid, Err: errors.New("token has no subject")}
	}

	return claims, nil
}

// StripBearer normalizes an Authorization value so that "Bearer x" and "x"
// yield the same token.
func StripBearer(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "bearer") {
		return ""
	}
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	return v
}
