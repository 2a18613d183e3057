// Package auth issues and verifies the platform's bearer credentials:
// short-lived HS256 access tokens and a single rotating refresh token stored
// on the user row.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tubeworks/backend/internal/models"
)

var (
	// ErrInvalidToken indicates a token that failed signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates a structurally valid but expired token.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked indicates a refresh token that no longer matches the
	// user's stored one (rotated or logged out).
	ErrTokenRevoked = errors.New("token revoked")
)

// UserTokenStore persists the single active refresh token per user.
type UserTokenStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	FindByRefreshToken(ctx context.Context, token string) (models.User, error)
}

// Tokens groups the bearer credentials issued to authenticated users.
type Tokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Manager signs, verifies, and rotates tokens.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      UserTokenStore
	NowFunc    func() time.Time
}

// NewManager constructs a token manager. The secret signs both token kinds.
func NewManager(secret string, accessTTL, refreshTTL time.Duration, store UserTokenStore) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
	}
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}

func (m *Manager) sign(userID, kind string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"tkn": kind,
		"iat": m.now().Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Issue creates a fresh access/refresh pair and stores the refresh token as
// the user's single active one, invalidating any predecessor.
func (m *Manager) Issue(ctx context.Context, userID string) (Tokens, error) {
	now := m.now()
	accessExpiry := now.Add(m.accessTTL)
	refreshExpiry := now.Add(m.refreshTTL)

	access, err := m.sign(userID, "access", accessExpiry)
	if err != nil {
		return Tokens{}, err
	}

	refresh, err := m.sign(userID, "refresh", refreshExpiry)
	if err != nil {
		return Tokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, refresh); err != nil {
		return Tokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return Tokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Verify resolves a bearer access token to the actor's user id.
func (m *Manager) Verify(tokenString string) (string, error) {
	return m.parse(tokenString, "access")
}

// Refresh exchanges a refresh token for a rotated pair. The presented token
// must both verify and match the user's stored one.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	userID, err := m.parse(refreshToken, "refresh")
	if err != nil {
		return Tokens{}, err
	}

	user, err := m.store.FindByRefreshToken(ctx, refreshToken)
	if err != nil || user.ID != userID {
		return Tokens{}, ErrTokenRevoked
	}

	return m.Issue(ctx, userID)
}

// Revoke clears the user's stored refresh token (logout).
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (m *Manager) parse(tokenString, wantKind string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if kind, _ := claims["tkn"].(string); kind != wantKind {
		return "", ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}
