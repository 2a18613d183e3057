package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/auth"
	"github.com/tubeworks/backend/internal/middleware"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
)

// AuthHandler implements account and session endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	NowFunc  func() time.Time
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User   models.Profile `json:"user"`
	Tokens auth.Tokens    `json:"tokens"`
}

// SignUp handles POST /api/v1/auth/signup.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signUpRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))

	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(ctx, w, apperr.Invalid("username, email, and password are required"))
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, apperr.Invalid("invalid email address"))
		return
	}

	if len(req.Password) < 8 {
		respondError(ctx, w, apperr.Invalid("password must be at least 8 characters"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, apperr.Internal("failed to secure password", err))
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		FullName:  strings.TrimSpace(req.FullName),
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperr.Conflict("account already exists"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to create account", err))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperr.Internal("failed to create session", err))
		return
	}

	respondData(ctx, w, http.StatusCreated, authResponse{User: user.PublicProfile(), Tokens: tokens}, "account created")
}

// Login handles POST /api/v1/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respondError(ctx, w, apperr.Invalid("email and password are required"))
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		// Indistinguishable from a bad password on purpose.
		respondError(ctx, w, apperr.Forbidden("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(ctx, w, apperr.Forbidden("invalid credentials"))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperr.Internal("failed to create session", err))
		return
	}

	respondData(ctx, w, http.StatusOK, authResponse{User: user.PublicProfile(), Tokens: tokens}, "logged in")
}

// Refresh handles POST /api/v1/auth/refresh.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondError(ctx, w, apperr.Invalid("refresh token is required"))
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenRevoked):
			respondError(ctx, w, apperr.Forbidden("unable to refresh session"))
		default:
			respondError(ctx, w, apperr.Internal("unable to refresh session", err))
		}
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]auth.Tokens{"tokens": tokens}, "session refreshed")
}

// Logout handles POST /api/v1/auth/logout. Requires authentication; clears
// the single active refresh token.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	if err := h.Sessions.Revoke(ctx, actorID); err != nil {
		respondError(ctx, w, apperr.Internal("failed to log out", err))
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "logged out")
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
