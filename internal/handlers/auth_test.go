package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tubeworks/backend/internal/auth"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
)

type inMemoryUserStore struct {
	byEmail map[string]models.User
	byID    map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{byEmail: make(map[string]models.User), byID: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return repositories.ErrConflict
	}
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) Update(_ context.Context, user models.User) error {
	if _, ok := s.byID[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *inMemoryUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	user, ok := s.byID[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.byID[userID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *inMemoryUserStore) FindByRefreshToken(_ context.Context, token string) (models.User, error) {
	for _, user := range s.byID {
		if user.RefreshToken != "" && user.RefreshToken == token {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func newTestSessions(store auth.UserTokenStore) *auth.Manager {
	return auth.NewManager("test-secret", 15*time.Minute, 24*time.Hour, store)
}

type envelopeBody struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var body envelopeBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body
}

func TestAuthHandlerSignUp(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions(store)}

	body, err := json.Marshal(signUpRequest{Username: "alice", Email: "alice@example.com", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp authResponse
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode response data: %v", err)
	}

	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	stored, err := store.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestAuthHandlerSignUpDuplicate(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions(store)}

	payload, _ := json.Marshal(signUpRequest{Username: "alice", Email: "alice@example.com", Password: "supersafe"})

	first := httptest.NewRecorder()
	handler.SignUp(first, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(payload)))
	if first.Code != http.StatusCreated {
		t.Fatalf("first signup failed: %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.SignUp(second, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(payload)))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected conflict for duplicate signup, got %d", second.Code)
	}
}

func TestAuthHandlerSignUpValidation(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions(store)}

	cases := []struct {
		name string
		req  signUpRequest
	}{
		{name: "missing email", req: signUpRequest{Username: "alice", Password: "supersafe"}},
		{name: "bad email", req: signUpRequest{Username: "alice", Email: "not-an-email", Password: "supersafe"}},
		{name: "short password", req: signUpRequest{Username: "alice", Email: "alice@example.com", Password: "short"}},
		{name: "missing username", req: signUpRequest{Email: "alice@example.com", Password: "supersafe"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			rec := httptest.NewRecorder()
			handler.SignUp(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions(store)}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("supersafe"), bcrypt.MinCost)
	user := models.User{ID: "user-1", Username: "alice", Email: "alice@example.com", Password: string(hashed)}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	body, _ := json.Marshal(loginRequest{Email: "alice@example.com", Password: "supersafe"})
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions(store)}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("supersafe"), bcrypt.MinCost)
	_ = store.Create(context.Background(), models.User{ID: "user-1", Email: "alice@example.com", Password: string(hashed)})

	body, _ := json.Marshal(loginRequest{Email: "alice@example.com", Password: "wrong"})
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthHandlerLoginUnknownUser(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions(store)}

	body, _ := json.Marshal(loginRequest{Email: "ghost@example.com", Password: "whatever"})
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))

	// Unknown account and wrong password are indistinguishable.
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthHandlerRefreshRotation(t *testing.T) {
	store := newInMemoryUserStore()
	sessions := newTestSessions(store)
	handler := AuthHandler{Users: store, Sessions: sessions}

	_ = store.Create(context.Background(), models.User{ID: "user-1", Email: "alice@example.com"})
	issued, err := sessions.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	body, _ := json.Marshal(refreshRequest{RefreshToken: issued.RefreshToken})
	rec := httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandlerRefreshGarbageToken(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions(store)}

	body, _ := json.Marshal(refreshRequest{RefreshToken: "not-a-jwt"})
	rec := httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
