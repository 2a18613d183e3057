package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	userID string
	err    error
}

func (v stubVerifier) Verify(token string) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	return v.userID, nil
}

func actorEcho() (http.Handler, *string) {
	var seen string
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), &seen
}

func TestRequireActorRejectsMissingToken(t *testing.T) {
	next, _ := actorEcho()
	handler := RequireActor(stubVerifier{userID: "user-1"})(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireActorRejectsInvalidToken(t *testing.T) {
	next, _ := actorEcho()
	handler := RequireActor(stubVerifier{err: errors.New("bad token")})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireActorAttachesActor(t *testing.T) {
	next, seen := actorEcho()
	handler := RequireActor(stubVerifier{userID: "user-1"})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if *seen != "user-1" {
		t.Fatalf("actor = %q, want user-1", *seen)
	}
}

func TestOptionalActorAllowsAnonymous(t *testing.T) {
	next, seen := actorEcho()
	handler := OptionalActor(stubVerifier{userID: "user-1"})(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if *seen != "" {
		t.Fatalf("anonymous request must carry no actor, got %q", *seen)
	}
}

func TestOptionalActorIgnoresBadToken(t *testing.T) {
	next, seen := actorEcho()
	handler := OptionalActor(stubVerifier{err: errors.New("bad token")})(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("an unusable token must not block an optional read, got %d", rec.Code)
	}
	if *seen != "" {
		t.Fatalf("actor = %q, want anonymous", *seen)
	}
}
