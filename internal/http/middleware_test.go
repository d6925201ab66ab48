package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"teamchat/internal/app"
	"teamchat/pkg/auth"
)

func TestAuthMiddleware(t *testing.T) {
	j := auth.New("test-secret")
	mw := NewMiddleware(app.Config{CORSAllow: []string{"*"}}, j)

	var seen auth.Claims
	h := mw.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.User(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", rec.Code)
	}

	// Garbage token
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", rec.Code)
	}

	// Valid token carries the claims through
	tok, err := j.Sign(auth.Claims{UserID: "u1", Username: "alice"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: got %d", rec.Code)
	}
	if seen.UserID != "u1" || seen.Username != "alice" {
		t.Fatalf("claims not propagated: %+v", seen)
	}
}

func TestBearerOrQueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=query-tok", nil)
	if got := BearerOrQueryToken(req); got != "query-tok" {
		t.Fatalf("query token: got %q", got)
	}

	req.Header.Set("Authorization", "Bearer header-tok")
	if got := BearerOrQueryToken(req); got != "header-tok" {
		t.Fatalf("header should win: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	if got := BearerOrQueryToken(req); got != "" {
		t.Fatalf("no token: got %q", got)
	}
}

func TestWSAuth(t *testing.T) {
	j := auth.New("test-secret")
	fn := WSAuth(j)

	tok, err := j.Sign(auth.Claims{UserID: "u1", Username: "alice"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil)
	ident, err := fn(req)
	if err != nil {
		t.Fatalf("WSAuth: %v", err)
	}
	if ident.UserID != "u1" || ident.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	if _, err := fn(httptest.NewRequest(http.MethodGet, "/ws", nil)); err == nil {
		t.Fatal("missing token should fail")
	}
}
