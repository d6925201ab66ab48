package auth

import (
	"context"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	j := New("test-secret")

	tok, err := j.Sign(Claims{UserID: "u1", Username: "alice"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	got, err := j.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != "u1" || got.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := New("secret-a").Sign(Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := New("secret-b").Verify(tok); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	j := New("test-secret")
	tok, err := j.Sign(Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := j.Verify(tok); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestSignRequiresUserID(t *testing.T) {
	if _, err := New("s").Sign(Claims{}, time.Hour); err == nil {
		t.Fatal("expected error for empty user ID")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := User(ctx); ok {
		t.Fatal("empty context should have no user")
	}

	ctx = WithUser(ctx, Claims{UserID: "u1", Username: "alice"})
	c, ok := User(ctx)
	if !ok || c.UserID != "u1" {
		t.Fatalf("unexpected claims from context: %+v", c)
	}
}
