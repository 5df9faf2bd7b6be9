package auth

import (
	"errors"
	"testing"
	"time"

	"fleettrack/internal/domain"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &domain.User{ID: "user-1", Role: domain.RoleManager}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	actor, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.ID != "user-1" || actor.Role != domain.RoleManager {
		t.Errorf("wrong actor: %+v", actor)
	}
}

func TestTokenIssuer_WrongSecretRejected(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, err := issuer.Issue(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_ExpiredRejected(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue(&domain.User{ID: "user-1", Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_GarbageRejected(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("hash must verify the original password")
	}
	if CheckPassword(hash, "wrong-pass") {
		t.Error("hash must reject a wrong password")
	}
}
