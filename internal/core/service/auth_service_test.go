package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yieldvault/invest-api/internal/core/domain"
)

func newAuthSvc() (*AuthService, *stubUserRepo) {
	repo := &stubUserRepo{state: newMemState()}
	return NewAuthService(repo, "secret", time.Hour), repo
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _ := newAuthSvc()

	user, err := svc.Register(context.Background(), "Alice", "Alice@Example.com ", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalised: %q", user.Email)
	}
	if !user.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", user.Balance)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newAuthSvc()

	if _, err := svc.Register(context.Background(), "bob", "", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob", "bob@example.com", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _ := newAuthSvc()

	_, _ = svc.Register(context.Background(), "bob", "bob@example.com", "pass")
	if _, err := svc.Register(context.Background(), "bob", "bob@example.com", "pass2"); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_EnsureAdmin_Idempotent(t *testing.T) {
	svc, _ := newAuthSvc()

	first, err := svc.EnsureAdmin(context.Background(), "root@example.com", "pw")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if first.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", first.Role)
	}
	second, err := svc.EnsureAdmin(context.Background(), "root@example.com", "other")
	if err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the existing admin to be returned")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _ := newAuthSvc()

	registered, err := svc.Register(context.Background(), "carol", "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.ID != registered.ID {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != domain.RoleUser {
		t.Fatalf("expected role %s, got %v", domain.RoleUser, claims["role"])
	}
	if claims["user_id"] != registered.ID {
		t.Fatalf("expected user_id %s, got %v", registered.ID, claims["user_id"])
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _ := newAuthSvc()

	_, _ = svc.Register(context.Background(), "dave", "dave@example.com", "goodpass")
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc, _ := newAuthSvc()

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
