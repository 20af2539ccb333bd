package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/splitkaro/server/internal/models"
)

// memoryUserStorage is a minimal in-memory UserStorage for tests.
type memoryUserStorage struct {
	byEmail map[string]*models.User
}

func newMemoryUserStorage() *memoryUserStorage {
	return &memoryUserStorage{byEmail: make(map[string]*models.User)}
}

func (m *memoryUserStorage) CreateUser(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUserStorage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return m.byEmail[email], nil
}

func (m *memoryUserStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	authn := NewPasswordAuthenticator(newMemoryUserStorage())
	ctx := context.Background()

	user, err := authn.Register(ctx, "alice@example.com", "Alice", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.PasswordHash == "correct-horse-battery" {
		t.Error("password stored in plain text")
	}

	got, err := authn.Authenticate(ctx, "alice@example.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated user %s, want %s", got.ID, user.ID)
	}

	if _, err := authn.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := authn.Authenticate(ctx, "nobody@example.com", "correct-horse-battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestRegisterValidation(t *testing.T) {
	authn := NewPasswordAuthenticator(newMemoryUserStorage())
	ctx := context.Background()

	if _, err := authn.Register(ctx, "alice@example.com", "Alice", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password error = %v, want %v", err, ErrWeakPassword)
	}

	if _, err := authn.Register(ctx, "alice@example.com", "Alice", "long-enough-password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := authn.Register(ctx, "alice@example.com", "Other", "long-enough-password"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email error = %v, want %v", err, ErrEmailExists)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Errorf("claims = %+v, want user %s", claims, user.ID)
	}
}

func TestJWTRejectsBadTokens(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	if _, err := manager.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token error = %v, want %v", err, ErrInvalidToken)
	}

	other := NewJWTManager("different-secret", time.Hour)
	token, err := other.Generate(&models.User{ID: "user-1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong-secret token error = %v, want %v", err, ErrInvalidToken)
	}

	expired := NewJWTManager("test-secret", -time.Hour)
	token, err = expired.Generate(&models.User{ID: "user-1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token error = %v, want %v", err, ErrInvalidToken)
	}
}
