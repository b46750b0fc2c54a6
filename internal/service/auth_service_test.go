package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"parkhub/internal/db"
	"parkhub/internal/repository"
)

type fakeUserRepo struct {
	users map[int]*db.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *db.User) error {
	user.ID = len(f.users) + 1
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int) (*db.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*db.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*db.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int, hash string) error {
	user, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func TestResetTokenExpiry(t *testing.T) {
	ctx := context.Background()
	repo := &fakeUserRepo{users: map[int]*db.User{
		1: {ID: 1, Username: "alice", Email: "alice@example.com", Role: db.RoleCustomer},
	}}
	svc := NewAuthService(repo)
	current := ts("2024-01-01T10:00")
	svc.Now = func() time.Time { return current }

	token, _, err := svc.CreateResetToken(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("CreateResetToken: %v", err)
	}

	current = ts("2024-01-01T12:00")
	if err := svc.ResetPassword(ctx, token, "newpass"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for an expired token, got %v", err)
	}
}

func TestCreateResetTokenPurgesExpired(t *testing.T) {
	ctx := context.Background()
	repo := &fakeUserRepo{users: map[int]*db.User{
		1: {ID: 1, Username: "alice", Email: "alice@example.com", Role: db.RoleCustomer},
	}}
	svc := NewAuthService(repo)
	current := ts("2024-01-01T10:00")
	svc.Now = func() time.Time { return current }

	stale, _, err := svc.CreateResetToken(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("CreateResetToken: %v", err)
	}

	// Two hours later the first token is past its lifetime; issuing a new one
	// must drop it from the map, not just supersede it.
	current = ts("2024-01-01T12:00")
	fresh, _, err := svc.CreateResetToken(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("CreateResetToken: %v", err)
	}

	svc.mu.Lock()
	held := len(svc.resets)
	_, staleHeld := svc.resets[stale]
	svc.mu.Unlock()
	if held != 1 || staleHeld {
		t.Fatalf("expected only the fresh token to be held, got %d entries (stale held: %v)", held, staleHeld)
	}

	if err := svc.ResetPassword(ctx, fresh, "newpass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.users[1].PasswordHash), []byte("newpass")); err != nil {
		t.Fatalf("password not updated: %v", err)
	}
}
