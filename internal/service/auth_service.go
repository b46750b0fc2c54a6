package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"parkhub/internal/db"
	"parkhub/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already exists")
	ErrAdminLocked        = errors.New("the admin password cannot be changed here")
	ErrInvalidResetToken  = errors.New("invalid or expired reset link")
)

const resetTokenTTL = time.Hour

type resetToken struct {
	userID    int
	expiresAt time.Time
}

// AuthService owns account credentials. Every account, the seeded admin
// included, goes through the same bcrypt verification path, and the stored
// role is the only role that counts.
type AuthService struct {
	Users repository.UserRepository

	mu     sync.Mutex
	resets map[string]resetToken

	Now func() time.Time
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{
		Users:  users,
		resets: make(map[string]resetToken),
		Now:    time.Now,
	}
}

// Register creates a customer account. The admin account only ever comes from
// SeedAdmin, so a registration claiming the reserved username is rejected.
func (s *AuthService) Register(ctx context.Context, username, email, password, phone string) (*db.User, error) {
	if strings.EqualFold(username, "admin") {
		return nil, ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := &db.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         db.RoleCustomer,
		Phone:        phone,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Login verifies username and password. Any role submitted with the login form
// is ignored; the caller routes by the role stored with the account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*db.User, error) {
	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == db.RoleAdmin {
		return ErrAdminLocked
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.Users.UpdatePassword(ctx, user.ID, string(hash))
}

// CreateResetToken issues a one-hour reset token for the account behind the
// email. Tokens live in process memory; a restart simply invalidates
// outstanding links.
func (s *AuthService) CreateResetToken(ctx context.Context, email string) (string, *db.User, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user.Role == db.RoleAdmin {
		return "", nil, ErrAdminLocked
	}
	token := uuid.NewString()
	now := s.Now()
	s.mu.Lock()
	for old, entry := range s.resets {
		if now.After(entry.expiresAt) {
			delete(s.resets, old)
		}
	}
	s.resets[token] = resetToken{userID: user.ID, expiresAt: now.Add(resetTokenTTL)}
	s.mu.Unlock()
	return token, user, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	s.mu.Lock()
	entry, ok := s.resets[token]
	if ok {
		delete(s.resets, token)
	}
	s.mu.Unlock()
	if !ok || s.Now().After(entry.expiresAt) {
		return ErrInvalidResetToken
	}

	user, err := s.Users.FindByID(ctx, entry.userID)
	if err != nil {
		return err
	}
	if user.Role == db.RoleAdmin {
		return ErrAdminLocked
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.Users.UpdatePassword(ctx, user.ID, string(hash))
}

// SeedAdmin creates the single admin account if it does not exist yet. The
// credential comes from configuration, and the hash goes through the same
// bcrypt path as every other account.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	_, err := s.Users.FindByUsername(ctx, "admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	admin := &db.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         db.RoleAdmin,
	}
	if err := s.Users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	log.Printf("Admin account created (username=admin, email=%s)", email)
	return nil
}
