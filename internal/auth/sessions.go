package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrSessionNotFound = errors.New("session not found")
)

// Sessions implements the legacy single-tenant login backed by admin users.
type Sessions struct {
	repo store.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewSessions(repo store.SessionRepository, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{repo: repo, ttl: ttl, now: time.Now}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CreateUser adds an active admin user.
func (s *Sessions) CreateUser(ctx context.Context, username, password string) (models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.AdminUser{}, errors.New("username and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.AdminUser{}, err
	}
	user := models.AdminUser{Username: username, PasswordHash: hash, IsActive: true}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return models.AdminUser{}, err
	}
	return user, nil
}

// Login verifies the password of an active user and opens a session.
func (s *Sessions) Login(ctx context.Context, username, password string) (models.AdminSession, error) {
	user, err := s.repo.FindActiveUser(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return models.AdminSession{}, ErrBadCredentials
	}
	if err != nil {
		return models.AdminSession{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.AdminSession{}, ErrBadCredentials
	}

	now := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, user.ID, now); err != nil {
		log.Printf("Error updating last login for %s: %v", user.Username, err)
	}

	session := models.AdminSession{
		ID:        uuid.NewString(),
		Username:  user.Username,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, &session); err != nil {
		return models.AdminSession{}, err
	}
	return session, nil
}

func (s *Sessions) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, id)
}

// LookupSession returns the username of a live session. Expired sessions
// are removed.
func (s *Sessions) LookupSession(ctx context.Context, id string) (string, error) {
	session, err := s.repo.FindSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.repo.DeleteSession(ctx, id); err != nil {
			log.Printf("Error removing expired session: %v", err)
		}
		return "", ErrSessionNotFound
	}
	return session.Username, nil
}

func (s *Sessions) TTL() time.Duration {
	return s.ttl
}
