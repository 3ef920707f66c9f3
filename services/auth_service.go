package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL - время жизни админской сессии.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore хранит выданные сессии: id -> время истечения.
type SessionStore interface {
	Put(id string, expiresAt time.Time)
	Get(id string) (time.Time, bool)
	Delete(id string)
	Prune(now time.Time) int
}

// MemorySessionStore держит сессии в памяти процесса; после рестарта они теряются.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time)}
}

func (m *MemorySessionStore) Put(id string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = expiresAt
}

func (m *MemorySessionStore) Get(id string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.sessions[id]
	return exp, ok
}

func (m *MemorySessionStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *MemorySessionStore) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, exp := range m.sessions {
		if now.After(exp) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

type Session struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthService interface {
	Login(ctx context.Context, password string) (*Session, error)
	Logout(ctx context.Context, sessionID string)
	Validate(ctx context.Context, sessionID string) error
}

type authService struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	store        SessionStore
	clock        Clock
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// NewAuthService принимает пароль администратора открытым текстом или как bcrypt-хеш.
func NewAuthService(adminPassword, secret string, ttl time.Duration, store SessionStore, clock Clock) (AuthService, error) {
	if adminPassword == "" {
		return nil, errors.New("admin password is not configured")
	}
	if secret == "" {
		return nil, errors.New("session secret is not configured")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	hash := []byte(adminPassword)
	if !isBcryptHash(adminPassword) {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	return &authService{
		passwordHash: hash,
		secret:       []byte(secret),
		ttl:          ttl,
		store:        store,
		clock:        clockOrDefault(clock),
	}, nil
}

func (s *authService) Login(_ context.Context, password string) (*Session, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	now := s.clock()
	s.store.Prune(now)

	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	s.store.Put(claims.ID, expiresAt)
	return &Session{SessionID: token, ExpiresAt: expiresAt}, nil
}

// parse проверяет подпись и возвращает jti. Срок жизни проверяется по хранилищу сессий.
func (s *authService) parse(sessionID string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(sessionID, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || claims.ID == "" {
		return "", ErrUnauthorized
	}
	return claims.ID, nil
}

func (s *authService) Logout(_ context.Context, sessionID string) {
	if id, err := s.parse(sessionID); err == nil {
		s.store.Delete(id)
	}
}

func (s *authService) Validate(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrUnauthorized
	}
	id, err := s.parse(sessionID)
	if err != nil {
		return err
	}
	expiresAt, ok := s.store.Get(id)
	if !ok {
		return ErrUnauthorized
	}
	if s.clock().After(expiresAt) {
		s.store.Delete(id)
		return ErrUnauthorized
	}
	return nil
}
