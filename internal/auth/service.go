// Package auth registers users, issues opaque session tokens and verifies
// them.
//
// Tokens are 32 random bytes, base64url encoded. Only their SHA-256 is
// stored. A user holds one session at a time; logging in again replaces it.
// Sessions slide: a verification in the last third of the TTL pushes the
// expiry out by a full TTL.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/ports"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultBcryptCost = 12

	minPasswordLength = 8
	maxPasswordLength = 128
)

var (
	// ErrInvalidToken is returned for unknown, expired or malformed tokens.
	ErrInvalidToken = fmt.Errorf("invalid or expired token: %w", core.ErrUnauthenticated)
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", core.ErrUnauthenticated)
)

// Store is the persistence the service needs.
type Store interface {
	ports.UserStore
	ports.SessionStore
}

type Config struct {
	SessionTTL time.Duration
	BcryptCost int
	CacheSize  int
	CacheTTL   time.Duration
}

// Session is what Login and Register hand back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

type Service struct {
	store  Store
	cfg    Config
	cache  *cache.LRUCache[Identity]
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
	// epoch changes whenever a session is replaced or removed. A Verify that
	// straddles a change does not cache its result.
	epoch uint64
	// cached maps a user id to the token hash held in cache for that user.
	cached map[string]string
}

func NewService(store Store, cfg Config, logger *log.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		cache:  cache.NewLRUCache[Identity](cfg.CacheSize, cfg.CacheTTL),
		logger: logger.WithComponent(log.ComponentAuth),
		now:    func() time.Time { return time.Now().UTC() },
		cached: make(map[string]string),
	}
}

// Cache exposes the verification cache so it can be registered for cleanup.
func (s *Service) Cache() *cache.LRUCache[Identity] { return s.cache }

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", core.Invalid("email is required")
	}
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address == "" || parsed.Address != trimmed {
		return "", core.Invalid("invalid email address")
	}
	return parsed.Address, nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return core.Invalid("password is required")
	}
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return core.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if n > maxPasswordLength {
		return core.Invalid(fmt.Sprintf("password must be %d characters or fewer", maxPasswordLength))
	}
	return nil
}

// CreateUser stores a new user without opening a session.
func (s *Service) CreateUser(ctx context.Context, email, password string) (Identity, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return Identity{}, err
	}
	if err := validatePassword(password); err != nil {
		return Identity{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.store.CreateUser(ctx, core.User{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return Identity{}, err
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldOwnerID, id)
	return Identity{UID: id, Email: email}, nil
}

// Register creates the user and logs them in.
func (s *Service) Register(ctx context.Context, email, password string) (Session, error) {
	id, err := s.CreateUser(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issue(ctx, id)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil || strings.TrimSpace(password) == "" {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Login rejected", log.FieldOwnerID, u.ID)
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, Identity{UID: u.ID, Email: u.Email})
}

func (s *Service) issue(ctx context.Context, id Identity) (Session, error) {
	token, hash, err := generateToken()
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}
	expiresAt := s.now().Add(s.cfg.SessionTTL)
	err = s.store.ReplaceSession(ctx, core.Session{TokenHash: hash, UserID: id.UID, ExpiresAt: expiresAt})
	s.forgetUser(id.UID)
	if err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt, Identity: id}, nil
}

// Logout deletes the session behind token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	hash := HashToken(token)
	err := s.store.DeleteSession(ctx, hash)
	s.forgetToken(hash)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Verify resolves token to the identity of its owner.
func (s *Service) Verify(ctx context.Context, token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, ErrInvalidToken
	}
	hash := HashToken(token)
	if id, ok := s.cache.Get(hash); ok {
		return id, nil
	}
	epoch := s.currentEpoch()

	sess, err := s.store.GetSession(ctx, hash)
	if errors.Is(err, core.ErrNotFound) {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup session: %w", err)
	}

	now := s.now()
	if !now.Before(sess.ExpiresAt) {
		if err := s.store.DeleteSession(ctx, hash); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete expired session", log.FieldError, err)
		}
		return Identity{}, ErrInvalidToken
	}

	if sess.ExpiresAt.Sub(now) < s.cfg.SessionTTL/3 {
		newExpiry := now.Add(s.cfg.SessionTTL)
		if err := s.store.ExtendSession(ctx, hash, newExpiry); err != nil {
			s.logger.WarnContext(ctx, "Session refresh failed", log.FieldError, err)
		} else {
			sess.ExpiresAt = newExpiry
		}
	}

	u, err := s.store.GetUser(ctx, sess.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup user: %w", err)
	}

	id := Identity{UID: u.ID, Email: u.Email}
	s.remember(hash, id, sess.ExpiresAt, epoch)
	return id, nil
}

func (s *Service) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// remember caches id under hash unless a session changed since epoch.
func (s *Service) remember(hash string, id Identity, until time.Time, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	if old, ok := s.cached[id.UID]; ok && old != hash {
		s.cache.Delete(old)
	}
	s.cached[id.UID] = hash
	s.cache.SetUntil(hash, id, until)
}

// forgetUser evicts the cached token of uid after its session was replaced.
func (s *Service) forgetUser(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if hash, ok := s.cached[uid]; ok {
		s.cache.Delete(hash)
		delete(s.cached, uid)
	}
}

func (s *Service) forgetToken(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if id, ok := s.cache.Get(hash); ok && s.cached[id.UID] == hash {
		delete(s.cached, id.UID)
	}
	s.cache.Delete(hash)
}

func generateToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

// HashToken returns the hex SHA-256 of a raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
