package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cms"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type Authenticator interface {
	Login(ctx context.Context, in cms.LoginRequest) (cms.Record, error)
	Register(ctx context.Context, in cms.RegisterRequest) (cms.Record, error)
}

// Manager holds one client's CMS credential and keeps it persisted.
type Manager struct {
	auth    Authenticator
	storage storage.Store
	key     string
	log     zerolog.Logger
	now     func() time.Time

	writeMu sync.Mutex
	mu      sync.RWMutex
	current domain.Session
}

func NewManager(auth Authenticator, st storage.Store, clientID string, log zerolog.Logger) *Manager {
	return &Manager{
		auth:    auth,
		storage: st,
		key:     storage.SessionKey(clientID),
		log:     log,
		now:     time.Now,
	}
}

// Restore loads the persisted session. Anything unusable, including a
// half-set pair or an expired token, restores as signed out.
func (m *Manager) Restore(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	data, err := m.storage.Get(ctx, m.key)
	if errors.Is(err, storage.ErrNotFound) {
		m.set(domain.Session{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		m.log.Warn().Err(&storage.CorruptionError{Key: m.key, Err: err}).Msg("discarding unreadable session snapshot")
		m.set(domain.Session{})
		return nil
	}
	if !s.Consistent() {
		m.log.Warn().Str("key", m.key).Msg("discarding half-set session snapshot")
		m.set(domain.Session{})
		return nil
	}
	if s.Authenticated() && m.expired(s.Token) {
		m.log.Info().Str("key", m.key).Msg("persisted session token expired")
		m.set(domain.Session{})
		return nil
	}
	m.set(s)
	return nil
}

// expired reads the exp claim without verifying the signature. Tokens that
// are not JWTs or carry no exp never expire here.
func (m *Manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(m.now())
}

func (m *Manager) Login(ctx context.Context, identifier, password string) (domain.Session, error) {
	if err := check(loginInput{Identifier: identifier, Password: password}); err != nil {
		return domain.Session{}, err
	}
	doc, err := m.auth.Login(ctx, cms.LoginRequest{Identifier: identifier, Password: password})
	return m.accept(ctx, "login", doc, err)
}

func (m *Manager) Register(ctx context.Context, username, email, password string) (domain.Session, error) {
	if err := check(registerInput{Username: username, Email: email, Password: password}); err != nil {
		return domain.Session{}, err
	}
	doc, err := m.auth.Register(ctx, cms.RegisterRequest{Username: username, Email: email, Password: password})
	return m.accept(ctx, "register", doc, err)
}

func (m *Manager) accept(ctx context.Context, op string, doc cms.Record, err error) (domain.Session, error) {
	if err != nil {
		m.log.Warn().Err(err).Str("op", op).Msg("auth request failed")
		return domain.Session{}, &AuthenticationError{Message: NetworkMessage, Err: err}
	}

	token, hasToken := cms.String(doc["jwt"])
	rawUser, hasUser := cms.Object(doc["user"])
	if !hasToken || !hasUser {
		return domain.Session{}, &AuthenticationError{Message: authMessage(doc)}
	}

	next := domain.Session{Token: token, User: userFrom(rawUser)}
	if err := m.commit(ctx, next); err != nil {
		return domain.Session{}, err
	}
	m.log.Info().Str("op", op).Int64("user_id", next.User.ID).Msg("signed in")
	return m.Current(), nil
}

// authMessage picks the first message the CMS supplied across the error
// shapes it has used over time.
func authMessage(doc cms.Record) string {
	candidates := []any{
		cms.Path(doc, "error", "message"),
		cms.Path(doc, "error", "details", "errors", "message"),
		cms.Path(doc, "message"),
		cms.Path(doc, "data", "messages", "message"),
	}
	for _, c := range candidates {
		if msg, ok := cms.String(c); ok {
			return msg
		}
	}
	return DefaultAuthMessage
}

func userFrom(r cms.Record) *domain.User {
	u := &domain.User{}
	u.ID, _ = cms.Int(r["id"])
	u.Username, _ = cms.String(r["username"])
	u.Email, _ = cms.String(r["email"])
	return u
}

// Logout always signs out locally; a failed write is only logged.
func (m *Manager) Logout(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.set(domain.Session{})
	if err := m.storage.Delete(ctx, m.key); err != nil {
		m.log.Error().Err(err).Msg("failed to persist signed-out session")
	}
}

func (m *Manager) commit(ctx context.Context, next domain.Session) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.storage.Set(ctx, m.key, data); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	m.set(next)
	return nil
}

func (m *Manager) set(s domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

// Current returns a copy of the session.
func (m *Manager) Current() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.current
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}
