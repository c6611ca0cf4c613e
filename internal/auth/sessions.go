package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"finintel/internal/logging"
	"finintel/internal/types"
)

// DefaultSessionTTL is how long an idle session survives.
const DefaultSessionTTL = 12 * time.Hour

// Sessions is the in-memory session table.
type Sessions struct {
	cache *cache.Cache
}

// NewSessions creates a session table whose entries expire after ttl.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{cache: cache.New(ttl, 10*time.Minute)}
}

// Open creates a session for username.
func (s *Sessions) Open(username string) *types.UserSession {
	sess := &types.UserSession{
		Token:       uuid.NewString(),
		Username:    username,
		LastLogin:   time.Now(),
		AccessLevel: types.AccessLevelInstitutional,
	}
	s.cache.Set(sess.Token, sess, cache.DefaultExpiration)
	logging.Auth("Session opened for %s", username)
	return sess
}

// Get returns a live session by token.
func (s *Sessions) Get(token string) (*types.UserSession, bool) {
	if x, found := s.cache.Get(token); found {
		return x.(*types.UserSession), true
	}
	return nil, false
}

// Close destroys a session.
func (s *Sessions) Close(token string) {
	s.cache.Delete(token)
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}

// Service combines the registry with the session table.
type Service struct {
	Registry *Registry
	Sessions *Sessions
}

// NewService wires a registry and a session table.
func NewService(r *Registry, s *Sessions) *Service {
	return &Service{Registry: r, Sessions: s}
}

// Login verifies credentials and opens a session.
func (svc *Service) Login(username, password string) (*types.UserSession, error) {
	if err := svc.Registry.Verify(username, password); err != nil {
		return nil, err
	}
	return svc.Sessions.Open(username), nil
}

// Logout destroys the session.
func (svc *Service) Logout(sess *types.UserSession) {
	if sess == nil {
		return
	}
	svc.Sessions.Close(sess.Token)
	logging.Auth("Session closed for %s", sess.Username)
}
