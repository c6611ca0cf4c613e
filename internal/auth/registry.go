// Package auth registers terminal operators and opens in-memory sessions.
//
// Credentials are stored as bcrypt hashes. Sessions live only in process
// memory and are destroyed on logout or expiry.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"finintel/internal/apperr"
	"finintel/internal/logging"
	"finintel/internal/store"
)

const (
	// UsersKey holds the username -> credential map.
	UsersKey = "finintel_users"
	// LastUsernameKey remembers the most recent successful login.
	LastUsernameKey = "finintel_username"

	usersVersion = 1

	MinUsernameLen = 3
	MinPasswordLen = 6
)

// User-facing messages, shared with the terminal UI.
const (
	MsgUsernameTooShort  = "Username must be at least 3 characters."
	MsgPasswordTooShort  = "Security password must be at least 6 characters."
	MsgPasswordMismatch  = "Password confirmation mismatch."
	MsgUsernameTaken     = "Username already registered in terminal."
	MsgInvalidCredential = "Invalid credentials. Terminal access denied."
)

type userRecord struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type usersEnvelope struct {
	Version int                   `json:"version"`
	Users   map[string]userRecord `json:"users"`
}

// Registry stores hashed operator credentials in a KV.
type Registry struct {
	kv   store.KV
	mu   sync.Mutex
	cost int
}

// NewRegistry creates a registry over kv using bcrypt.DefaultCost.
func NewRegistry(kv store.KV) *Registry {
	return &Registry{kv: kv, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (r *Registry) WithCost(cost int) *Registry {
	r.cost = cost
	return r
}

func (r *Registry) load() (map[string]userRecord, error) {
	raw, err := r.kv.Get(UsersKey)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]userRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var env usersEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	if env.Version != usersVersion {
		return nil, fmt.Errorf("unsupported users version %d", env.Version)
	}
	if env.Users == nil {
		env.Users = map[string]userRecord{}
	}
	return env.Users, nil
}

func (r *Registry) save(users map[string]userRecord) error {
	data, err := json.Marshal(usersEnvelope{Version: usersVersion, Users: users})
	if err != nil {
		return err
	}
	return r.kv.Put(UsersKey, data)
}

// HasUsers reports whether any operator is registered.
func (r *Registry) HasUsers() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load()
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

// Register validates and stores a new operator.
func (r *Registry) Register(username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLen {
		return apperr.Validation(MsgUsernameTooShort)
	}
	if len(password) < MinPasswordLen {
		return apperr.Validation(MsgPasswordTooShort)
	}
	if password != confirm {
		return apperr.Validation(MsgPasswordMismatch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return apperr.Validation(MsgUsernameTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	users[username] = userRecord{Username: username, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	if err := r.save(users); err != nil {
		return err
	}
	logging.Auth("Operator registered: %s", username)
	return nil
}

// Verify checks the credentials and records the username on success.
func (r *Registry) Verify(username, password string) error {
	username = strings.TrimSpace(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	rec, ok := users[username]
	if !ok {
		logging.AuthWarn("Login rejected for unknown operator %s", username)
		return apperr.Auth(MsgInvalidCredential, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		logging.AuthWarn("Login rejected for %s", username)
		return apperr.Auth(MsgInvalidCredential, nil)
	}
	if err := r.kv.Put(LastUsernameKey, []byte(username)); err != nil {
		return err
	}
	return nil
}

// LastUsername returns the most recent successful login, if any.
func (r *Registry) LastUsername() string {
	raw, err := r.kv.Get(LastUsernameKey)
	if err != nil {
		return ""
	}
	return string(raw)
}

// ForgetLastUsername drops the remembered login.
func (r *Registry) ForgetLastUsername() error {
	return r.kv.Delete(LastUsernameKey)
}
