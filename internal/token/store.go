// Package token owns the bearer token: where it is kept and when it expires.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	zkr "github.com/zalando/go-keyring"
)

// Key is the fixed name the bearer token is persisted under.
const Key = "auth_token"

// Store exposes get/set/clear for the bearer token.
type Store interface {
	Token() string
	SetToken(token string) error
	ClearToken() error
}

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearToken() error {
	return s.SetToken("")
}

// KeyringStore persists the token in the OS keychain and caches it in memory.
type KeyringStore struct {
	service string
	cache   MemoryStore
	loaded  bool
	log     *logrus.Entry
}

// NewKeyringStore returns a store writing to the keychain entry service/Key.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{
		service: service,
		log:     logrus.WithField("component", "token"),
	}
}

// Token returns the cached token, reading the keychain on first use.
func (s *KeyringStore) Token() string {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	if s.loaded {
		return s.cache.token
	}

	token, err := zkr.Get(s.service, Key)
	switch {
	case err == nil:
		s.cache.token = token
	case errors.Is(err, zkr.ErrNotFound):
		s.cache.token = ""
	default:
		s.log.WithError(err).Warn("keychain read failed")
		return ""
	}
	s.loaded = true
	return s.cache.token
}

func (s *KeyringStore) SetToken(token string) error {
	if token == "" {
		return s.ClearToken()
	}
	if err := zkr.Set(s.service, Key, token); err != nil {
		return fmt.Errorf("keychain set: %w", err)
	}
	s.cache.mu.Lock()
	s.cache.token, s.loaded = token, true
	s.cache.mu.Unlock()
	return nil
}

// ClearToken forgets the token locally even when the keychain delete fails.
func (s *KeyringStore) ClearToken() error {
	s.cache.mu.Lock()
	s.cache.token, s.loaded = "", true
	s.cache.mu.Unlock()

	if err := zkr.Delete(s.service, Key); err != nil && !errors.Is(err, zkr.ErrNotFound) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// KeyringAvailable probes the keychain with a write/read/delete cycle.
func KeyringAvailable(service string) bool {
	probe := service + "-probe"
	if err := zkr.Set(probe, "probe", "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(probe, "probe")
	return true
}
