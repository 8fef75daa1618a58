// Package credential keeps the signed-in account on the local machine.
package credential

import (
	"context"
	"errors"
	"sync"
)

// Service keys under which the account fields are stored.
const (
	ServiceToken    = "subtitle-study.api_token"
	ServiceUsername = "subtitle-study.username"
	ServiceEmail    = "subtitle-study.email"
	ServicePassword = "subtitle-study.password"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("credential not found")

// Store is a small key-value credential store.
type Store interface {
	Save(token, username, email, password string) error
	Load(service string) (string, error)
	DeleteAll() error
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Save(token, username, email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range fields(token, username, email, password) {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryStore) Load(service string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[service]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) DeleteAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

func fields(token, username, email, password string) map[string]string {
	return map[string]string{
		ServiceToken:    token,
		ServiceUsername: username,
		ServiceEmail:    email,
		ServicePassword: password,
	}
}

// TokenProvider exposes the stored api token as a bearer credential.
// A missing token yields an empty bearer; the backend answers 401.
type TokenProvider struct {
	Store Store
}

func (p TokenProvider) Token(ctx context.Context) (string, error) {
	token, err := p.Store.Load(ServiceToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}
