// Package defaults persists the small set of per-user strings the storefront
// remembers between sessions: the default contact number, default pickup
// notes and the payment customer id.
package defaults

import (
	"context"
	"errors"
	"sync"
)

// Keys of the persisted values. They are shared with previously installed
// clients, so they must not change.
const (
	KeyContactNumber = "user_default_contact_number"
	KeyNotes         = "user_default_notes"
	KeyCustomerID    = "stripe_customer_id"
)

// ErrNotFound is returned by a Store when the key holds no value.
var ErrNotFound = errors.New("defaults: key not found")

// Store is the port for a durable string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps values in process memory. Used when no durable driver is
// configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type scopedStore struct {
	inner Store
	scope string
}

// Scoped returns a view of store whose keys are prefixed with scope, so one
// durable store can hold the defaults of many devices.
func Scoped(store Store, scope string) Store {
	return scopedStore{inner: store, scope: scope}
}

func (s scopedStore) key(k string) string {
	return s.scope + ":" + k
}

func (s scopedStore) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.key(key))
}

func (s scopedStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.key(key), value)
}

func (s scopedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.key(key))
}
