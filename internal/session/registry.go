// Package session keeps one storefront session (cart, checkout form, pending
// payment prompt) per device.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/storefront/internal/cart"
	"github.com/jcmexdev/storefront/internal/checkout"
	"github.com/jcmexdev/storefront/internal/checkout/attemptlog"
	"github.com/jcmexdev/storefront/internal/defaults"
	"github.com/jcmexdev/storefront/internal/payment"
)

type Session struct {
	DeviceID string
	Cart     *cart.Store
	Checkout *checkout.Orchestrator
	Relay    *payment.Relay
	Defaults *defaults.Repository

	// guarded by Registry.mu
	lastUsed time.Time
}

type Config struct {
	Backend checkout.Backend
	// Store is shared by all devices; each session sees its own scope.
	Store      defaults.Store
	AttemptLog attemptlog.Repository
	Clock      func() time.Time
	// IdleTTL is how long an unused session is kept. Zero keeps sessions
	// until Drop.
	IdleTTL time.Duration
}

type Registry struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Registry{cfg: cfg, sessions: make(map[string]*Session)}
}

// Get returns the device's session, creating it on first use. A new session
// starts with the saved defaults already copied into the checkout form.
func (r *Registry) Get(ctx context.Context, deviceID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[deviceID]; ok {
		s.lastUsed = r.cfg.Clock()
		return s
	}

	s := r.newSession(deviceID)
	s.lastUsed = r.cfg.Clock()
	s.Checkout.LoadDefaults(ctx)
	r.sessions[deviceID] = s

	slog.InfoContext(ctx, "session created", "device_id", deviceID)
	return s
}

// Drop forgets the device's session. An attempt already running keeps its
// own references and finishes.
func (r *Registry) Drop(deviceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[deviceID]
	delete(r.sessions, deviceID)
	return ok
}

// Sweep drops sessions unused for longer than IdleTTL. A session with an
// attempt in progress is kept. It returns how many sessions were dropped.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.cfg.Clock().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, s := range r.sessions {
		if s.lastUsed.After(cutoff) || s.Checkout.Processing() {
			continue
		}
		delete(r.sessions, id)
		dropped++
	}
	if dropped > 0 {
		slog.InfoContext(ctx, "idle sessions dropped", "count", dropped, "remaining", len(r.sessions))
	}
	return dropped
}

// SweepEvery calls Sweep on every tick until ctx ends.
func (r *Registry) SweepEvery(ctx context.Context, interval time.Duration) {
	if r.cfg.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) newSession(deviceID string) *Session {
	c := cart.NewStore()
	relay := payment.NewRelay()
	repo := defaults.NewRepository(defaults.Scoped(r.cfg.Store, deviceID))

	return &Session{
		DeviceID: deviceID,
		Cart:     c,
		Relay:    relay,
		Defaults: repo,
		Checkout: checkout.New(checkout.Config{
			Cart:       c,
			Defaults:   repo,
			Backend:    r.cfg.Backend,
			Payments:   relay,
			Cash:       relay,
			AttemptLog: r.cfg.AttemptLog,
			Clock:      r.cfg.Clock,
		}),
	}
}
