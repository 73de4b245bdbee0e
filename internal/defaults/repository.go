package defaults

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Profile is the pair of values the user can save as checkout defaults.
type Profile struct {
	ContactNumber string `json:"contactNumber"`
	Notes         string `json:"notes"`
}

// Repository is the checkout-facing view of a Store. Storage problems never
// block a checkout: reads degrade to "no default" and every failure is logged.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Get returns the value and whether one was found.
func (r *Repository) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.WarnContext(ctx, "defaults: read failed", "key", key, "error", err)
		}
		return "", false
	}
	return v, true
}

func (r *Repository) Set(ctx context.Context, key, value string) error {
	if err := r.store.Set(ctx, key, value); err != nil {
		slog.WarnContext(ctx, "defaults: write failed", "key", key, "error", err)
		return fmt.Errorf("defaults: set %q: %w", key, err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, key string) {
	if err := r.store.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "defaults: delete failed", "key", key, "error", err)
	}
}

func (r *Repository) LoadProfile(ctx context.Context) Profile {
	contact, _ := r.Get(ctx, KeyContactNumber)
	notes, _ := r.Get(ctx, KeyNotes)
	return Profile{ContactNumber: contact, Notes: notes}
}

// SaveProfile stores both values. An empty value removes the stored one.
func (r *Repository) SaveProfile(ctx context.Context, p Profile) error {
	for key, value := range map[string]string{KeyContactNumber: p.ContactNumber, KeyNotes: p.Notes} {
		if value == "" {
			if err := r.store.Delete(ctx, key); err != nil {
				return fmt.Errorf("defaults: delete %q: %w", key, err)
			}
			continue
		}
		if err := r.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ClearProfile(ctx context.Context) error {
	for _, key := range []string{KeyContactNumber, KeyNotes} {
		if err := r.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("defaults: delete %q: %w", key, err)
		}
	}
	return nil
}
