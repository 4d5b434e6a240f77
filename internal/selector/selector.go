// Package selector holds the active sports-data provider.
//
// Every successful switch bumps a generation counter. Work started under one
// generation can check IsCurrent before publishing its result, so a slow
// response from the previous provider never overwrites a newer one.
package selector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/sportsapi"
	"github.com/rewired-gh/bettips/internal/storage"
)

// Store persists the selection.
type Store interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Selector is the owned provider switch.
type Selector struct {
	store      Store
	active     models.Provider
	generation uint64
	mu         sync.RWMutex
}

// New loads the persisted provider from store, falling back to def when nothing
// valid is stored. store may be nil for an in-memory selector.
func New(ctx context.Context, store Store, def models.Provider) (*Selector, error) {
	if !def.Valid() {
		return nil, unsupported(string(def))
	}

	s := &Selector{store: store, active: def}
	if store == nil {
		return s, nil
	}

	saved, err := store.GetSetting(ctx, storage.KeyActiveProvider)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		logger.Warn("Failed to read saved provider, using %s: %v", def, err)
	default:
		p, perr := models.ParseProvider(saved)
		if perr != nil {
			logger.Warn("Ignoring saved provider %q: %v", saved, perr)
		} else {
			s.active = p
		}
	}
	return s, nil
}

// Active returns the current provider.
func (s *Selector) Active() models.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Snapshot returns the current provider and generation together.
func (s *Selector) Snapshot() (models.Provider, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.generation
}

// Generation returns the number of successful switches so far.
func (s *Selector) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// IsCurrent reports whether gen is still the latest generation.
func (s *Selector) IsCurrent(gen uint64) bool {
	return s.Generation() == gen
}

// Available returns the supported providers.
func (s *Selector) Available() []models.Provider {
	return models.AllProviders()
}

// Set switches to name and persists it. Unknown names fail with an
// UnsupportedProvider error and leave the current provider unchanged.
// In-flight work is not migrated; callers re-fetch.
func (s *Selector) Set(ctx context.Context, name string) error {
	p, err := models.ParseProvider(name)
	if err != nil {
		return unsupported(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SetSetting(ctx, storage.KeyActiveProvider, string(p)); err != nil {
			return fmt.Errorf("failed to persist provider: %w", err)
		}
	}
	s.active = p
	s.generation++
	logger.Info("Sports API provider changed to: %s", p)
	return nil
}

func unsupported(name string) error {
	return &sportsapi.Error{
		Kind:     sportsapi.KindUnsupportedProvider,
		Op:       "set provider",
		Provider: name,
		Err:      fmt.Errorf("provider %q is not supported", name),
	}
}
