// Package store owns the canonical in-memory state. A Store must only be used
// from the goroutine running the hub loop.
package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// Repository is the backing storage of the state.
type Repository interface {
	Load() (*models.State, error)
	Save(state *models.State) error
}

// Store holds the single State instance and writes it through to the repository.
type Store struct {
	state  *models.State
	repo   Repository
	logger *zap.Logger
}

// Open loads the state from repo.
func Open(repo Repository, logger *zap.Logger) (*Store, error) {
	state, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return New(state, repo, logger), nil
}

// New wraps an already loaded state.
func New(state *models.State, repo Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if state == nil {
		state = models.NewState()
	}
	state.Normalize()
	return &Store{state: state, repo: repo, logger: logger}
}

// State returns the live state.
func (s *Store) State() *models.State { return s.state }

// Persist saves the live state. Failures are reported as persistence errors;
// the in-memory state is kept as is.
func (s *Store) Persist() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(s.state); err != nil {
		s.logger.Error("persist state failed", zap.Error(err))
		return models.PersistenceFailed(err)
	}
	return nil
}
