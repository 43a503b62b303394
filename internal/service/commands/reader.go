package commands

import (
	"context"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// Executor runs a closure on the goroutine that owns the state.
type Executor interface {
	Exec(ctx context.Context, fn func()) error
}

// LoopReader gives code outside the event loop read access to the live state
// by running each read inside the loop.
type LoopReader struct {
	exec Executor
	svc  *Service
}

// NewLoopReader returns a reader over svc's state executed on exec.
func NewLoopReader(exec Executor, svc *Service) *LoopReader {
	return &LoopReader{exec: exec, svc: svc}
}

// Read calls fn with the live state. fn must not retain the pointer.
func (r *LoopReader) Read(ctx context.Context, fn func(*models.State)) error {
	return r.exec.Exec(ctx, func() { r.svc.Read(fn) })
}
