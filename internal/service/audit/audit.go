// Package audit maintains the bounded, newest-first log of accepted mutations.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// Recorder appends audit entries to a state.
type Recorder struct {
	limit int
}

// NewRecorder returns a recorder that keeps at most limit entries; a
// non-positive limit means models.MaxLogEntries.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = models.MaxLogEntries
	}
	return &Recorder{limit: limit}
}

// Record prepends an entry describing a command to state.Logs and evicts the
// oldest entries beyond the limit.
func (r *Recorder) Record(state *models.State, at time.Time, commandType string, actor models.Actor, payload any) (models.LogEntry, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return models.LogEntry{}, fmt.Errorf("encode audit payload: %w", err)
		}
		raw = b
	}

	entry := models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: at,
		Type:      commandType,
		Actor:     actor.String(),
		Payload:   raw,
	}
	state.Logs = Prepend(state.Logs, entry, r.limit)
	return entry, nil
}

// Prepend puts v at index 0 of list and truncates the result to limit entries.
// It shifts list in place, so once the list is at its limit no allocation
// happens. The returned slice shares list's backing array.
func Prepend[T any](list []T, v T, limit int) []T {
	if limit < 1 {
		limit = 1
	}
	if len(list) >= limit {
		list = list[:limit-1]
	}
	list = append(list, v)
	copy(list[1:], list[:len(list)-1])
	list[0] = v
	return list
}
