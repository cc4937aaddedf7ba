package form

import (
	"sync"

	"github.com/facilform-dev/facilform/internal/domain"
)

// ErrorState holds one independent error slot per schema field. The slot
// array is indexed by domain.Field, so a slot exists for every field of
// the closed set and for nothing else.
type ErrorState struct {
	mu    sync.Mutex
	slots [len(domain.Fields)]string
}

func NewErrorState() *ErrorState {
	return &ErrorState{}
}

// Clear empties every slot. Runs at the start of each submit attempt.
func (s *ErrorState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		s.slots[i] = ""
	}
}

// Fill writes each validation error into its field's slot.
func (s *ErrorState) Fill(errs []domain.ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range errs {
		s.slots[e.Field] = e.Message
	}
}

// Get returns the message for one field, empty when the slot is clear.
func (s *ErrorState) Get(field domain.Field) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[field]
}

// Any reports whether any slot is occupied.
func (s *ErrorState) Any() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.slots {
		if m != "" {
			return true
		}
	}
	return false
}

// Snapshot returns the occupied slots keyed by field name, for rendering.
func (s *ErrorState) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string)
	for _, f := range domain.Fields {
		if m := s.slots[f]; m != "" {
			out[f.String()] = m
		}
	}
	return out
}
