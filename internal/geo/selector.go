package geo

import (
	"sync"

	"github.com/facilform-dev/facilform/internal/domain"
)

// Selector is the single authoritative holder of the map-click selection.
// Every click fully replaces the previous pair; nothing accumulates. The
// zero pair doubles as "unset", so a click exactly on the origin is an
// accepted approximation of no selection.
type Selector struct {
	mu       sync.Mutex
	location domain.Coordinates
}

func NewSelector() *Selector {
	return &Selector{}
}

// Select stores the most recent map click, replacing any prior selection.
func (s *Selector) Select(lat, lng float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = domain.Coordinates{Lat: lat, Lng: lng}
}

// Location returns the current selection. The zero value means no point
// has been picked yet.
func (s *Selector) Location() domain.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Reset drops the selection, used when a submitted draft is discarded.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = domain.Coordinates{}
}
