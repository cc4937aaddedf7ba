package geo

import (
	"context"
	"sync"

	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/logger"
)

type PermissionState int

const (
	PermissionPrompt PermissionState = iota
	PermissionGranted
	PermissionDenied
)

// PermissionService is the device permission collaborator: a one-shot
// state query plus a stream of permission-change notifications.
type PermissionService interface {
	Query(ctx context.Context) (PermissionState, error)
	Changes(ctx context.Context) <-chan PermissionState
}

// PositionService performs a one-shot device position request.
type PositionService interface {
	Current(ctx context.Context) (domain.Coordinates, error)
}

// Probe acquires the initial map center once, gated on device permission.
// There is no retry and no polling: a failed acquisition leaves the center
// unset and the map is not rendered. The only second chance is a
// permission change to "granted" while the center is still unset, in which
// case the one-shot request runs again.
type Probe struct {
	permissions PermissionService
	positions   PositionService

	mu     sync.Mutex
	center domain.Coordinates
	ok     bool
}

func NewProbe(permissions PermissionService, positions PositionService) *Probe {
	return &Probe{permissions: permissions, positions: positions}
}

// Run performs the permission query and, if grantable, the one-shot
// position request. It also starts watching permission changes; the watch
// stops when ctx is cancelled.
func (p *Probe) Run(ctx context.Context) {
	state, err := p.permissions.Query(ctx)
	if err != nil {
		logger.Log.Warn("permission query failed", "err", err)
	} else if state != PermissionDenied {
		p.acquire(ctx)
	}

	go p.watch(ctx)
}

// Center reports the acquired map center. ok is false until a position
// request has succeeded.
func (p *Probe) Center() (domain.Coordinates, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.center, p.ok
}

func (p *Probe) acquire(ctx context.Context) {
	pos, err := p.positions.Current(ctx)
	if err != nil {
		logger.Log.Warn("position request failed, map center stays unset", "err", err)
		return
	}

	p.mu.Lock()
	p.center = pos
	p.ok = true
	p.mu.Unlock()
	logger.Log.Debug("map center acquired", "lat", pos.Lat, "lng", pos.Lng)
}

func (p *Probe) watch(ctx context.Context) {
	changes := p.permissions.Changes(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case state, open := <-changes:
			if !open {
				return
			}
			if state != PermissionGranted {
				continue
			}
			// Regrant only matters while the center is still unset.
			if _, ok := p.Center(); !ok {
				p.acquire(ctx)
			}
		}
	}
}
