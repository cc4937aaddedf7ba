// Package session ties one live form instance to one browser session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/facilform-dev/facilform/internal/attachments"
	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/form"
	"github.com/facilform-dev/facilform/internal/geo"
	"github.com/facilform-dev/facilform/internal/logger"
)

// Form is everything one session's creation form owns: the leaf
// components, the error slots and the controller wired over them. It also
// acts as the controller's notification surface and navigator, buffering
// the notice and redirect for the web layer to pick up.
type Form struct {
	Selector   *geo.Selector
	Manager    *attachments.Manager
	Errors     *form.ErrorState
	Controller *form.Controller

	mu       sync.Mutex
	input    form.TextInput
	notice   *domain.Notice
	redirect string
	lastSeen time.Time
}

// SetInput stores the scalar fields as last typed, so the page can be
// re-rendered after an invalid submit.
func (f *Form) SetInput(input form.TextInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = input
}

// Input returns the stored scalar fields.
func (f *Form) Input() form.TextInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

// ResetInput drops the scalar fields after a successful submit.
func (f *Form) ResetInput() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = form.TextInput{}
}

var _ form.Notifier = (*Form)(nil)
var _ form.Navigator = (*Form)(nil)

// Show buffers the modal for the next page render.
func (f *Form) Show(notice domain.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notice = &notice
}

// NavigateTo records where the web layer should redirect to.
func (f *Form) NavigateTo(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirect = path
}

// TakeNotice pops the buffered modal, if any.
func (f *Form) TakeNotice() (domain.Notice, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notice == nil {
		return domain.Notice{}, false
	}
	n := *f.notice
	f.notice = nil
	return n, true
}

// TakeRedirect pops the recorded navigation target, if any.
func (f *Form) TakeRedirect() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redirect == "" {
		return "", false
	}
	p := f.redirect
	f.redirect = ""
	return p, true
}

func (f *Form) touch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeen = time.Now()
}

func (f *Form) expired(ttl time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Since(f.lastSeen) > ttl
}

// Close tears the form down, releasing attachment previews.
func (f *Form) Close() {
	f.Manager.Close()
}

// Factory builds a fresh form instance for a new session.
type Factory func(f *Form) (selector *geo.Selector, manager *attachments.Manager, errState *form.ErrorState, controller *form.Controller)

// Registry maps session ids to their single active form instance and
// evicts idle ones, tearing them down.
type Registry struct {
	mu      sync.Mutex
	forms   map[string]*Form
	ttl     time.Duration
	factory Factory
}

func NewRegistry(ttl time.Duration, factory Factory) *Registry {
	return &Registry{
		forms:   make(map[string]*Form),
		ttl:     ttl,
		factory: factory,
	}
}

// Get returns the session's form, creating it on first use.
func (r *Registry) Get(sid string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.forms[sid]
	if !ok {
		f = &Form{}
		f.Selector, f.Manager, f.Errors, f.Controller = r.factory(f)
		r.forms[sid] = f
	}
	f.touch()
	return f
}

// StartEviction tears down forms idle longer than the TTL. Stops when ctx
// is cancelled.
func (r *Registry) StartEviction(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.evict()
			}
		}
	}()
}

func (r *Registry) evict() {
	r.mu.Lock()
	var expired []*Form
	for sid, f := range r.forms {
		if f.expired(r.ttl) {
			delete(r.forms, sid)
			expired = append(expired, f)
		}
	}
	r.mu.Unlock()

	for _, f := range expired {
		f.Close()
	}
	if len(expired) > 0 {
		logger.Log.Debug("evicted idle form sessions", "count", len(expired))
	}
}
