// Package attachments owns the ordered gallery of picked images and their
// previews for one form instance.
package attachments

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/facilform-dev/facilform/internal/domain"
	"github.com/facilform-dev/facilform/internal/logger"
	"github.com/google/uuid"
)

var (
	// ErrInvalidMimeType is returned when a picked file has a disallowed MIME type
	ErrInvalidMimeType = errors.New("invalid MIME type")
	// ErrFileTooLarge is returned when a picked file exceeds the size limit
	ErrFileTooLarge = errors.New("file too large")
)

// PickedFile is one file as it arrives from the picker.
type PickedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Manager tracks the gallery for a single form. A new pick replaces the
// whole gallery (not additive across repeated picks); removal and preview
// lookup key on the attachment id.
type Manager struct {
	previews     *PreviewStore
	allowedMimes map[string]bool
	maxFileSize  int64

	mu      sync.Mutex
	gallery []*domain.Attachment
}

func NewManager(previews *PreviewStore, allowedMimes []string, maxFileSize int64) *Manager {
	allowed := make(map[string]bool, len(allowedMimes))
	for _, m := range allowedMimes {
		allowed[m] = true
	}
	return &Manager{
		previews:     previews,
		allowedMimes: allowed,
		maxFileSize:  maxFileSize,
	}
}

// AddMany validates the picked set and replaces the current gallery with
// it, releasing the previews of everything it displaces. On validation
// failure the existing gallery is left untouched.
func (m *Manager) AddMany(files []PickedFile) ([]*domain.Attachment, error) {
	fresh := make([]*domain.Attachment, 0, len(files))
	for _, f := range files {
		att, err := m.intake(f)
		if err != nil {
			// Drop previews already generated for this failed pick.
			for _, a := range fresh {
				m.previews.Delete(a.ID)
			}
			return nil, err
		}
		fresh = append(fresh, att)
	}

	m.mu.Lock()
	old := m.gallery
	m.gallery = fresh
	m.mu.Unlock()

	for _, a := range old {
		if err := m.previews.Delete(a.ID); err != nil {
			logger.Log.Warn("failed to release preview", "id", a.ID, "err", err)
		}
	}
	return fresh, nil
}

// Remove deletes one attachment by id and releases its preview. Removing
// an id that is not in the gallery is a no-op.
func (m *Manager) Remove(id uuid.UUID) bool {
	m.mu.Lock()
	idx := -1
	for i, a := range m.gallery {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	m.gallery = append(m.gallery[:idx], m.gallery[idx+1:]...)
	m.mu.Unlock()

	if err := m.previews.Delete(id); err != nil {
		logger.Log.Warn("failed to release preview", "id", id, "err", err)
	}
	return true
}

// List returns the gallery in pick order.
func (m *Manager) List() []*domain.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Attachment, len(m.gallery))
	copy(out, m.gallery)
	return out
}

// Close empties the gallery and releases every preview. Used on form
// teardown and after a successful submit.
func (m *Manager) Close() {
	m.mu.Lock()
	old := m.gallery
	m.gallery = nil
	m.mu.Unlock()

	for _, a := range old {
		if err := m.previews.Delete(a.ID); err != nil {
			logger.Log.Warn("failed to release preview", "id", a.ID, "err", err)
		}
	}
}

func (m *Manager) intake(f PickedFile) (*domain.Attachment, error) {
	if m.maxFileSize > 0 && int64(len(f.Data)) > m.maxFileSize {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, f.Name, len(f.Data))
	}

	mimeType, err := detectMimeType(f)
	if err != nil {
		return nil, err
	}
	if !m.allowedMimes[mimeType] {
		return nil, fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, mimeType, f.Name)
	}

	att := &domain.Attachment{
		ID:        uuid.New(),
		Filename:  f.Name,
		SizeBytes: int64(len(f.Data)),
		MimeType:  mimeType,
		Data:      f.Data,
	}

	if err := m.previews.Save(att.ID, f.Data); err != nil {
		return nil, fmt.Errorf("failed to generate preview for %s: %w", f.Name, err)
	}
	return att, nil
}

func detectMimeType(f PickedFile) (string, error) {
	mimeType := f.ContentType

	// If no Content-Type or it's generic, sniff the content, then fall
	// back to the extension.
	if mimeType == "" || mimeType == "application/octet-stream" {
		if sniffed := http.DetectContentType(f.Data); sniffed != "application/octet-stream" {
			mimeType = sniffed
		} else if detected := mime.TypeByExtension(filepath.Ext(f.Name)); detected != "" {
			mimeType = detected
		}
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		return "", fmt.Errorf("could not detect MIME type for file: %s", f.Name)
	}
	return mimeType, nil
}
