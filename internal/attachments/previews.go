package attachments

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// PreviewStore keeps generated thumbnails on disk, keyed by the owning
// attachment's id. Previews live exactly as long as their attachment:
// replacement, removal and form teardown all delete them here.
type PreviewStore struct {
	rootPath string
	maxDim   int
}

func NewPreviewStore(rootPath string, maxDim int) (*PreviewStore, error) {
	// Use filepath.Clean to prevent path traversal issues like "previews/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory %s: %w", p, err)
	}

	return &PreviewStore{rootPath: p, maxDim: maxDim}, nil
}

// Save decodes the picked image, downscales it to the configured bound and
// writes it as a JPEG thumbnail.
func (s *PreviewStore) Save(id uuid.UUID, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image for preview: %w", err)
	}

	thumb := scaleDown(img, s.maxDim)

	dst, err := os.Create(s.path(id))
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	defer dst.Close()

	if err := jpeg.Encode(dst, thumb, &jpeg.Options{Quality: 80}); err != nil {
		os.Remove(s.path(id)) // Best effort, ignore error here.
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return nil
}

// Open returns the stored preview for reading.
func (s *PreviewStore) Open(id uuid.UUID) (io.ReadCloser, error) {
	file, err := os.Open(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("preview not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open preview: %w", err)
	}
	return file, nil
}

// Delete releases one preview. Already-gone files are not an error.
func (s *PreviewStore) Delete(id uuid.UUID) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete preview: %w", err)
	}
	return nil
}

func (s *PreviewStore) path(id uuid.UUID) string {
	return filepath.Join(s.rootPath, id.String()+".jpg")
}

func scaleDown(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	if w > h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
