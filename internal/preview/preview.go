package preview

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/workers"

	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultSize is the edge length thumbnails are fitted into.
const DefaultSize = 200

// MaxConcurrentRenders caps the renders a Generator runs at once.
const MaxConcurrentRenders = 4

// ErrUnsupported is returned for payloads that are not PNG or WEBP images.
var ErrUnsupported = errors.New("unsupported preview format")

// DetectFormat returns "png", "webp" or "unknown" from the leading bytes of
// an extracted payload.
func DetectFormat(data []byte) string {
	switch {
	case len(data) >= 8 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "png"

	case len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50:
		return "webp"
	}
	return "unknown"
}

// Thumbnail decodes an image payload and returns it as a JPEG fitted into
// size x size. A size below 1 means DefaultSize.
func Thumbnail(payload []byte, size int) ([]byte, error) {
	if size < 1 {
		size = DefaultSize
	}

	start := time.Now()
	format := DetectFormat(payload)
	if format == "unknown" {
		metrics.PreviewGenerationsTotal.WithLabelValues(format, "error").Inc()
		return nil, ErrUnsupported
	}

	img, err := imaging.Decode(bytes.NewReader(payload))
	if err != nil {
		metrics.PreviewGenerationsTotal.WithLabelValues(format, "error").Inc()
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		metrics.PreviewGenerationsTotal.WithLabelValues(format, "error").Inc()
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	metrics.PreviewGenerationsTotal.WithLabelValues(format, "success").Inc()
	metrics.PreviewGenerationDuration.Observe(time.Since(start).Seconds())
	return buf.Bytes(), nil
}

// Dimensions returns the pixel size of an image payload without decoding it
// fully.
func Dimensions(payload []byte) (image.Point, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// Generator caches thumbnails on disk, keyed by payload content and size.
// Renders are bounded to one per CPU, at most MaxConcurrentRenders.
type Generator struct {
	cacheDir string
	renders  chan struct{}
}

// NewGenerator returns a Generator writing into cacheDir. An empty cacheDir
// disables caching.
func NewGenerator(cacheDir string) *Generator {
	if cacheDir != "" {
		logging.Debug("Preview cache dir: %s", cacheDir)
		if err := filesystem.EnsureDir(cacheDir); err != nil {
			logging.Warn("Failed to create preview cache dir: %v", err)
		}
	}
	return &Generator{
		cacheDir: cacheDir,
		renders:  make(chan struct{}, workers.ForCPU(MaxConcurrentRenders)),
	}
}

// Thumbnail returns the cached thumbnail of payload, rendering it on a miss.
func (g *Generator) Thumbnail(payload []byte, size int) ([]byte, error) {
	if g.cacheDir == "" {
		g.renders <- struct{}{}
		defer func() { <-g.renders }()
		return Thumbnail(payload, size)
	}
	if size < 1 {
		size = DefaultSize
	}

	cachePath := filepath.Join(g.cacheDir, fmt.Sprintf("%x-%d.jpg", md5.Sum(payload), size))
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	g.renders <- struct{}{}
	defer func() { <-g.renders }()

	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	data, err := Thumbnail(payload, size)
	if err != nil {
		return nil, err
	}

	if err := filesystem.WriteFileAtomic(cachePath, data, 0o644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	}
	return data, nil
}
