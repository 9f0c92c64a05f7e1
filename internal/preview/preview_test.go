package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"rbx-extract/internal/workers"
)

func createPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n"), "png"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"ogg", []byte("OggS\x00\x02\x00\x00"), "unknown"},
		{"short", []byte("RIFF"), "unknown"},
		{"empty", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThumbnail(t *testing.T) {
	data, err := Thumbnail(createPNG(t, 400, 200), 100)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("thumbnail size = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestThumbnailUnsupported(t *testing.T) {
	if _, err := Thumbnail([]byte("OggS\x00\x02"), 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Thumbnail() error = %v, want ErrUnsupported", err)
	}
}

func TestThumbnailCorruptPNG(t *testing.T) {
	if _, err := Thumbnail([]byte("\x89PNG\r\n\x1a\ngarbage"), 0); err == nil {
		t.Error("Thumbnail() of a corrupt PNG succeeded")
	}
}

func TestDimensions(t *testing.T) {
	got, err := Dimensions(createPNG(t, 30, 20))
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if got != image.Pt(30, 20) {
		t.Errorf("Dimensions() = %v, want (30,20)", got)
	}
}

func TestGeneratorCaches(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "previews")
	g := NewGenerator(dir)
	payload := createPNG(t, 64, 64)

	first, err := g.Thumbnail(payload, 32)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("cache holds %d entries, want 1", len(entries))
	}

	second, err := g.Thumbnail(payload, 32)
	if err != nil {
		t.Fatalf("cached Thumbnail() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached thumbnail differs from the rendered one")
	}
}

func TestGeneratorBoundsRenders(t *testing.T) {
	g := NewGenerator(filepath.Join(t.TempDir(), "previews"))
	if got, want := cap(g.renders), workers.ForCPU(MaxConcurrentRenders); got != want {
		t.Errorf("render slots = %d, want %d", got, want)
	}
	if cap(g.renders) > MaxConcurrentRenders {
		t.Errorf("render slots = %d, exceeds %d", cap(g.renders), MaxConcurrentRenders)
	}

	payloads := make([][]byte, 16)
	for i := range payloads {
		payloads[i] = createPNG(t, 16+i, 16)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(payloads))
	for _, payload := range payloads {
		wg.Add(1)
		go func(payload []byte) {
			defer wg.Done()
			if _, err := g.Thumbnail(payload, 8); err != nil {
				errs <- err
			}
		}(payload)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Thumbnail() error = %v", err)
	}
	if len(g.renders) != 0 {
		t.Errorf("%d render slots still held", len(g.renders))
	}
}
