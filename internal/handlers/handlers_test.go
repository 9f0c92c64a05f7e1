package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/config"
	"rbx-extract/internal/engine"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/source"

	"github.com/gorilla/mux"
)

var oggBytes = []byte("OggS\x00\x02\x00\x00vorbis")

type testServer struct {
	router   *mux.Router
	engine   *engine.Engine
	settings *config.Store
	root     string
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for x := 0; x < 32; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: 80, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// setupServer serves a directory source holding files under http/.
func setupServer(t *testing.T, files map[string][]byte) *testServer {
	t.Helper()

	root := t.TempDir()
	httpDir := filepath.Join(root, source.HTTPFolder)
	if err := os.MkdirAll(httpDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(httpDir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	settings := config.NewMemory()
	eng := engine.New(engine.Options{
		Sources:  source.Registry{source.NewDirectory(root)},
		Settings: settings,
		Locale:   locale.New("en"),
		TempDir:  filepath.Join(t.TempDir(), "temp"),
	})
	t.Cleanup(func() {
		if err := eng.CleanUp(); err != nil {
			t.Errorf("CleanUp() error = %v", err)
		}
	})

	h := New(eng, settings, filepath.Join(t.TempDir(), "previews"))
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	return &testServer{router: r, engine: eng, settings: settings, root: root}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != statusHealthy {
		t.Errorf("Status = %q, want %q", resp.Status, statusHealthy)
	}
	if resp.Sources != 1 {
		t.Errorf("Sources = %d, want 1", resp.Sources)
	}
}

func TestHealthCheckNoSources(t *testing.T) {
	eng := engine.New(engine.Options{TempDir: filepath.Join(t.TempDir(), "temp")})
	t.Cleanup(func() { _ = eng.CleanUp() })
	h := New(eng, config.NewMemory(), "")

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), statusDegraded) {
		t.Errorf("body = %s, want degraded", w.Body.String())
	}
}

func TestLivenessCheckHead(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodHead, "/livez", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD response has body %q", w.Body.String())
	}
}

func TestGetVersion(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodGet, "/version", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("Cache-Control") != "no-cache" {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}

	var resp VersionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Version == "" {
		t.Error("version is empty")
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != assettypes.OriginDirectory.String() {
		t.Errorf("sources = %v, want [%s]", resp.Sources, assettypes.OriginDirectory)
	}
}

func TestRefreshAndListAssets(t *testing.T) {
	s := setupServer(t, map[string][]byte{
		"aa": encodePNG(t),
		"bb": oggBytes,
	})

	if err := s.engine.RefreshSync(assettypes.CategoryAll); err != nil {
		t.Fatalf("RefreshSync() error = %v", err)
	}

	w := s.do(t, http.MethodGet, "/api/assets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp AssetListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}

	w = s.do(t, http.MethodGet, "/api/assets?q=AA", nil)
	resp = AssetListResponse{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Assets[0].Name != "aa" {
		t.Errorf("filtered = %+v, want only aa", resp.Assets)
	}
}

func TestRefreshAssetsBadCategory(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/assets/refresh?category=videos", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/assets/refresh?category=images", nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
}

func TestGetAsset(t *testing.T) {
	pngData := encodePNG(t)
	s := setupServer(t, map[string][]byte{"aa": pngData})

	w := s.do(t, http.MethodGet, "/api/assets/aa", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), pngData) {
		t.Error("payload differs from stored PNG")
	}
	if w.Header().Get("Last-Modified") == "" {
		t.Error("Last-Modified header missing")
	}
}

func TestGetAssetNotFound(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/assets/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetPreview(t *testing.T) {
	s := setupServer(t, map[string][]byte{
		"aa": encodePNG(t),
		"bb": oggBytes,
	})

	w := s.do(t, http.MethodGet, "/api/assets/aa/preview?size=8", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}

	w = s.do(t, http.MethodGet, "/api/assets/bb/preview", nil)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("audio preview status = %d, want 415", w.Code)
	}
}

func TestExtractCategory(t *testing.T) {
	s := setupServer(t, map[string][]byte{"aa": encodePNG(t)})
	dest := filepath.Join(t.TempDir(), "out")
	if err := s.engine.RefreshSync(assettypes.CategoryImages); err != nil {
		t.Fatalf("RefreshSync() error = %v", err)
	}

	w := s.do(t, http.MethodPost, "/api/assets/extract", ExtractRequest{
		Dest:     dest,
		Category: assettypes.CategoryImages,
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.engine.TaskRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.engine.TaskRunning() {
		t.Fatal("extraction did not finish")
	}
	if _, err := os.Stat(filepath.Join(dest, "aa.png")); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}
}

func TestExtractRequiresDest(t *testing.T) {
	s := setupServer(t, nil)

	for _, target := range []string{"/api/assets/extract", "/api/assets/extract-all"} {
		w := s.do(t, http.MethodPost, target, map[string]string{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, w.Code)
		}
	}

	w := s.do(t, http.MethodPost, "/api/assets/extract", map[string]string{"dest": "x", "bogus": "y"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", w.Code)
	}
}

func TestSwapAssets(t *testing.T) {
	pngData := encodePNG(t)
	s := setupServer(t, map[string][]byte{"aa": pngData, "bb": oggBytes})

	w := s.do(t, http.MethodPost, "/api/assets/swap", PairRequest{
		A: AssetRef{ID: "aa", Category: assettypes.CategoryAll},
		B: AssetRef{ID: "bb", Category: assettypes.CategoryAll},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	got, err := os.ReadFile(filepath.Join(s.root, source.HTTPFolder, "aa"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, oggBytes) {
		t.Error("aa should hold the content of bb after the swap")
	}
}

func TestCopyAssetsMissing(t *testing.T) {
	s := setupServer(t, map[string][]byte{"aa": oggBytes})

	w := s.do(t, http.MethodPost, "/api/assets/copy", PairRequest{
		A: AssetRef{ID: "missing", Category: assettypes.CategoryAll},
		B: AssetRef{ID: "aa", Category: assettypes.CategoryAll},
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/assets/copy", PairRequest{A: AssetRef{ID: "aa"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d, want 400", w.Code)
	}
}

func TestClearCache(t *testing.T) {
	s := setupServer(t, map[string][]byte{"aa": oggBytes})

	w := s.do(t, http.MethodPost, "/api/assets/clear", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(filepath.Join(s.root, source.HTTPFolder, "aa")); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("cache file still present after clear")
}

func TestAliases(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodPut, "/api/aliases/aa", AliasRequest{Alias: "logo"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := s.settings.Alias("aa"); got != "logo" {
		t.Errorf("Alias(aa) = %q, want logo", got)
	}

	w = s.do(t, http.MethodGet, "/api/aliases", nil)
	var aliases map[string]string
	if err := json.NewDecoder(w.Body).Decode(&aliases); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if aliases["aa"] != "logo" {
		t.Errorf("aliases = %v", aliases)
	}
}

func TestGetStatus(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status == "" {
		t.Error("status message is empty")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, nil)

	w := s.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output missing runtime collectors")
	}
}
