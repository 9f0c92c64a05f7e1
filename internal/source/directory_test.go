package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/compression"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	oggBytes  = []byte("OggS\x00\x02\x00\x00")
	rbxmBytes = []byte("<roblox!\x89\xff\r\n\x1a\n")
	ktxBytes  = []byte("\xabKTX 11\xbb\r\n")
)

// recorder is a Reporter that keeps every status key it receives.
type recorder struct {
	mu       sync.Mutex
	keys     []string
	progress []float64
}

func (r *recorder) Progress(f float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, f)
}

func (r *recorder) Status(key string, _ ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

// setupCache creates a cache root with the given files under http/ and
// sounds/.
func setupCache(t *testing.T, httpFiles, soundFiles map[string][]byte) string {
	t.Helper()

	root := t.TempDir()
	for folder, files := range map[string]map[string][]byte{HTTPFolder: httpFiles, SoundsFolder: soundFiles} {
		dir := filepath.Join(root, folder)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		for name, data := range files {
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
		}
	}
	return root
}

func collect(t *testing.T, d *Directory, category assettypes.Category) []assettypes.AssetInfo {
	t.Helper()

	var mu sync.Mutex
	var got []assettypes.AssetInfo
	err := d.Enumerate(context.Background(), category, NopReporter{}, func(a assettypes.AssetInfo) {
		mu.Lock()
		got = append(got, a)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Name < got[j].Name })
	return got
}

func names(assets []assettypes.AssetInfo) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Name
	}
	return out
}

func TestDirectoryEnumerate(t *testing.T) {
	root := setupCache(t,
		map[string][]byte{
			"aa": pngBytes,
			"bb": oggBytes,
			"cc": rbxmBytes,
			"dd": compression.Compress(append(bytes.Repeat([]byte{0}, 5000), ktxBytes...)),
			"ee": []byte("nothing here"),
		},
		map[string][]byte{
			"song": oggBytes,
		},
	)
	d := NewDirectory(root)

	tests := []struct {
		category assettypes.Category
		want     []string
	}{
		{assettypes.CategoryImages, []string{"aa"}},
		{assettypes.CategorySounds, []string{"bb"}},
		{assettypes.CategoryRbxm, []string{"cc"}},
		{assettypes.CategoryKtx, []string{"dd"}},
		{assettypes.CategoryMusic, []string{"song"}},
		{assettypes.CategoryAll, []string{"aa", "bb", "cc", "dd"}},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			got := collect(t, d, tt.category)
			gotNames := names(got)
			if len(gotNames) != len(tt.want) {
				t.Fatalf("Enumerate(%v) = %v, want %v", tt.category, gotNames, tt.want)
			}
			for i := range tt.want {
				if gotNames[i] != tt.want[i] {
					t.Errorf("Enumerate(%v) = %v, want %v", tt.category, gotNames, tt.want)
				}
			}
			for _, a := range got {
				if a.Origin != assettypes.OriginDirectory {
					t.Errorf("asset %s origin = %v, want directory", a.Name, a.Origin)
				}
				if !a.HasLastModified() {
					t.Errorf("asset %s has no modification time", a.Name)
				}
			}
		})
	}
}

func TestDirectoryEnumerateAllDetectsCategory(t *testing.T) {
	root := setupCache(t, map[string][]byte{"img": pngBytes, "mdl": rbxmBytes}, nil)

	got := collect(t, NewDirectory(root), assettypes.CategoryAll)
	want := map[string]assettypes.Category{
		"img": assettypes.CategoryImages,
		"mdl": assettypes.CategoryRbxm,
	}
	for _, a := range got {
		if a.Category != want[a.Name] {
			t.Errorf("asset %s category = %v, want %v", a.Name, a.Category, want[a.Name])
		}
	}
}

func TestDirectoryEnumerateReportsProgress(t *testing.T) {
	root := setupCache(t, map[string][]byte{"a": pngBytes, "b": pngBytes}, nil)
	rec := &recorder{}

	err := NewDirectory(root).Enumerate(context.Background(), assettypes.CategoryImages, rec, func(assettypes.AssetInfo) {})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if len(rec.keys) != 2 {
		t.Errorf("got %d status reports, want 2", len(rec.keys))
	}
	for _, p := range rec.progress {
		if p < 0 || p > 1 {
			t.Errorf("progress %v outside [0,1]", p)
		}
	}
}

func TestDirectoryEnumerateProgressIsMonotonic(t *testing.T) {
	files := make(map[string][]byte)
	for i := 0; i < 64; i++ {
		files[fmt.Sprintf("asset%02d", i)] = pngBytes
	}
	root := setupCache(t, files, nil)
	rec := &recorder{}

	d := NewDirectory(root)
	d.workers = 8
	err := d.Enumerate(context.Background(), assettypes.CategoryImages, rec, func(assettypes.AssetInfo) {})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	if len(rec.progress) != len(files) {
		t.Fatalf("got %d progress reports, want %d", len(rec.progress), len(files))
	}
	for i := 1; i < len(rec.progress); i++ {
		if rec.progress[i] < rec.progress[i-1] {
			t.Fatalf("progress went from %v to %v at report %d", rec.progress[i-1], rec.progress[i], i)
		}
	}
	if last := rec.progress[len(rec.progress)-1]; last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}
}

func TestDirectoryEnumerateMissingFolder(t *testing.T) {
	root := t.TempDir()
	got := collect(t, NewDirectory(root), assettypes.CategoryMusic)
	if len(got) != 0 {
		t.Errorf("Enumerate() on missing folder returned %d assets", len(got))
	}
}

func TestDirectoryNoRoot(t *testing.T) {
	d := NewDirectory("")
	ctx := context.Background()
	asset := assettypes.AssetInfo{Name: "a", Origin: assettypes.OriginDirectory}

	if err := d.Enumerate(ctx, assettypes.CategoryAll, NopReporter{}, func(assettypes.AssetInfo) {}); !errors.Is(err, ErrNoConnection) {
		t.Errorf("Enumerate() error = %v, want ErrNoConnection", err)
	}
	if _, err := d.Read(ctx, asset); !errors.Is(err, ErrNoConnection) {
		t.Errorf("Read() error = %v, want ErrNoConnection", err)
	}
	if err := d.Clear(ctx, NopReporter{}); !errors.Is(err, ErrNoConnection) {
		t.Errorf("Clear() error = %v, want ErrNoConnection", err)
	}
}

func TestDirectoryRead(t *testing.T) {
	root := setupCache(t, map[string][]byte{"aa": pngBytes}, map[string][]byte{"song": oggBytes})
	d := NewDirectory(root)
	ctx := context.Background()

	tests := []struct {
		name    string
		asset   assettypes.AssetInfo
		want    []byte
		wantErr error
	}{
		{
			name:  "http file",
			asset: assettypes.AssetInfo{Name: "aa", Origin: assettypes.OriginDirectory, Category: assettypes.CategoryImages},
			want:  pngBytes,
		},
		{
			name:  "music file",
			asset: assettypes.AssetInfo{Name: "song", Origin: assettypes.OriginDirectory, Category: assettypes.CategoryMusic},
			want:  oggBytes,
		},
		{
			name:    "missing file",
			asset:   assettypes.AssetInfo{Name: "zz", Origin: assettypes.OriginDirectory, Category: assettypes.CategoryImages},
			wantErr: ErrNotFound,
		},
		{
			name:    "path traversal",
			asset:   assettypes.AssetInfo{Name: "../escape", Origin: assettypes.OriginDirectory},
			wantErr: ErrNotFound,
		},
		{
			name:    "database asset",
			asset:   assettypes.AssetInfo{Name: "aa", Origin: assettypes.OriginDatabase},
			wantErr: ErrOriginMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Read(ctx, tt.asset)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Read() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Read() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirectoryLookup(t *testing.T) {
	root := setupCache(t, map[string][]byte{"aa": pngBytes}, nil)
	d := NewDirectory(root)

	info, err := d.Lookup(context.Background(), "aa", assettypes.CategoryImages)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if info.Size != int64(len(pngBytes)) {
		t.Errorf("Size = %d, want %d", info.Size, len(pngBytes))
	}
	if info.Origin != assettypes.OriginDirectory || info.Category != assettypes.CategoryImages {
		t.Errorf("Lookup() = %+v", info)
	}

	if _, err := d.Lookup(context.Background(), "missing", assettypes.CategoryImages); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDirectorySwapIsInvolution(t *testing.T) {
	root := setupCache(t, map[string][]byte{"aa": pngBytes, "bb": rbxmBytes}, nil)
	d := NewDirectory(root)
	ctx := context.Background()

	a := assettypes.AssetInfo{Name: "aa", Origin: assettypes.OriginDirectory, Category: assettypes.CategoryImages}
	b := assettypes.AssetInfo{Name: "bb", Origin: assettypes.OriginDirectory, Category: assettypes.CategoryRbxm}

	if err := d.Swap(ctx, a, b); err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	gotA, _ := d.Read(ctx, a)
	gotB, _ := d.Read(ctx, b)
	if !bytes.Equal(gotA, rbxmBytes) || !bytes.Equal(gotB, pngBytes) {
		t.Fatalf("after one swap a=%q b=%q", gotA, gotB)
	}

	if err := d.Swap(ctx, a, b); err != nil {
		t.Fatalf("second Swap() error = %v", err)
	}
	gotA, _ = d.Read(ctx, a)
	gotB, _ = d.Read(ctx, b)
	if !bytes.Equal(gotA, pngBytes) || !bytes.Equal(gotB, rbxmBytes) {
		t.Errorf("after two swaps a=%q b=%q, want original content", gotA, gotB)
	}
}

func TestDirectorySwapMissingLeavesContent(t *testing.T) {
	root := setupCache(t, map[string][]byte{"aa": pngBytes}, nil)
	d := NewDirectory(root)
	ctx := context.Background()

	a := assettypes.AssetInfo{Name: "aa", Origin: assettypes.OriginDirectory}
	b := assettypes.AssetInfo{Name: "gone", Origin: assettypes.OriginDirectory}

	if err := d.Swap(ctx, a, b); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Swap() error = %v, want ErrNotFound", err)
	}
	got, _ := d.Read(ctx, a)
	if !bytes.Equal(got, pngBytes) {
		t.Error("failed swap modified the existing asset")
	}
}

func TestDirectorySwapRejectsDatabaseAssets(t *testing.T) {
	d := NewDirectory(t.TempDir())
	a := assettypes.AssetInfo{Name: "aa", Origin: assettypes.OriginDirectory}
	b := assettypes.AssetInfo{Name: "bb", Origin: assettypes.OriginDatabase}

	if err := d.Swap(context.Background(), a, b); !errors.Is(err, ErrOriginMismatch) {
		t.Errorf("Swap() error = %v, want ErrOriginMismatch", err)
	}
	if err := d.Copy(context.Background(), a, b); !errors.Is(err, ErrOriginMismatch) {
		t.Errorf("Copy() error = %v, want ErrOriginMismatch", err)
	}
}

func TestDirectoryCopy(t *testing.T) {
	root := setupCache(t, map[string][]byte{"aa": pngBytes, "bb": rbxmBytes}, nil)
	d := NewDirectory(root)
	ctx := context.Background()

	a := assettypes.AssetInfo{Name: "aa", Origin: assettypes.OriginDirectory}
	b := assettypes.AssetInfo{Name: "bb", Origin: assettypes.OriginDirectory}

	if err := d.Copy(ctx, a, b); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	got, _ := d.Read(ctx, b)
	if !bytes.Equal(got, pngBytes) {
		t.Errorf("b = %q after copy, want %q", got, pngBytes)
	}
	src, _ := d.Read(ctx, a)
	if !bytes.Equal(src, pngBytes) {
		t.Error("copy modified the source asset")
	}

	missing := assettypes.AssetInfo{Name: "zz", Origin: assettypes.OriginDirectory}
	if err := d.Copy(ctx, a, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Copy() to missing target error = %v, want ErrNotFound", err)
	}
}

func TestDirectoryClear(t *testing.T) {
	root := setupCache(t, map[string][]byte{"aa": pngBytes, "bb": oggBytes}, map[string][]byte{"song": oggBytes})
	d := NewDirectory(root)
	rec := &recorder{}

	if err := d.Clear(context.Background(), rec); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	for _, folder := range []string{HTTPFolder, SoundsFolder} {
		entries, err := os.ReadDir(filepath.Join(root, folder))
		if err != nil {
			t.Fatalf("%s folder should remain: %v", folder, err)
		}
		if len(entries) != 0 {
			t.Errorf("%s has %d entries after Clear", folder, len(entries))
		}
	}

	if len(rec.keys) == 0 || rec.keys[len(rec.keys)-1] != "deleted-files" {
		t.Errorf("last status = %v, want deleted-files", rec.keys)
	}
}

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()

	got, err := ResolveDirectory(dir)
	if err != nil {
		t.Fatalf("ResolveDirectory() error = %v", err)
	}
	if got != dir {
		t.Errorf("ResolveDirectory() = %q, want %q", got, dir)
	}
}

func TestRegistry(t *testing.T) {
	d := NewDirectory(t.TempDir())
	reg := Registry{d}

	got, ok := reg.For(assettypes.OriginDirectory)
	if !ok || got != d {
		t.Error("For(directory) did not return the directory source")
	}
	if _, ok := reg.For(assettypes.OriginDatabase); ok {
		t.Error("For(database) should report false")
	}
	if err := reg.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCheckOrigin(t *testing.T) {
	dir := assettypes.AssetInfo{Name: "a", Origin: assettypes.OriginDirectory}
	db := assettypes.AssetInfo{Name: "b", Origin: assettypes.OriginDatabase}

	if err := CheckOrigin(assettypes.OriginDirectory, dir, dir); err != nil {
		t.Errorf("CheckOrigin() error = %v", err)
	}
	if err := CheckOrigin(assettypes.OriginDirectory, dir, db); !errors.Is(err, ErrOriginMismatch) {
		t.Errorf("CheckOrigin() error = %v, want ErrOriginMismatch", err)
	}
	if err := CheckOrigin(assettypes.OriginDatabase, assettypes.Placeholder("none")); !errors.Is(err, ErrOriginMismatch) {
		t.Errorf("CheckOrigin(placeholder) error = %v, want ErrOriginMismatch", err)
	}
}
