package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/classify"
	"rbx-extract/internal/compression"
	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/workers"
)

// Subfolders of the cache root.
const (
	HTTPFolder   = "http"
	SoundsFolder = "sounds"
)

// DefaultDirectoryCandidates are the cache roots of the Windows client and
// the Sober Linux client.
var DefaultDirectoryCandidates = []string{
	`%Temp%\Roblox`,
	"~/.var/app/org.vinegarhq.Sober/cache/sober",
}

// ResolveDirectory returns the first existing cache root among configured
// (when set) and DefaultDirectoryCandidates.
func ResolveDirectory(configured string) (string, error) {
	candidates := append([]string{configured}, DefaultDirectoryCandidates...)
	if root, ok := filesystem.FirstExisting(candidates, filesystem.ValidateDir); ok {
		return root, nil
	}
	return "", ErrNotConfigured
}

// Directory serves assets stored as loose files under a cache root. Reads
// share a lock that swap, copy and clear take exclusively.
type Directory struct {
	mu      sync.RWMutex
	root    string
	retry   filesystem.RetryConfig
	workers int
}

// NewDirectory returns a Directory rooted at root. An empty root yields a
// source whose operations fail with ErrNoConnection.
func NewDirectory(root string) *Directory {
	return &Directory{
		root:    root,
		retry:   filesystem.DefaultRetryConfig(),
		workers: workers.ForIO(16),
	}
}

// Root returns the cache root, or "" when none was resolved.
func (d *Directory) Root() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// Origin implements Source.
func (d *Directory) Origin() assettypes.Origin {
	return assettypes.OriginDirectory
}

// folderFor returns the subfolder holding category. Music lives in sounds/,
// everything else, CategoryAll included, in http/.
func folderFor(category assettypes.Category) string {
	if category == assettypes.CategoryMusic {
		return SoundsFolder
	}
	return HTTPFolder
}

func (d *Directory) pathFor(name string, category assettypes.Category) (string, error) {
	if d.root == "" {
		return "", ErrNoConnection
	}
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	return filepath.Join(d.root, folderFor(category), name), nil
}

func (d *Directory) readFile(path string) ([]byte, error) {
	data, err := filesystem.ReadFileWithRetry(path, d.retry)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}

// Read implements Source.
func (d *Directory) Read(_ context.Context, asset assettypes.AssetInfo) ([]byte, error) {
	if err := CheckOrigin(assettypes.OriginDirectory, asset); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	path, err := d.pathFor(asset.Name, asset.Category)
	if err != nil {
		return nil, err
	}
	return d.readFile(path)
}

// Enumerate implements Source. Files are inspected by a bounded worker pool,
// so emit order within the folder is not defined.
func (d *Directory) Enumerate(ctx context.Context, category assettypes.Category, r Reporter, emit func(assettypes.AssetInfo)) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.root == "" {
		r.Status(locale.FailedOpeningFile)
		return ErrNoConnection
	}

	dir := filepath.Join(d.root, folderFor(category))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Debug("Cache folder %s does not exist, nothing to list", dir)
			return nil
		}
		r.Status(locale.FailedOpeningFile)
		return fmt.Errorf("read cache folder %s: %w", dir, err)
	}

	files := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e)
		}
	}

	total := len(files)
	var (
		reportMu sync.Mutex
		done     int
	)

	return workers.Each(ctx, d.workers, files, func(_ context.Context, e fs.DirEntry) {
		// Counting and reporting share one lock so progress never goes back.
		reportMu.Lock()
		done++
		r.Progress(float64(done) / float64(total))
		r.Status(locale.FilteringFiles, done, total)
		reportMu.Unlock()

		info, ok := d.inspect(filepath.Join(dir, e.Name()), e, category)
		if !ok {
			return
		}
		metrics.AssetsListedTotal.WithLabelValues(assettypes.OriginDirectory.String(), info.Category.String()).Inc()
		emit(info)
	})
}

// inspect reads the head of one cache file and reports whether it matches
// category.
func (d *Directory) inspect(path string, e fs.DirEntry, category assettypes.Category) (assettypes.AssetInfo, bool) {
	data, err := filesystem.ReadPrefixWithRetry(path, PrefixSize, d.retry)
	if err != nil {
		logging.Debug("Skipping unreadable cache file %s: %v", path, err)
		return assettypes.AssetInfo{}, false
	}
	if compression.IsCompressed(data) {
		if data, err = filesystem.ReadFileWithRetry(path, d.retry); err != nil {
			logging.Debug("Skipping unreadable cache file %s: %v", path, err)
			return assettypes.AssetInfo{}, false
		}
	}
	data = compression.MaybeDecompress(data)

	if !classify.Matches(category, data) {
		return assettypes.AssetInfo{}, false
	}

	fi, err := e.Info()
	if err != nil {
		logging.Debug("Skipping vanished cache file %s: %v", path, err)
		return assettypes.AssetInfo{}, false
	}

	matched := category
	if category == assettypes.CategoryAll {
		matched = classify.DetermineCategory(data)
	}

	return assettypes.AssetInfo{
		Name:         e.Name(),
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
		Origin:       assettypes.OriginDirectory,
		Category:     matched,
	}, true
}

// Lookup implements Source.
func (d *Directory) Lookup(_ context.Context, id string, category assettypes.Category) (assettypes.AssetInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	path, err := d.pathFor(id, category)
	if err != nil {
		return assettypes.AssetInfo{}, err
	}

	fi, err := filesystem.StatWithRetry(path, d.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return assettypes.AssetInfo{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return assettypes.AssetInfo{}, err
	}
	if !fi.Mode().IsRegular() {
		return assettypes.AssetInfo{}, fmt.Errorf("%w: %s is not a file", ErrNotFound, id)
	}

	return assettypes.AssetInfo{
		Name:         id,
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
		Origin:       assettypes.OriginDirectory,
		Category:     category,
	}, nil
}

// Clear implements Source. Both subfolders are emptied but kept.
func (d *Directory) Clear(_ context.Context, r Reporter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.root == "" {
		return ErrNoConnection
	}

	folders := []string{HTTPFolder, SoundsFolder}
	total := len(folders)
	var errs []error

	for i, folder := range folders {
		r.Progress(float64(i) / float64(total))
		r.Status(locale.DeletingFiles, i, total)

		dir := filepath.Join(d.root, folder)
		removed, err := filesystem.RemoveContents(dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Error("Failed to clear %s: %v", dir, err)
			r.Status(locale.FailedDeletingFile, i+1, total, err.Error())
			errs = append(errs, fmt.Errorf("clear %s: %w", dir, err))
			continue
		}
		logging.Info("Removed %d entries from %s", removed, dir)
	}

	r.Progress(1)
	if len(errs) == 0 {
		r.Status(locale.DeletedFiles, total, total)
	}
	return errors.Join(errs...)
}

// Swap implements Source. Each file is replaced through a temporary file and
// a rename; if the second replacement fails the first is rolled back.
func (d *Directory) Swap(_ context.Context, a, b assettypes.AssetInfo) error {
	if err := CheckOrigin(assettypes.OriginDirectory, a, b); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pathA, err := d.pathFor(a.Name, a.Category)
	if err != nil {
		return err
	}
	pathB, err := d.pathFor(b.Name, b.Category)
	if err != nil {
		return err
	}

	contentA, err := d.readFile(pathA)
	if err != nil {
		return err
	}
	contentB, err := d.readFile(pathB)
	if err != nil {
		return err
	}

	if err := filesystem.WriteFileAtomic(pathA, contentB, 0o644); err != nil {
		return fmt.Errorf("swap %s: %w", a.Name, err)
	}
	if err := filesystem.WriteFileAtomic(pathB, contentA, 0o644); err != nil {
		if rbErr := filesystem.WriteFileAtomic(pathA, contentA, 0o644); rbErr != nil {
			return errors.Join(fmt.Errorf("swap %s: %w", b.Name, err), fmt.Errorf("rollback %s: %w", a.Name, rbErr))
		}
		return fmt.Errorf("swap %s: %w", b.Name, err)
	}

	logging.Debug("Swapped cache files %s and %s", a.Name, b.Name)
	return nil
}

// Copy implements Source.
func (d *Directory) Copy(_ context.Context, a, b assettypes.AssetInfo) error {
	if err := CheckOrigin(assettypes.OriginDirectory, a, b); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pathA, err := d.pathFor(a.Name, a.Category)
	if err != nil {
		return err
	}
	pathB, err := d.pathFor(b.Name, b.Category)
	if err != nil {
		return err
	}

	if _, err := os.Stat(pathB); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, b.Name)
		}
		return err
	}

	content, err := d.readFile(pathA)
	if err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(pathB, content, 0o644); err != nil {
		return fmt.Errorf("copy %s to %s: %w", a.Name, b.Name, err)
	}

	logging.Debug("Copied cache file %s to %s", a.Name, b.Name)
	return nil
}

// Close implements Source. A Directory holds no handles between calls.
func (d *Directory) Close() error {
	return nil
}
