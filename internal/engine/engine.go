package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/source"
)

var (
	// ErrBusy is returned when a mutating task is already running.
	ErrBusy = errors.New("another task is already running")
	// ErrPreempted is returned by a listing pass superseded by a newer refresh.
	ErrPreempted = errors.New("listing superseded by a newer refresh")
)

// TempDirName is the directory created under the OS temp dir when no temp
// base is configured.
const TempDirName = "RoExtract"

// Settings is the configuration the engine reads.
type Settings interface {
	GetBool(key string) bool
	GetString(key string) string
	// Alias returns the friendly name of an asset, or "" when none is set.
	Alias(name string) string
}

// SettingRefreshBeforeExtract makes ExtractDir rescan before writing.
const SettingRefreshBeforeExtract = "refresh_before_extract"

// Options configures an Engine.
type Options struct {
	Sources  source.Registry
	Settings Settings
	Locale   *locale.Locale
	// TempDir is the temp base. Empty means <os temp>/RoExtract.
	TempDir string
	// OnEmit, when set, is called with every asset a listing pass adds. It
	// may be called from several goroutines at once.
	OnEmit func(assettypes.AssetInfo)
}

// Engine owns the asset index and coordinates listing, extraction and
// mutation across the registered sources. Each shared field has its own lock.
type Engine struct {
	sources  source.Registry
	settings Settings
	locale   *locale.Locale
	tempDir  string
	onEmit   func(assettypes.AssetInfo)

	// base is cancelled by CleanUp and parents every listing pass.
	base       context.Context
	baseCancel context.CancelFunc

	indexMu sync.RWMutex
	index   []assettypes.AssetInfo

	filterMu sync.RWMutex
	filtered []assettypes.AssetInfo

	statusMu sync.RWMutex
	status   string

	progressMu sync.RWMutex
	progress   float64

	repaint atomic.Bool

	listMu        sync.Mutex
	listCond      *sync.Cond
	listRunning   bool
	listGen       uint64
	stopRequested bool
	listCancel    context.CancelFunc

	taskMu      sync.Mutex
	taskRunning bool
}

// New creates an Engine and its temp directory.
func New(opts Options) *Engine {
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), TempDirName)
	}
	if err := filesystem.EnsureDir(tempDir); err != nil {
		logging.Error("Failed to create temporary directory: %v", err)
	}

	settings := opts.Settings
	if settings == nil {
		settings = noSettings{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		sources:    opts.Sources,
		settings:   settings,
		locale:     opts.Locale,
		tempDir:    tempDir,
		onEmit:     opts.OnEmit,
		base:       ctx,
		baseCancel: cancel,
	}
	e.listCond = sync.NewCond(&e.listMu)
	e.status = e.locale.Get(locale.Idling)
	return e
}

// Sources returns the registry the engine iterates.
func (e *Engine) Sources() source.Registry {
	return e.sources
}

// TempDir returns the engine's temp directory.
func (e *Engine) TempDir() string {
	return e.tempDir
}

// Index returns a copy of the asset index.
func (e *Engine) Index() []assettypes.AssetInfo {
	e.indexMu.RLock()
	defer e.indexMu.RUnlock()
	return append([]assettypes.AssetInfo(nil), e.index...)
}

// Filtered returns a copy of the result of the last FilterFileList.
func (e *Engine) Filtered() []assettypes.AssetInfo {
	e.filterMu.RLock()
	defer e.filterMu.RUnlock()
	return append([]assettypes.AssetInfo(nil), e.filtered...)
}

// Status returns the current status message.
func (e *Engine) Status() string {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// Progress returns the progress of the current operation in [0, 1].
func (e *Engine) Progress() float64 {
	e.progressMu.RLock()
	defer e.progressMu.RUnlock()
	return e.progress
}

// TakeRepaint reports whether status or progress changed since the last call
// and clears the flag.
func (e *Engine) TakeRepaint() bool {
	return e.repaint.Swap(false)
}

// ListingRunning reports whether a listing pass is active.
func (e *Engine) ListingRunning() bool {
	e.listMu.Lock()
	defer e.listMu.Unlock()
	return e.listRunning
}

// TaskRunning reports whether a mutating task is active.
func (e *Engine) TaskRunning() bool {
	e.taskMu.Lock()
	defer e.taskMu.Unlock()
	return e.taskRunning
}

// GetStats implements metrics.StatsProvider.
func (e *Engine) GetStats() metrics.Stats {
	stats := metrics.Stats{
		Progress:       e.Progress(),
		ListingRunning: e.ListingRunning(),
		TaskRunning:    e.TaskRunning(),
	}

	e.indexMu.RLock()
	stats.IndexSize = len(e.index)
	e.indexMu.RUnlock()

	e.filterMu.RLock()
	stats.FilteredSize = len(e.filtered)
	e.filterMu.RUnlock()

	if src, ok := e.sources.For(assettypes.OriginDatabase); ok {
		if c, ok := src.(interface{ IsOpen() bool }); ok {
			stats.DatabaseOpen = c.IsOpen()
		}
	}
	return stats
}

// CleanUp stops any listing pass, removes the temp directory and closes every
// source.
func (e *Engine) CleanUp() error {
	e.baseCancel()

	var errs []error
	if e.tempDir != "" && !filesystem.IsRootPath(e.tempDir) {
		logging.Info("Cleaning up %s", e.tempDir)
		if err := filesystem.RemoveAllSafe(e.tempDir); err != nil {
			logging.Error("Failed to clean up directory: %v", err)
			errs = append(errs, err)
		}
	}
	if err := e.sources.Close(); err != nil {
		logging.Error("Failed to close sources: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) setStatus(key string, args ...any) {
	msg := e.locale.Get(key, args...)
	e.statusMu.Lock()
	e.status = msg
	e.statusMu.Unlock()
	e.repaint.Store(true)
}

func (e *Engine) setProgress(fraction float64) {
	e.progressMu.Lock()
	e.progress = fraction
	e.progressMu.Unlock()
	e.repaint.Store(true)
}

func (e *Engine) clearIndex() {
	e.indexMu.Lock()
	e.index = nil
	e.indexMu.Unlock()
}

func (e *Engine) appendIndex(a assettypes.AssetInfo) {
	e.indexMu.Lock()
	e.index = append(e.index, a)
	e.indexMu.Unlock()
}

func (e *Engine) noFiles() assettypes.AssetInfo {
	return assettypes.Placeholder(e.locale.Get(locale.NoFiles))
}

// tryStartTask sets the mutating flag, returning false if already set.
func (e *Engine) tryStartTask() bool {
	e.taskMu.Lock()
	defer e.taskMu.Unlock()

	if e.taskRunning {
		return false
	}
	e.taskRunning = true
	metrics.TaskIsRunning.Set(1)
	return true
}

func (e *Engine) finishTask() {
	e.taskMu.Lock()
	defer e.taskMu.Unlock()

	e.taskRunning = false
	metrics.TaskIsRunning.Set(0)
}

// reporter forwards source progress to the engine while gate allows it.
type reporter struct {
	e    *Engine
	gate func() bool
}

func (r reporter) Progress(fraction float64) {
	if r.gate == nil || r.gate() {
		r.e.setProgress(fraction)
	}
}

func (r reporter) Status(key string, args ...any) {
	if r.gate == nil || r.gate() {
		r.e.setStatus(key, args...)
	}
}

type noSettings struct{}

func (noSettings) GetBool(string) bool     { return false }
func (noSettings) GetString(string) string { return "" }
func (noSettings) Alias(string) string     { return "" }
