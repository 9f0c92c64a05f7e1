package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/classify"
	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/source"
)

// ExtractAllCategories are the passes ExtractAll runs, in order. Music lives
// apart from every other category; All covers the rest.
var ExtractAllCategories = []assettypes.Category{assettypes.CategoryMusic, assettypes.CategoryAll}

// aliasReplacer keeps aliases inside the destination directory.
var aliasReplacer = strings.NewReplacer("/", "_", "\\", "_")

// read returns the stored bytes of asset from the source owning it.
func (e *Engine) read(ctx context.Context, asset assettypes.AssetInfo) ([]byte, error) {
	if asset.IsPlaceholder() {
		return nil, fmt.Errorf("%s: %w", asset.Name, source.ErrNotFound)
	}
	src, ok := e.sources.For(asset.Origin)
	if !ok {
		return nil, fmt.Errorf("no %s source for %s: %w", asset.Origin, asset.Name, source.ErrNoConnection)
	}
	return src.Read(ctx, asset)
}

// ExtractAssetToBytes returns the payload of asset: its decompressed bytes
// from the first signature of its category on, or the whole decompressed
// buffer when no signature occurs.
func (e *Engine) ExtractAssetToBytes(ctx context.Context, asset assettypes.AssetInfo) ([]byte, error) {
	data, _, err := e.ExtractAsset(ctx, asset)
	return data, err
}

// ExtractAsset is ExtractAssetToBytes that also reports the output extension
// of the detected signature, or the default extension when none was found.
func (e *Engine) ExtractAsset(ctx context.Context, asset assettypes.AssetInfo) ([]byte, string, error) {
	raw, err := e.read(ctx, asset)
	if err != nil {
		return nil, "", err
	}
	data, ext, _ := classify.Payload(asset.Category, raw)
	return data, ext, nil
}

// ExtractToFile writes the payload of asset to dest and returns the path
// written. With addExtension the extension of the detected signature
// replaces dest's. The asset's modification time is restored when known.
func (e *Engine) ExtractToFile(ctx context.Context, asset assettypes.AssetInfo, dest string, addExtension bool) (string, error) {
	raw, err := e.read(ctx, asset)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(asset.Category.String(), "error").Inc()
		return "", err
	}

	data, ext, err := classify.Payload(asset.Category, raw)
	if err == nil && addExtension {
		dest = strings.TrimSuffix(dest, filepath.Ext(dest)) + "." + ext
	}

	if err := filesystem.WriteFileWithRetry(dest, data, 0o644, filesystem.DefaultRetryConfig()); err != nil {
		metrics.ExtractionsTotal.WithLabelValues(asset.Category.String(), "error").Inc()
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	metrics.ExtractionsTotal.WithLabelValues(asset.Category.String(), "success").Inc()
	metrics.ExtractedBytesTotal.Add(float64(len(data)))

	if asset.HasLastModified() {
		if err := os.Chtimes(dest, asset.LastModified, asset.LastModified); err != nil {
			logging.Error("Failed to write file modification time for %s: %v", dest, err)
		}
	}
	return dest, nil
}

// ExtractDir writes every indexed asset to dest. It returns a finished task
// with ErrBusy when a mutating task is already running. With useAlias output
// files are named by alias where one is set.
func (e *Engine) ExtractDir(dest string, category assettypes.Category, useAlias bool) *Task {
	if !e.tryStartTask() {
		logging.Warn("Extraction to %s skipped: %v", dest, ErrBusy)
		return doneTask(ErrBusy)
	}

	return startTask(func() error {
		defer e.finishTask()

		refresh := e.settings.GetBool(SettingRefreshBeforeExtract)
		result := e.extractDir(e.base, dest, category, useAlias, refresh)
		e.setStatus(locale.AllExtracted)
		logging.Info("Extracted %d %s assets to %s (%d failed)", result.Written, category, dest, result.Failed)
		return nil
	})
}

// ExtractAll extracts Music, then every other asset, into dest as one task.
// Each category is rescanned before it is written.
func (e *Engine) ExtractAll(dest string, useAlias bool) *Task {
	if !e.tryStartTask() {
		logging.Warn("Extraction to %s skipped: %v", dest, ErrBusy)
		return doneTask(ErrBusy)
	}

	return startTask(func() error {
		defer e.finishTask()

		var total ExtractResult
		for _, category := range ExtractAllCategories {
			r := e.extractDir(e.base, dest, category, useAlias, true)
			total.Written += r.Written
			total.Failed += r.Failed
		}
		e.setStatus(locale.AllExtracted)
		logging.Info("Extracted %d assets to %s (%d failed)", total.Written, dest, total.Failed)
		return nil
	})
}

// ExtractResult counts the outcome of one directory extraction.
type ExtractResult struct {
	Written int
	Failed  int
}

// extractDir does the work of ExtractDir without touching the task flag.
// Per-asset failures are logged and counted.
func (e *Engine) extractDir(ctx context.Context, dest string, category assettypes.Category, useAlias, refresh bool) ExtractResult {
	var result ExtractResult

	if err := filesystem.EnsureDir(dest); err != nil {
		logging.Error("Error creating directory %s: %v", dest, err)
	}

	if refresh {
		if err := e.RefreshSync(category); err != nil {
			logging.Warn("Refresh before extracting %s: %v", category, err)
		}
	}

	var assets []assettypes.AssetInfo
	for _, a := range e.Index() {
		if !a.IsPlaceholder() {
			assets = append(assets, a)
		}
	}

	total := len(assets)
	for i, asset := range assets {
		count := i + 1
		e.setProgress(float64(count) / float64(total))

		name := asset.Name
		if useAlias {
			if alias := e.settings.Alias(asset.Name); alias != "" {
				name = aliasReplacer.Replace(alias)
			}
		}

		_, err := e.ExtractToFile(ctx, asset, filepath.Join(dest, name), true)
		e.setStatus(locale.ExtractingFiles, count, total)
		if err != nil {
			result.Failed++
			logging.Error("Error extracting file (%d/%d): %v", count, total, err)
			continue
		}
		result.Written++
	}
	return result
}

// CreateAssetInfo resolves id against each source in order. When no source
// holds it, a descriptor with no origin is returned so callers can still
// display it.
func (e *Engine) CreateAssetInfo(ctx context.Context, id string, category assettypes.Category) assettypes.AssetInfo {
	for _, src := range e.sources {
		info, err := src.Lookup(ctx, id, category)
		if err == nil {
			return info
		}
		if !errors.Is(err, source.ErrNotFound) {
			logging.Debug("Lookup of %s in %s failed: %v", id, src.Origin(), err)
		}
	}

	info := assettypes.Placeholder(id)
	info.Category = category
	return info
}
