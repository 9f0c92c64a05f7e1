// Package engine coordinates the asset sources for the extractor.
//
// An Engine owns the shared asset index, a filtered view of it, a status
// message, a progress fraction and a repaint flag that displays poll and
// clear. Each of those is guarded on its own so a status display never waits
// behind a scan.
//
// Work runs on goroutines and is returned as a [Task]:
//   - Refresh: rebuilds the index for one category. A newer refresh stops
//     the running one and starts after it exits.
//   - ExtractDir / ExtractAll: write asset payloads to a directory.
//   - ClearCache: empties every source.
//
// Extraction and clearing share one "mutating" flag. A call made while it is
// set is dropped and its task finishes with ErrBusy; nothing is queued.
//
// SwapAssets, CopyAssets, ExtractToFile, ExtractAssetToBytes and
// CreateAssetInfo run synchronously and go straight to the sources.
package engine
