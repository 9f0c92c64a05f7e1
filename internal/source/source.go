package source

import (
	"context"
	"errors"
	"fmt"

	"rbx-extract/internal/assettypes"
)

// Errors shared by every asset source.
var (
	// ErrNotFound is returned when an asset id does not exist in a source.
	ErrNotFound = errors.New("asset not found")
	// ErrNoConnection is returned when a source has no usable storage.
	ErrNoConnection = errors.New("no connection to asset storage")
	// ErrOriginMismatch is returned when an asset belongs to another source.
	ErrOriginMismatch = errors.New("asset belongs to another source")
	// ErrNotConfigured is returned when no storage location could be resolved.
	ErrNotConfigured = errors.New("asset storage location not configured")
)

// PrefixSize is how many leading bytes of an entry are inspected during
// enumeration. Compressed entries are always read in full.
const PrefixSize = 4096

// Reporter receives progress from long-running source operations. Status
// keys come from package locale; args are formatted by the receiver.
type Reporter interface {
	Progress(fraction float64)
	Status(key string, args ...any)
}

// NopReporter discards every report.
type NopReporter struct{}

// Progress implements Reporter.
func (NopReporter) Progress(float64) {}

// Status implements Reporter.
func (NopReporter) Status(string, ...any) {}

// Source is one storage medium holding cache entries.
//
// Every method that takes an AssetInfo fails with ErrOriginMismatch when the
// asset's origin is not Origin().
type Source interface {
	// Origin identifies the assets this source owns.
	Origin() assettypes.Origin

	// Read returns the stored bytes of asset, before decompression.
	Read(ctx context.Context, asset assettypes.AssetInfo) ([]byte, error)

	// Enumerate calls emit for every stored entry whose decompressed bytes
	// contain a signature of category. For CategoryAll the emitted category
	// is the one detected from the bytes. emit may be called from several
	// goroutines. Enumerate returns ctx.Err() when cancelled.
	Enumerate(ctx context.Context, category assettypes.Category, r Reporter, emit func(assettypes.AssetInfo)) error

	// Lookup resolves id without a scan. It returns ErrNotFound if id is
	// not stored.
	Lookup(ctx context.Context, id string, category assettypes.Category) (assettypes.AssetInfo, error)

	// Clear irreversibly deletes every stored entry.
	Clear(ctx context.Context, r Reporter) error

	// Swap exchanges the content of a and b atomically.
	Swap(ctx context.Context, a, b assettypes.AssetInfo) error

	// Copy replaces the content of b with the content of a. b is never left
	// partially written.
	Copy(ctx context.Context, a, b assettypes.AssetInfo) error

	// Close releases any handles held by the source.
	Close() error
}

// CheckOrigin returns ErrOriginMismatch unless every asset belongs to origin.
func CheckOrigin(origin assettypes.Origin, assets ...assettypes.AssetInfo) error {
	for _, a := range assets {
		if a.Origin != origin {
			return fmt.Errorf("%w: %s is from %s, not %s", ErrOriginMismatch, a.Name, a.Origin, origin)
		}
	}
	return nil
}

// Registry is the ordered set of sources the engine iterates. Enumeration
// visits sources in registry order.
type Registry []Source

// For returns the source owning origin.
func (r Registry) For(origin assettypes.Origin) (Source, bool) {
	for _, s := range r {
		if s.Origin() == origin {
			return s, true
		}
	}
	return nil, false
}

// Close closes every source and joins their errors.
func (r Registry) Close() error {
	var errs []error
	for _, s := range r {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s source: %w", s.Origin(), err))
		}
	}
	return errors.Join(errs...)
}
