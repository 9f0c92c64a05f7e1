package classify

import (
	"bytes"
	"errors"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/compression"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
)

// ErrSignatureNotFound is returned when none of a category's signatures occur
// in a buffer.
var ErrSignatureNotFound = errors.New("signature not found")

// FindHeader returns the first signature of category, in catalog order, that
// occurs anywhere in data. A signature listed earlier wins even when a later
// one occurs at a smaller offset.
func FindHeader(category assettypes.Category, data []byte) (assettypes.Signature, error) {
	for _, sig := range assettypes.HeadersFor(category) {
		if contains(data, sig) {
			return sig, nil
		}
	}
	return "", ErrSignatureNotFound
}

// ExtractPayload returns data from the true start of the payload identified
// by sig: the earliest occurrence of sig minus its backward offset. When sig
// does not occur, a warning is logged and data is returned unchanged.
func ExtractPayload(sig assettypes.Signature, data []byte) []byte {
	idx := index(data, sig)
	if idx < 0 {
		logging.Warn("Signature %q not found while slicing payload, keeping %d raw bytes", string(sig), len(data))
		metrics.SignatureMissesTotal.Inc()
		return data
	}

	start := idx - assettypes.BackwardOffset(sig)
	if start < 0 {
		start = 0
	}
	return data[start:]
}

// DetermineCategory returns the first concrete category, Music excluded,
// whose signature occurs in data. ID3 only counts when data also contains
// the "binary/" marker. Returns CategoryAll when nothing matches.
func DetermineCategory(data []byte) assettypes.Category {
	for _, category := range assettypes.ConcreteCategories {
		if category == assettypes.CategoryMusic {
			continue
		}
		for _, sig := range assettypes.HeadersFor(category) {
			if !contains(data, sig) {
				continue
			}
			if sig == assettypes.SignatureID3 && !bytes.Contains(data, []byte(assettypes.MimeBinaryMarker)) {
				continue
			}
			return category
		}
	}
	return assettypes.CategoryAll
}

// Matches reports whether data contains any signature of category.
func Matches(category assettypes.Category, data []byte) bool {
	_, err := FindHeader(category, data)
	return err == nil
}

// Payload runs raw stored bytes through decompression, signature lookup and
// slicing. It returns the payload and the output extension. When no signature
// of category occurs, the decompressed bytes are returned with the default
// extension and ErrSignatureNotFound.
func Payload(category assettypes.Category, raw []byte) ([]byte, string, error) {
	data := compression.MaybeDecompress(raw)

	sig, err := FindHeader(category, data)
	if err != nil {
		return data, assettypes.ExtensionFor(""), err
	}
	return ExtractPayload(sig, data), assettypes.ExtensionFor(sig), nil
}

// index returns the earliest offset of sig in data, or -1. Empty signatures
// never match.
func index(data []byte, sig assettypes.Signature) int {
	if sig == "" {
		return -1
	}
	return bytes.Index(data, []byte(sig))
}

func contains(data []byte, sig assettypes.Signature) bool {
	return index(data, sig) >= 0
}
