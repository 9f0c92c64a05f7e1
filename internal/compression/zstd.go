package compression

import (
	"bytes"

	"github.com/klauspost/compress/zstd"

	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
)

// Magic is the zstd frame magic number as stored on disk.
var Magic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// MaxDecodedSize bounds the decompressed size of one cache entry. Larger
// frames are left compressed.
const MaxDecodedSize = 256 << 20

// Package-level encoder and decoder, reused across calls. zstd.Encoder and
// zstd.Decoder are safe for concurrent use.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}

	decoder, err = newDecoder(MaxDecodedSize)
	if err != nil {
		panic("compression: zstd decoder initialization failed: " + err.Error())
	}
}

func newDecoder(maxSize uint64) (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSize))
}

// IsCompressed reports whether data starts with the zstd magic number.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// MaybeDecompress returns the decompressed form of data when it starts with
// the zstd magic number. Data without the magic number is returned as is.
// A decode failure, including output past MaxDecodedSize, is logged and the
// original bytes are returned.
func MaybeDecompress(data []byte) []byte {
	return decompress(decoder, data)
}

func decompress(dec *zstd.Decoder, data []byte) []byte {
	if !IsCompressed(data) {
		return data
	}

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		logging.Warn("zstd decompression failed, using raw bytes: %v", err)
		metrics.DecompressionsTotal.WithLabelValues("failed").Inc()
		return data
	}

	metrics.DecompressionsTotal.WithLabelValues("success").Inc()
	return out
}

// Compress encodes data as a single zstd frame. MaybeDecompress(Compress(b))
// returns b.
func Compress(data []byte) []byte {
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2+len(Magic)))
}
