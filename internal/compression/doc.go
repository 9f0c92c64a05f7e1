// Package compression detects zstd-compressed cache entries and decodes them
// before classification. Decoding is best effort: malformed frames are logged
// and the input is passed through unchanged.
package compression
