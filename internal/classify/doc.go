// Package classify recovers the category of an opaque cache blob from the
// signatures in package assettypes and slices the blob to the real start of
// its payload.
//
// Slicing accounts for container bytes that precede the literal signature:
// one byte for PNG and KTX, eight bytes ("RIFF" plus the chunk size) for WEBP.
package classify
