// Package preview renders JPEG thumbnails of extracted image assets.
//
// PNG and WEBP payloads are decoded with imaging (WEBP through
// golang.org/x/image/webp) and fitted into a square. A Generator keeps
// rendered thumbnails in a cache directory, normally under the engine's
// temp directory, so repeated requests for the same content are served
// from disk.
package preview
