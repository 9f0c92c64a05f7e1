// Package main provides the rbx-extract command.
//
// rbx-extract reads the asset cache of the Roblox client, which is stored
// both as loose files in a cache directory and as rows of an SQLite
// database. Assets are classified by byte signature into music, sounds,
// images, KTX textures and binary models.
//
// # Commands
//
//   - list: rescan the cache and print the assets of a category
//   - extract, extract-all, extract-one: write payloads to disk
//   - swap, copy: exchange or overwrite cached asset content
//   - clear: delete every cached asset
//   - preview: render a JPEG thumbnail of an image asset
//   - alias: set or remove the friendly name of an asset
//   - serve: run the HTTP control server with Prometheus metrics
//
// # Configuration
//
// Settings (cache locations, language, aliases) live in a YAML file, by
// default under the user configuration directory. Command-line flags take
// precedence, then RBX_EXTRACT_* environment variables, then the file.
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM cancel running scans, stop the control server within
// 30 seconds and remove the temp directory.
package main
