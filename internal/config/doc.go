// Package config is the persistent key-value settings store, kept as a YAML
// mapping in the user's config directory.
//
// Recognized keys:
//   - refresh_before_extract (bool): rescan before every extraction
//   - sql_database (string): path to rbx-storage.db
//   - cache_directory (string): cache root holding http/ and sounds/
//   - language (string): message language, e.g. "es"
//   - aliases (mapping): asset name to friendly output name
package config
