// Package startup handles process configuration, build information and
// startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] merges command-line flags with environment variables; a
// non-empty flag always wins:
//
//   - RBX_EXTRACT_CONFIG: settings file (default: <user config dir>/rbx-extract/config.yaml)
//   - RBX_EXTRACT_TEMP_DIR: temp base (default: <os temp>/RoExtract)
//   - RBX_EXTRACT_LOG_FILE: optional rotating log file
//   - LOG_HEALTH_CHECKS: log /health requests on the control server (default: false)
//   - LOG_LEVEL / DEBUG: read by package logging
//   - SCAN_WORKERS: read by package workers
//   - MEMORY_LIMIT / MEMORY_RATIO / GOMEMLIMIT: read by [ConfigureMemoryLimit]
//
// The temp directory is created and checked for write access.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X rbx-extract/internal/startup.Version=1.2.0"
//
// # Lifecycle Logging
//
// Sectioned log output keeps the server log readable:
//   - [LogSourcesInit]: which cache directory and database were resolved
//   - [LogHTTPRoutes]: registered routes (debug level)
//   - [LogServerStarted]: listen address and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: graceful shutdown
package startup
