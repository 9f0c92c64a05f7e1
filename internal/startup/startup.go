package startup

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"

	"rbx-extract/internal/config"
	"rbx-extract/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Environment variables read by LoadConfig.
const (
	EnvConfig  = "RBX_EXTRACT_CONFIG"
	EnvTempDir = "RBX_EXTRACT_TEMP_DIR"
	EnvLogFile = "RBX_EXTRACT_LOG_FILE"
)

// DefaultMemoryRatio is the share of MEMORY_LIMIT given to the Go heap.
const DefaultMemoryRatio = 0.85

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Flags are command-line overrides. Empty fields fall back to the
// environment, then to defaults.
type Flags struct {
	ConfigPath string
	TempDir    string
	LogFile    string
	CacheDir   string
	Database   string
	// Verbose logs the banner and configuration at info level.
	Verbose bool
}

// Config holds the process configuration.
type Config struct {
	ConfigPath string
	TempDir    string
	LogFile    string
	// CacheDir and Database override the configured backend locations for
	// this run only. Empty means use the settings store.
	CacheDir string
	Database string
	// LogHealthChecks controls request logging of /health on the control
	// server.
	LogHealthChecks bool
}

// LoadConfig resolves the process configuration from flags and environment
// variables, attaches the log file and returns the result.
func LoadConfig(flags Flags) (*Config, error) {
	section := logging.Debug
	if flags.Verbose {
		printBanner()
		logSystemInfo()
		section = logging.Info
	}

	cfg := &Config{
		ConfigPath: firstNonEmpty(flags.ConfigPath, getEnv(EnvConfig, ""), config.DefaultPath()),
		TempDir:    firstNonEmpty(flags.TempDir, getEnv(EnvTempDir, ""), filepath.Join(os.TempDir(), "RoExtract")),
		LogFile:    firstNonEmpty(flags.LogFile, getEnv(EnvLogFile, "")),
		CacheDir:   flags.CacheDir,
		Database:   flags.Database,

		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", false),
	}

	var err error
	if cfg.TempDir, err = filepath.Abs(cfg.TempDir); err != nil {
		return nil, fmt.Errorf("failed to resolve temp directory path: %w", err)
	}

	if cfg.LogFile != "" {
		if err := logging.SetLogFile(cfg.LogFile); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	section("------------------------------------------------------------")
	section("CONFIGURATION")
	section("------------------------------------------------------------")
	section("  CONFIG:        %s", cfg.ConfigPath)
	section("  TEMP_DIR:      %s", cfg.TempDir)
	section("  LOG_FILE:      %s", orDash(cfg.LogFile))
	section("  CACHE_DIR:     %s", orDash(cfg.CacheDir))
	section("  DATABASE:      %s", orDash(cfg.Database))
	section("  LOG_LEVEL:     %s", logging.GetLevel())
	section("  LOG_HEALTH_CHECKS: %v", cfg.LogHealthChecks)

	if err := ensureDirectory(cfg.TempDir, "temp"); err != nil {
		return nil, fmt.Errorf("temp directory error: %w", err)
	}
	if err := testWriteAccess(cfg.TempDir); err != nil {
		return nil, fmt.Errorf("temp directory is not writable: %w", err)
	}
	section("  [OK] Temp directory is writable")

	return cfg, nil
}

// SourceStatus describes one asset source for the startup log.
type SourceStatus struct {
	Name  string
	Path  string
	Err   error
	Extra string
}

// LogSourcesInit logs which asset sources were resolved.
func LogSourcesInit(sources ...SourceStatus) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ASSET SOURCES")
	logging.Info("------------------------------------------------------------")
	for _, s := range sources {
		if s.Err != nil {
			logging.Warn("  %-10s unavailable: %v", s.Name, s.Err)
			continue
		}
		if s.Extra != "" {
			logging.Info("  [OK] %-10s %s (%s)", s.Name, s.Path, s.Extra)
		} else {
			logging.Info("  [OK] %-10s %s", s.Name, s.Path)
		}
	}
}

// MemoryResult reports what ConfigureMemoryLimit did.
type MemoryResult struct {
	Configured bool
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureMemoryLimit sets GOMEMLIMIT from MEMORY_LIMIT (bytes) scaled by
// MEMORY_RATIO, unless GOMEMLIMIT is already set. Call it before large
// allocations.
func ConfigureMemoryLimit() MemoryResult {
	result := MemoryResult{Source: "none"}

	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	limitStr := os.Getenv("MEMORY_LIMIT")
	if limitStr == "" {
		return result
	}
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q", limitStr)
		return result
	}

	ratio := DefaultMemoryRatio
	if ratioStr := os.Getenv("MEMORY_RATIO"); ratioStr != "" {
		parsed, err := strconv.ParseFloat(ratioStr, 64)
		if err == nil && parsed > 0 && parsed <= 1 {
			ratio = parsed
		} else {
			logging.Warn("Invalid MEMORY_RATIO %q, using default %.2f", ratioStr, DefaultMemoryRatio)
		}
	}

	goMemLimit := int64(float64(limit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result = MemoryResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: limit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		humanize.IBytes(uint64(goMemLimit)), ratio*100, humanize.IBytes(uint64(limit)))
	return result
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level, grouped by prefix.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}

	groupKeys := make([]string, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, group := range groupKeys {
		if group != "" {
			logging.Debug("  [%s]", group)
		} else {
			logging.Debug("  [root]")
		}
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Addr            string
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with its endpoints.
func LogServerStarted(cfg ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", cfg.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://%s/api/status", cfg.Addr)
	logging.Info("    Metrics:       http://%s/metrics", cfg.Addr)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __            ______     __                  __
   / __ \/ /_  _  __   / ____/  __/ /__________ ______/ /_
  / /_/ / __ \| |/_/  / __/ | |/_/ __/ ___/ __ '/ ___/ __/
 / _, _/ /_/ />  <   / /____>  </ /_/ /  / /_/ / /__/ /_
/_/ |_/_.___/_/|_|  /_____/_/|_|\__/_/   \__,_/\___/\__/

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
