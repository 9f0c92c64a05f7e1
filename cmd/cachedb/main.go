package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rbx-extract/internal/config"
	"rbx-extract/internal/database"
	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/locale"

	"github.com/dustin/go-humanize"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	settings := config.Load(configPath())

	var ok bool
	switch command {
	case "status":
		ok = showStatus(ctx, os.Stdout, settings)
	case "path":
		ok = showPath(os.Stdout, settings)
	case "set-path":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: set-path needs a database file")
			os.Exit(1)
		}
		ok = setPath(ctx, os.Stdout, settings, os.Args[2])
	case "reconnect":
		ok = reconnect(ctx, os.Stdout, settings)
	case "reset-path":
		ok = resetPath(os.Stdout, settings)
	default:
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func configPath() string {
	if p := os.Getenv("RBX_EXTRACT_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "rbx-extract cache database tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: cachedb <command> [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  status           - Resolve the cache database and show its state")
	fmt.Fprintln(w, "  path             - Show the configured database path")
	fmt.Fprintln(w, "  set-path <file>  - Validate and store a database path")
	fmt.Fprintln(w, "  reconnect        - Close the database and resolve it again")
	fmt.Fprintln(w, "  reset-path       - Forget the stored path and use auto-detection")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  RBX_EXTRACT_CONFIG - Settings file (default: %s)\n", config.DefaultPath())
}

// openSource resolves the database without prompting.
func openSource(ctx context.Context, settings database.Settings) (*database.Source, error) {
	src := database.New(database.Options{
		Settings: settings,
		Prompter: database.DeclinePrompter{},
		Locale:   locale.FromEnv(),
	})
	return src, src.Connect(ctx)
}

func showStatus(ctx context.Context, w io.Writer, settings database.Settings) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	src, err := openSource(ctx, settings)
	defer func() {
		if err := src.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	if err != nil {
		fmt.Fprintf(w, "Status: %s\n", src.State())
		fmt.Fprintf(w, "Error:  %v\n", err)
		return false
	}

	fmt.Fprintf(w, "Status: %s\n", src.State())
	fmt.Fprintf(w, "Path:   %s\n", src.Path())
	if fi, err := os.Stat(src.Path()); err == nil {
		fmt.Fprintf(w, "Size:   %s\n", humanize.IBytes(uint64(fi.Size())))
	}

	n, err := src.Count(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error:  failed to count entries: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "Assets: %s\n", humanize.Comma(n))
	return true
}

func showPath(w io.Writer, settings database.Settings) bool {
	p := settings.GetString(database.SettingDatabasePath)
	if p == "" {
		fmt.Fprintln(w, "No path configured; auto-detection is used.")
		return true
	}
	fmt.Fprintln(w, p)
	return true
}

func setPath(ctx context.Context, w io.Writer, settings database.Settings, path string) bool {
	resolved := filesystem.ResolvePath(path)
	if err := filesystem.ValidateFile(resolved); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	if err := settings.Set(database.SettingDatabasePath, resolved); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save path: %v\n", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	src, err := openSource(ctx, settings)
	defer func() { _ = src.Close() }()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: path saved but the database did not open: %v\n", err)
		return false
	}
	if src.Path() != resolved {
		fmt.Fprintln(os.Stderr, "Error: path saved but another candidate was opened")
		return false
	}

	fmt.Fprintf(w, "Database path set to %s\n", resolved)
	return true
}

// reconnect opens the database, then closes it and performs a fresh
// resolution, reporting the state after each step.
func reconnect(ctx context.Context, w io.Writer, settings database.Settings) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	src, err := openSource(ctx, settings)
	defer func() { _ = src.Close() }()
	fmt.Fprintf(w, "Before: %s %s\n", src.State(), src.Path())
	if err != nil {
		fmt.Fprintf(w, "Error:  %v\n", err)
	}

	if err := src.Reconnect(ctx); err != nil {
		fmt.Fprintf(w, "After:  %s\n", src.State())
		fmt.Fprintf(w, "Error:  %v\n", err)
		return false
	}
	fmt.Fprintf(w, "After:  %s %s\n", src.State(), src.Path())
	return true
}

func resetPath(w io.Writer, settings database.Settings) bool {
	if err := settings.Set(database.SettingDatabasePath, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	fmt.Fprintln(w, "Database path cleared.")
	return true
}

