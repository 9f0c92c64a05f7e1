package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/config"
	"rbx-extract/internal/database"
	"rbx-extract/internal/engine"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/progress"
	"rbx-extract/internal/source"
	"rbx-extract/internal/startup"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
)

// CLI is the command tree. Global flags apply to every command.
type CLI struct {
	Config   string           `short:"c" help:"Path of the YAML settings file" type:"path" env:"RBX_EXTRACT_CONFIG"`
	LogLevel string           `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	LogFile  string           `help:"Also write logs to this size-rotated file" type:"path"`
	TempDir  string           `help:"Scratch directory, removed on exit" type:"path"`
	CacheDir string           `help:"Cache directory root, overriding the settings file" type:"path"`
	Database string           `help:"Cache database file, overriding the settings file" type:"path"`
	NoPrompt bool             `help:"Never ask for a database path on the terminal"`
	Verbose  bool             `short:"V" help:"Log the startup banner and configuration"`
	Version  kong.VersionFlag `short:"v" help:"Print version and exit"`

	List       ListCmd       `cmd:"" help:"List cached assets of a category"`
	Extract    ExtractCmd    `cmd:"" help:"Extract every asset of a category into a directory"`
	ExtractAll ExtractAllCmd `cmd:"" name:"extract-all" help:"Extract music and every other asset into a directory"`
	ExtractOne ExtractOneCmd `cmd:"" name:"extract-one" help:"Extract a single asset to a file"`
	Swap       SwapCmd       `cmd:"" help:"Exchange the content of two assets"`
	Copy       CopyCmd       `cmd:"" help:"Replace the content of one asset with another's"`
	Clear      ClearCmd      `cmd:"" help:"Delete every cached asset"`
	Preview    PreviewCmd    `cmd:"" help:"Render a JPEG thumbnail of an image asset"`
	Alias      AliasCmd      `cmd:"" help:"Set or remove the alias of an asset"`
	Serve      ServeCmd      `cmd:"" help:"Run the HTTP control server"`
}

// app is the state shared by a command run.
type app struct {
	cfg      *startup.Config
	settings *config.Store
	locale   *locale.Locale
	engine   *engine.Engine
	db       *database.Source
	dir      *source.Directory
	bars     progress.Options
}

// open loads configuration, resolves both sources and builds the engine.
// onEmit, when set, receives every asset a listing pass finds.
func (c *CLI) open(ctx context.Context, onEmit ...func(assettypes.AssetInfo)) (*app, error) {
	if level, ok := logging.ParseLevel(c.LogLevel); ok {
		logging.SetLevel(level)
	}

	cfg, err := startup.LoadConfig(startup.Flags{
		ConfigPath: c.Config,
		TempDir:    c.TempDir,
		LogFile:    c.LogFile,
		CacheDir:   c.CacheDir,
		Database:   c.Database,
		Verbose:    c.Verbose,
	})
	if err != nil {
		return nil, err
	}

	settings := config.Load(cfg.ConfigPath)
	loc := locale.FromEnv()
	if lang := settings.GetString(config.KeyLanguage); lang != "" {
		loc = locale.New(lang)
	}

	var prompter database.Prompter = database.NewTerminalPrompter()
	if c.NoPrompt {
		prompter = database.DeclinePrompter{Out: os.Stderr}
	}
	dbOpts := database.Options{
		Settings: settings,
		Prompter: prompter,
		Locale:   loc,
	}
	if cfg.Database != "" {
		dbOpts.Candidates = []string{cfg.Database}
		dbOpts.Settings = nil
	}
	db := database.New(dbOpts)
	dbErr := db.Connect(ctx)

	root, dirErr := source.ResolveDirectory(firstNonEmpty(cfg.CacheDir, settings.GetString(config.KeyCacheDirectory)))
	dir := source.NewDirectory(root)

	startup.LogSourcesInit(
		startup.SourceStatus{Name: "database", Path: db.Path(), Err: dbErr, Extra: db.State().String()},
		startup.SourceStatus{Name: "directory", Path: root, Err: dirErr},
	)

	eng := engine.New(engine.Options{
		// The database is consulted first, as the client writes new
		// entries there.
		Sources:  source.Registry{db, dir},
		Settings: settings,
		Locale:   loc,
		TempDir:  cfg.TempDir,
		OnEmit:   firstEmit(onEmit),
	})

	return &app{
		cfg:      cfg,
		settings: settings,
		locale:   loc,
		engine:   eng,
		db:       db,
		dir:      dir,
		bars:     progress.Options{Disabled: !isatty.IsTerminal(os.Stderr.Fd())},
	}, nil
}

func (a *app) close() {
	if err := a.engine.CleanUp(); err != nil {
		logging.Warn("Cleanup failed: %v", err)
	}
}

// follow renders a progress bar for task and returns its error.
func (a *app) follow(description string, task *engine.Task) error {
	bar := progress.New(description, a.engine, a.bars)
	bar.Follow(task.Done(), func() bool { return task.Err() == nil })
	return task.Wait()
}

func firstEmit(fns []func(assettypes.AssetInfo)) func(assettypes.AssetInfo) {
	if len(fns) == 0 {
		return nil
	}
	return fns[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	var cli CLI
	kctx := kong.Parse(
		&cli,
		kong.Vars{
			"version": startup.Version,
		},
		kong.Name("rbx-extract"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Description("Browse, extract and rearrange the assets of the Roblox client cache"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	err := kctx.Run(&cli)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted")
		os.Exit(130)
	}
	kctx.FatalIfErrorf(err)
}
