package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/database"
	"rbx-extract/internal/engine"
	"rbx-extract/internal/filesystem"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/preview"

	"github.com/dustin/go-humanize"
)

// ListCmd refreshes the index for a category and prints it.
type ListCmd struct {
	Category assettypes.Category `short:"t" default:"all" help:"Category to list (music, sounds, images, ktx, rbxm, all)"`
	Query    string              `short:"q" help:"Only show assets whose name or alias contains this text"`
	Long     bool                `short:"L" help:"Show size, category, source and modification time"`
	Stream   bool                `short:"s" help:"Print names as they are found instead of after the scan"`
}

func (c *ListCmd) Run(ctx context.Context, cli *CLI) error {
	if c.Stream {
		return c.stream(ctx, cli)
	}

	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.follow("Listing", a.engine.Refresh(c.Category)); err != nil {
		return err
	}

	assets := a.engine.Index()
	if c.Query != "" {
		assets = a.engine.FilterFileList(c.Query)
	}
	return printAssets(os.Stdout, assets, a.settings.Alias, c.Long)
}

// stream echoes each asset name as the listing pass emits it. The progress
// bar is not drawn since it would interleave with the names.
func (c *ListCmd) stream(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx, func(asset assettypes.AssetInfo) {
		fmt.Println(asset.Name)
	})
	if err != nil {
		return err
	}
	defer a.close()

	return a.engine.RefreshSync(c.Category)
}

// printAssets writes one line per asset. Placeholders print their label only.
func printAssets(w io.Writer, assets []assettypes.AssetInfo, alias func(string) string, long bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, asset := range assets {
		if asset.IsPlaceholder() {
			fmt.Fprintln(tw, asset.Name)
			continue
		}
		name := asset.Name
		if al := alias(asset.Name); al != "" {
			name = fmt.Sprintf("%s (%s)", asset.Name, al)
		}
		if !long {
			fmt.Fprintln(tw, name)
			continue
		}
		modified := "-"
		if asset.HasLastModified() {
			modified = humanize.Time(asset.LastModified)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			name, humanize.IBytes(uint64(asset.Size)), asset.Category, asset.Origin, modified)
	}
	return tw.Flush()
}

// ExtractCmd writes one category to a directory.
type ExtractCmd struct {
	Dest     string              `arg:"" type:"path" help:"Destination directory"`
	Category assettypes.Category `short:"t" default:"all" help:"Category to extract"`
	Alias    bool                `short:"a" help:"Name files by their alias where one is set"`
}

func (c *ExtractCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// A fresh process has no index; the engine rescans by itself only
	// when the settings ask for it.
	if !a.settings.GetBool(engine.SettingRefreshBeforeExtract) {
		if err := a.follow("Listing", a.engine.Refresh(c.Category)); err != nil {
			return err
		}
	}

	if err := a.follow("Extracting", a.engine.ExtractDir(c.Dest, c.Category, c.Alias)); err != nil {
		return err
	}
	fmt.Println(a.engine.Status())
	return nil
}

// ExtractAllCmd writes music and then every other asset to a directory.
type ExtractAllCmd struct {
	Dest  string `arg:"" type:"path" help:"Destination directory"`
	Alias bool   `short:"a" help:"Name files by their alias where one is set"`
}

func (c *ExtractAllCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.follow("Extracting", a.engine.ExtractAll(c.Dest, c.Alias)); err != nil {
		return err
	}
	fmt.Println(a.engine.Status())
	return nil
}

// ExtractOneCmd writes one asset to a file.
type ExtractOneCmd struct {
	ID          string              `arg:"" help:"Asset name or hex database id"`
	Dest        string              `arg:"" type:"path" help:"Output file"`
	Category    assettypes.Category `short:"t" default:"all" help:"Category used to locate the payload"`
	NoExtension bool                `help:"Keep the output name as given instead of using the detected extension"`
}

func (c *ExtractOneCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	asset := a.engine.CreateAssetInfo(ctx, c.ID, c.Category)
	if asset.IsPlaceholder() {
		return fmt.Errorf("asset %s not found", c.ID)
	}
	written, err := a.engine.ExtractToFile(ctx, asset, c.Dest, !c.NoExtension)
	if err != nil {
		return err
	}
	fmt.Println(written)
	return nil
}

// PairArgs names the two assets of a swap or copy.
type PairArgs struct {
	A        string              `arg:"" help:"First asset"`
	B        string              `arg:"" help:"Second asset"`
	Category assettypes.Category `short:"t" default:"all" help:"Category of both assets"`
}

func (p PairArgs) resolve(ctx context.Context, a *app) (assettypes.AssetInfo, assettypes.AssetInfo) {
	return a.engine.CreateAssetInfo(ctx, p.A, p.Category), a.engine.CreateAssetInfo(ctx, p.B, p.Category)
}

// SwapCmd exchanges the content of two assets.
type SwapCmd struct {
	PairArgs `embed:""`
}

func (c *SwapCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	x, y := c.resolve(ctx, a)
	if err := a.engine.SwapAssets(ctx, x, y); err != nil {
		return err
	}
	fmt.Println(a.engine.Status())
	return nil
}

// CopyCmd replaces the content of B with the content of A.
type CopyCmd struct {
	PairArgs `embed:""`
}

func (c *CopyCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	x, y := c.resolve(ctx, a)
	if err := a.engine.CopyAssets(ctx, x, y); err != nil {
		return err
	}
	fmt.Println(a.engine.Status())
	return nil
}

// ClearCmd deletes every cached asset after confirmation.
type ClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

func (c *ClearCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !c.Yes {
		p := database.NewTerminalPrompter()
		if !p.Confirm(a.locale.Get(locale.ConfirmClearTitle), a.locale.Get(locale.ConfirmClearText)) {
			return errors.New("clear cancelled")
		}
	}

	if err := a.follow("Clearing", a.engine.ClearCache()); err != nil {
		return err
	}
	fmt.Println(a.engine.Status())
	return nil
}

// PreviewCmd writes a JPEG thumbnail of an image asset.
type PreviewCmd struct {
	ID       string              `arg:"" help:"Asset name or hex database id"`
	Dest     string              `arg:"" type:"path" help:"Output JPEG file"`
	Category assettypes.Category `short:"t" default:"images" help:"Category used to locate the payload"`
	Size     int                 `short:"s" default:"200" help:"Longest edge in pixels"`
}

func (c *PreviewCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	asset := a.engine.CreateAssetInfo(ctx, c.ID, c.Category)
	data, err := a.engine.ExtractAssetToBytes(ctx, asset)
	if err != nil {
		return err
	}
	thumb, err := preview.Thumbnail(data, c.Size)
	if err != nil {
		return err
	}
	return filesystem.WriteFileAtomic(c.Dest, thumb, 0o644)
}

// AliasCmd sets the alias of an asset, or removes it when Alias is empty.
type AliasCmd struct {
	Name  string `arg:"" help:"Asset name"`
	Alias string `arg:"" optional:"" help:"New alias; omit to remove"`
}

func (c *AliasCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	return a.settings.SetAlias(c.Name, c.Alias)
}
