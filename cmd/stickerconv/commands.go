package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/maauso/stickerconv/internal/batch"
	"github.com/maauso/stickerconv/internal/bootstrap"
	"github.com/maauso/stickerconv/internal/config"
	"github.com/maauso/stickerconv/internal/pack"
)

// errItemsFailed makes the process exit with status 1 after the summary
// has already been printed.
var errItemsFailed = errors.New("one or more stickers failed")

var command = &cli.Command{
	Name:  "stickerconv",
	Usage: "Convert emotes and images into WhatsApp stickers",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Show informational logs",
			Aliases: []string{"v"},
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "convert",
			Usage:     "Convert 7TV emote IDs, image URLs or local files",
			ArgsUsage: "<identifier>...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "name",
					Usage:   "Sticker name (only with a single identifier)",
					Aliases: []string{"n"},
				},
			},
			Action: convertAction,
		},
		{
			Name:      "batch",
			Usage:     "Convert every entry of a .txt or .yaml list",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "workers",
					Usage:   "Concurrent conversions (defaults to BATCH_WORKERS)",
					Aliases: []string{"w"},
				},
				&cli.StringFlag{
					Name:  "pack",
					Usage: "Also build WhatsApp sticker packs with this name",
				},
				&cli.StringFlag{
					Name:  "publisher",
					Usage: "Publisher shown in the sticker packs",
					Value: "stickerconv",
				},
				&cli.StringSliceFlag{
					Name:  "emoji",
					Usage: "Emoji attached to every packed sticker (repeatable)",
				},
			},
			Action: batchAction,
		},
	},
}

func setup(c *cli.Command) (*bootstrap.Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !c.Root().Bool("verbose") {
		cfg.LogLevel = "warn"
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	return bootstrap.NewDependencies(cfg, logger, bootstrap.WithLocalFiles())
}

func convertAction(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	name := strings.TrimSpace(c.String("name"))
	if name != "" && len(args) > 1 {
		return errors.New("--name can only be used with a single identifier")
	}

	items := make([]batch.Item, len(args))
	for i, arg := range args {
		items[i] = batch.Item{Source: arg, Name: name}
	}

	deps, err := setup(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	w := c.Root().Writer
	report := deps.NewRunner(batch.WithProgress(func(o batch.Outcome) {
		printOutcome(w, o)
	})).Run(ctx, items)

	return finish(w, report)
}

func batchAction(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return cli.ShowSubcommandHelp(c)
	}

	items, err := batch.ReadList(c.Args().First())
	if err != nil {
		return err
	}

	deps, err := setup(c)
	if err != nil {
		return err
	}
	defer deps.Close()

	w := c.Root().Writer
	fmt.Fprintf(w, "📋 Found %d stickers to convert\n", len(items))

	var opts []batch.Option
	if n := int(c.Int("workers")); n > 0 {
		opts = append(opts, batch.WithWorkers(n))
	}
	opts = append(opts, batch.WithProgress(func(o batch.Outcome) {
		printOutcome(w, o)
	}))
	report := deps.NewRunner(opts...).Run(ctx, items)

	if packName := strings.TrimSpace(c.String("pack")); packName != "" {
		out, err := deps.NewPackBuilder().Build(ctx, report.Results(), pack.Options{
			Name:      packName,
			Publisher: c.String("publisher"),
			Emojis:    c.StringSlice("emoji"),
		})
		if err != nil {
			fmt.Fprintf(w, "❌ Failed building packs: %s\n", err)
		} else {
			printPacks(w, out)
		}
	}

	return finish(w, report)
}

func finish(w io.Writer, report *batch.Report) error {
	printSummary(w, report)
	if len(report.Failed()) > 0 {
		return errItemsFailed
	}
	return nil
}
