// Command prismd is the CLI entrypoint for the local code-search
// daemon core: index a project, run one-off searches, or serve with
// the Watcher Integrator running.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/prismd/internal/config"
	"github.com/standardbeagle/prismd/internal/coordinator"
	"github.com/standardbeagle/prismd/internal/version"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println(version.FullInfo())
	}

	app := &cli.App{
		Name:    "prismd",
		Usage:   "local code-search daemon core",
		Version: version.Version,
		Commands: []*cli.Command{
			indexCommand,
			searchCommand,
			serveCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "prismd:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return config.Load(absRoot)
}

var indexCommand = &cli.Command{
	Name:      "index",
	Usage:     "build or refresh the index for a project root",
	ArgsUsage: "<root>",
	Action: func(c *cli.Context) error {
		root := c.Args().First()
		if root == "" {
			return cli.Exit("usage: prismd index <root>", 1)
		}

		cfg, err := loadConfig(c, root)
		if err != nil {
			return err
		}

		coord := coordinator.New(cfg.Project.Root, cfg)
		if err := coord.Init(context.Background()); err != nil {
			return err
		}
		defer coord.Shutdown()

		stats := coord.Stats()
		fmt.Printf("indexed %d files, %d lines, %d terms\n", stats.FileCount, stats.ChunkCount, stats.TermCount)
		return nil
	},
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "run a one-off search against a project root",
	ArgsUsage: "<root> <query>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "max results", Value: 10},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return cli.Exit("usage: prismd search <root> <query>", 1)
		}
		root, query := c.Args().Get(0), c.Args().Get(1)

		cfg, err := loadConfig(c, root)
		if err != nil {
			return err
		}

		coord := coordinator.New(cfg.Project.Root, cfg)
		if err := coord.Init(context.Background()); err != nil {
			return err
		}
		defer coord.Shutdown()

		results, err := coord.Search(query, c.Int("limit"))
		if err != nil {
			return err
		}

		for _, r := range results {
			fmt.Printf("%s:%d: %s\n", r.Path, r.Line, r.Text)
		}
		return nil
	},
}

var serveCommand = &cli.Command{
	Name:      "serve",
	Usage:     "index a project root and run the watcher until interrupted",
	ArgsUsage: "<root>",
	Action: func(c *cli.Context) error {
		root := c.Args().First()
		if root == "" {
			return cli.Exit("usage: prismd serve <root>", 1)
		}

		cfg, err := loadConfig(c, root)
		if err != nil {
			return err
		}

		coord := coordinator.New(cfg.Project.Root, cfg)
		if err := coord.Init(context.Background()); err != nil {
			return err
		}
		if err := coord.StartWatcher(); err != nil {
			fmt.Fprintln(os.Stderr, "prismd: watcher init failed, serving stale index only:", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		return coord.Shutdown()
	},
}
