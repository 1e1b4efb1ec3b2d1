package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mikeparcewski/wicked-search/internal/config"
	"github.com/mikeparcewski/wicked-search/internal/gateway"
	"github.com/mikeparcewski/wicked-search/internal/obs"
	"github.com/mikeparcewski/wicked-search/internal/orchestrator"
	"github.com/mikeparcewski/wicked-search/internal/query"
	"github.com/mikeparcewski/wicked-search/internal/store"
	"github.com/mikeparcewski/wicked-search/internal/types"
)

// version is overwritten at release build time via -ldflags, mirroring
// the teacher's own centralized version variable.
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "wicked-search",
		Usage:   "Structural code-and-document understanding engine",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Project root directory to index", Value: "."},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Named project (defaults to the reserved \"default\" project)"},
			&cli.StringFlag{Name: "db", Usage: "Path to the unified.db SQLite file (defaults under the project data directory)"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Show diagnostic logging"},
		},
		Before: func(c *cli.Context) error {
			obs.EnableVerbose = c.Bool("verbose")
			return nil
		},
		Commands: []*cli.Command{
			indexCommand(),
			serveCommand(),
			statsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "wicked-search:", err)
		var oerr *obs.Error
		if errors.As(err, &oerr) {
			os.Exit(oerr.Kind.CLIExitCode())
		}
		os.Exit(3)
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Index a project tree into the Unified Store",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "full", Usage: "Force a full reindex, ignoring prior snapshots"},
			&cli.BoolFlag{Name: "watch", Usage: "Re-index incrementally on every filesystem change"},
		},
		Action: func(c *cli.Context) error {
			cfg, st, err := openProject(c)
			if err != nil {
				return err
			}
			defer st.Close()

			orc := orchestrator.New(cfg, st)
			ctx, cancel := signalContext()
			defer cancel()

			project := projectName(c)
			if c.Bool("watch") {
				fmt.Printf("watching %s (project %q), ctrl-c to stop\n", cfg.Project.Root, project)
				return orc.Watch(ctx, project)
			}

			result, err := orc.Index(ctx, project, !c.Bool("full"))
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the Data API Gateway HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address", Value: ":18889"},
			&cli.StringFlag{Name: "plugin-dir", Usage: "Directory of sibling wicked-garden plugin manifests"},
		},
		Action: func(c *cli.Context) error {
			cfg, st, err := openProject(c)
			if err != nil {
				return err
			}
			defer st.Close()

			engine := query.New(st)
			srv := gateway.NewServer(engine, cfg, c.String("plugin-dir"))

			addr := c.String("addr")
			fmt.Printf("wicked-search gateway listening on %s\n", addr)

			ctx, cancel := signalContext()
			defer cancel()

			httpSrv := &http.Server{Addr: addr, Handler: srv}
			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()

			select {
			case <-ctx.Done():
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if err == http.ErrServerClosed {
					return nil
				}
				return err
			}
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print aggregate counts and histograms for a project",
		Action: func(c *cli.Context) error {
			_, st, err := openProject(c)
			if err != nil {
				return err
			}
			defer st.Close()

			engine := query.New(st)
			stats, err := engine.Stats(context.Background(), projectName(c))
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

// openProject loads configuration for --root and opens (creating if
// absent) the project's Unified Store at --db, or its default location
// under the project data directory (spec.md §6's persisted state layout).
func openProject(c *cli.Context) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(c.String("root"))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = defaultDBPath(projectName(c))
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, st, nil
}

func defaultDBPath(project string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if project == types.DefaultProject {
		return filepath.Join(home, ".local", "share", "wicked-search", "default", "unified.db")
	}
	return filepath.Join(home, ".local", "share", "wicked-search", "projects", project, "unified.db")
}

func projectName(c *cli.Context) string {
	if p := c.String("project"); p != "" {
		return p
	}
	return types.DefaultProject
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
