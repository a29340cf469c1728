package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"streamliner/internal/api"
	"streamliner/internal/config"
	"streamliner/internal/digest"
	"streamliner/internal/dispatch"
	"streamliner/internal/history"
	"streamliner/internal/logging"
	"streamliner/internal/route"
	"streamliner/internal/server"
	"streamliner/internal/setup"
	"streamliner/internal/tui"
	"streamliner/internal/version"
)

var fetchUsage = map[string]string{
	"github": "List issues and releases of a GitHub repository",
	"gitlab": "List issues and merge requests of a GitLab project",
	"rss":    "List entries of an RSS or Atom feed",
	"http":   "Fetch one web page as a single item",
	"get":    "Detect the provider from the URL and fetch it",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "streamliner: %v\n", err)
		if dispatch.IsInvocationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	commands := make([]*cli.Command, 0, len(dispatch.Commands)+7)
	for _, name := range dispatch.Commands {
		commands = append(commands, fetchCommand(name, stdout, stderr))
	}
	commands = append(commands,
		&cli.Command{
			Name:  "classify",
			Usage: "Print which command get would use for a URL",
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "url", UsageText: "url"},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				u := c.StringArg("url")
				if strings.TrimSpace(u) == "" {
					return fmt.Errorf("%w for %q", dispatch.ErrMissingURL, "classify")
				}
				fmt.Fprintln(stdout, route.Classify(u).Command())
				return nil
			},
		},
		&cli.Command{
			Name:  "serve",
			Usage: "Run MCP server on stdio",
			Action: func(ctx context.Context, c *cli.Command) error {
				s, err := load(c, stderr)
				if err != nil {
					return err
				}
				defer s.Close()
				return server.New(s.runner(), s.cfg.ArchivePath, s.logger).Run(ctx)
			},
		},
		&cli.Command{
			Name:  "api",
			Usage: "Serve items over HTTP",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address", Sources: cli.EnvVars("STREAMLINER_ADDR")},
				&cli.StringFlag{Name: "access-key", Usage: "require this key on /v1 routes", Sources: cli.EnvVars("STREAMLINER_ACCESS_KEY")},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				s, err := load(c, stderr)
				if err != nil {
					return err
				}
				defer s.Close()
				engine := api.NewServer(api.NewHandler(s.runner()), c.String("access-key"), s.logger)
				return serveHTTP(ctx, c.String("addr"), engine, s)
			},
		},
		&cli.Command{
			Name:  "browse",
			Usage: "Browse the items of a URL in the terminal",
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "url", UsageText: "url (optional)"},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				s, err := load(c, stderr)
				if err != nil {
					return err
				}
				defer s.Close()
				return tui.Run(ctx, s.runner(), c.StringArg("url"))
			},
		},
		&cli.Command{
			Name:  "digest",
			Usage: "Summarize the items of a URL with the configured model",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "max-items", Value: digest.DefaultMaxItems, Usage: "items sent to the model"},
			},
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "url", UsageText: "url"},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				u := c.StringArg("url")
				if strings.TrimSpace(u) == "" {
					return fmt.Errorf("%w for %q", dispatch.ErrMissingURL, "digest")
				}
				s, err := load(c, stderr)
				if err != nil {
					return err
				}
				defer s.Close()
				d := &digest.Digester{
					Runner:    s.runner(),
					Extractor: s.extractor(),
					AI:        s.cfg.AIConf,
					MaxItems:  c.Int("max-items"),
					Out:       stdout,
					Logger:    s.logger,
				}
				return d.Run(ctx, u)
			},
		},
		&cli.Command{
			Name:  "history",
			Usage: "List archived items",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "hours", Usage: "Time window in hours (default: 24)", Value: 24},
				&cli.StringFlag{Name: "source", Usage: "only this source tag, e.g. github:issue"},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				return history.Run(ctx, stdout, cfg.ArchivePath, c.Int("hours"), c.String("source"))
			},
		},
		&cli.Command{
			Name:  "setup",
			Usage: "Write streamliner's configuration interactively",
			Action: func(ctx context.Context, c *cli.Command) error {
				path := config.ExpandPath(c.String("config"))
				if path == "" {
					p, err := config.DefaultConfigPath()
					if err != nil {
						return err
					}
					path = p
				}
				return setup.Run(ctx, path, stdout)
			},
		},
		&cli.Command{
			Name:  "version",
			Usage: "Print the version",
			Action: func(ctx context.Context, c *cli.Command) error {
				fmt.Fprintln(stdout, version.GetVersion())
				return nil
			},
		},
	)

	return &cli.Command{
		Name:      "streamliner",
		Usage:     "Normalize GitHub, GitLab, feed and web page items into one JSON shape",
		Version:   version.Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file (default ~/.config/streamliner/config.yaml)"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error", Sources: cli.EnvVars("STREAMLINER_LOG_LEVEL")},
			&cli.StringFlag{Name: "archive", Usage: "append every fetch to this SQLite file"},
			&cli.IntFlag{Name: "timeout", Usage: "HTTP timeout in seconds"},
			&cli.IntFlag{Name: "max-pages", Usage: "API pages to follow per collection"},
		},
		Commands: commands,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return cli.ShowAppHelp(c)
			}
			// Known commands never reach this point; let the dispatcher
			// name the bad token.
			_, err := dispatch.New(dispatch.Adapters{}, nil).Run(ctx, c.Args().Get(0), c.Args().Get(1))
			return err
		},
	}
}

func fetchCommand(name string, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: fetchUsage[name],
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url", UsageText: "url"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			u := c.StringArg("url")
			if strings.TrimSpace(u) == "" {
				return fmt.Errorf("%w for %q", dispatch.ErrMissingURL, name)
			}
			s, err := load(c, stderr)
			if err != nil {
				return err
			}
			defer s.Close()

			env, err := s.runner().Run(ctx, name, u)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(env, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, string(b))
			return err
		},
	}
}

// loadConfig reads --config, or the default location, and applies the
// global flag overrides.
func loadConfig(c *cli.Command) (config.AppConfig, error) {
	var (
		cfg config.AppConfig
		err error
	)
	if path := strings.TrimSpace(c.String("config")); path != "" {
		cfg, err = config.LoadAppConfigFrom(config.ExpandPath(path))
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		config.ApplyEnv(&cfg, os.Getenv)
	} else {
		cfg, err = config.AppConfigLoader()()
		if err != nil {
			return cfg, err
		}
	}

	if v := strings.TrimSpace(c.String("archive")); v != "" {
		cfg.ArchivePath = config.ExpandPath(v)
	}
	if v := c.Int("timeout"); v > 0 {
		cfg.HTTPTimeoutSec = v
	}
	if v := c.Int("max-pages"); v > 0 {
		cfg.MaxPages = v
	}
	return cfg, nil
}

func load(c *cli.Command, stderr io.Writer) (*session, error) {
	logger, err := logging.New(stderr, c.String("log-level"))
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return newSession(cfg, logger)
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, s *session) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(s.cfg.HTTPTimeoutSec)*time.Second*2 + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	s.logger.Info("api stopped")
	return nil
}
