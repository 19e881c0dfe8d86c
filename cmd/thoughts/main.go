// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	thoughts "github.com/mskvii/bot2-2"
	"github.com/mskvii/bot2-2/core"
	"github.com/mskvii/bot2-2/internal/api"
	"github.com/mskvii/bot2-2/internal/config"
	"github.com/mskvii/bot2-2/mirror"
	"github.com/mskvii/bot2-2/search"
	"github.com/mskvii/bot2-2/storage/filestore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "thoughts",
		Usage: "Record store for the thoughts chat bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Data directory (overrides data_dir from the config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides http.addr from the config)",
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Print a post as JSON",
				ArgsUsage: "<post-id>",
				Action:    getCommand,
				Flags:     []cli.Flag{requesterFlag()},
			},
			{
				Name:   "search",
				Usage:  "Search posts, replies or likes",
				Action: searchCommand,
				Flags: []cli.Flag{
					requesterFlag(),
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Record kind to search (post, reply, like)",
						Value: string(core.KindPost),
					},
					&cli.StringFlag{
						Name:    "keyword",
						Aliases: []string{"k"},
						Usage:   "Case-insensitive keyword",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Exact post category",
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Author id",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
				},
			},
			{
				Name:      "delete-post",
				Usage:     "Delete a post with its replies, likes and message ref",
				ArgsUsage: "<post-id>",
				Action:    deletePostCommand,
				Flags:     []cli.Flag{requesterFlag()},
			},
			{
				Name:   "audit",
				Usage:  "Print the access log of a day",
				Action: auditCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "day",
						Usage: "Day to print, as YYYY-MM-DD in local time",
						Value: time.Now().Format(time.DateOnly),
					},
				},
			},
			{
				Name:   "actions",
				Usage:  "Print the action trail",
				Action: actionsCommand,
			},
		},
	}
}

func requesterFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "as",
		Usage: "Act as this user id. Empty acts as the system",
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.HTTP.Addr
	if a := c.String("addr"); a != "" {
		addr = a
	}
	if addr == "" {
		return errors.New("listen address is required")
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(api.NewHandler(repo, slog.Default())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", addr, "data_dir", cfg.DataDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func getCommand(c *cli.Context) error {
	id, err := postIDArg(c)
	if err != nil {
		return err
	}
	repo, err := openFromContext(c)
	if err != nil {
		return err
	}
	defer repo.Close()

	post, err := repo.GetPost(c.Context, id, c.String("as"))
	if err != nil {
		return err
	}
	return printJSON(c, post)
}

func searchCommand(c *cli.Context) error {
	repo, err := openFromContext(c)
	if err != nil {
		return err
	}
	defer repo.Close()

	results, err := repo.Search(c.Context, search.Query{
		Kind:        core.Kind(c.String("kind")),
		Keyword:     c.String("keyword"),
		Category:    c.String("category"),
		AuthorID:    c.String("author"),
		RequesterID: c.String("as"),
		Limit:       c.Int("limit"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, results)
}

func deletePostCommand(c *cli.Context) error {
	id, err := postIDArg(c)
	if err != nil {
		return err
	}
	repo, err := openFromContext(c)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.DeletePost(c.Context, id, c.String("as")); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted post %d\n", id)
	return nil
}

func auditCommand(c *cli.Context) error {
	day, err := time.ParseInLocation(time.DateOnly, c.String("day"), time.Local)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", c.String("day"), err)
	}
	repo, err := openFromContext(c)
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.AccessLog(day)
	if err != nil {
		return err
	}
	return printJSON(c, entries)
}

func actionsCommand(c *cli.Context) error {
	repo, err := openFromContext(c)
	if err != nil {
		return err
	}
	defer repo.Close()

	actions, err := repo.Actions(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, actions)
}

func postIDArg(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, errors.New("exactly one post id is required")
	}
	id, err := core.ParseID(c.Args().First())
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid post id %q", c.Args().First())
	}
	return id, nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func openFromContext(c *cli.Context) (*thoughts.Repository, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return openRepository(cfg)
}

func openRepository(cfg *config.Config) (*thoughts.Repository, error) {
	return thoughts.Open(cfg.DataDir, repositoryOptions(cfg)...)
}

// repositoryOptions translates cfg into repository options.
func repositoryOptions(cfg *config.Config) []thoughts.Option {
	opts := []thoughts.Option{
		thoughts.WithLogger(slog.Default()),
		thoughts.WithPassphrase(cfg.Encryption.Passphrase),
		thoughts.WithAdmins(cfg.Admins...),
	}
	if cfg.Encryption.Salt != "" {
		opts = append(opts, thoughts.WithSalt([]byte(cfg.Encryption.Salt)))
	}
	if cfg.Mirror.Enabled {
		syncer := mirror.NewGitSyncer(cfg.DataDir, cfg.Mirror.Remote, cfg.Mirror.Branch,
			filestore.RecordDirs(), slog.Default())
		opts = append(opts,
			thoughts.WithSyncer(syncer),
			thoughts.WithMirrorRate(cfg.Mirror.RatePerSecond),
		)
	}
	return opts
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
