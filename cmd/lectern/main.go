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
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/lectern"
	"github.com/poiesic/lectern/config"
	"github.com/urfave/cli/v2"
)

const (
	configKey = "config"
	flushKey  = "flush"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lectern",
		Usage: "Index lecture transcripts, ask questions about them and make flashcards",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "lectern.yaml",
				EnvVars: []string{"LECTERN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"d"},
				Usage:   "Path to the vector store directory",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Vector store driver (badger, bolt)",
			},
			&cli.StringFlag{
				Name:  "collection",
				Usage: "Collection name",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Deadline for each operation (defaults to server.request_timeout)",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			serveCommand(),
			indexCommand(),
			queryCommand(),
			flashcardsCommand(),
			summarizeCommand(),
			transcribeCommand(),
			mcpCommand(),
			initCommand(),
		},
	}
}

// setup loads configuration, applies global flag overrides and installs
// the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyGlobalFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, flush, err := newLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	c.App.Metadata[flushKey] = flush
	return nil
}

func teardown(c *cli.Context) error {
	if flush, ok := c.App.Metadata[flushKey].(func()); ok {
		flush()
	}
	return nil
}

func applyGlobalFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("log-level") {
		cfg.Logging.Level = strings.ToLower(c.String("log-level"))
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = strings.ToLower(c.String("log-format"))
	}
	if c.IsSet("store") {
		cfg.Store.Path = c.String("store")
	}
	if c.IsSet("driver") {
		cfg.Store.Driver = c.String("driver")
	}
	if c.IsSet("collection") {
		cfg.Store.Collection = c.String("collection")
	}
	if c.IsSet("timeout") {
		cfg.Server.RequestTimeout = c.Duration("timeout")
	}
}

func settings(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func openEngine(c *cli.Context, opts ...lectern.Option) (*lectern.Engine, error) {
	base := []lectern.Option{
		lectern.WithConfig(settings(c)),
		lectern.WithLogger(slog.Default()),
	}
	engine, err := lectern.NewEngine(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

// commandContext is cancelled by SIGINT/SIGTERM and, when timeout is
// positive, by the deadline.
func commandContext(c *cli.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
