// Package cli is the `blog` command: the server, schema migration and
// moderation tasks for operators.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/config"
	"github.com/example/blog-platform/internal/platform/logging"
	"github.com/example/blog-platform/services/blog/internal/app"
	blogconfig "github.com/example/blog-platform/services/blog/internal/config"
)

// Opener builds the App a command works against.
type Opener func(ctx context.Context, log *zap.Logger) (*app.App, error)

type cli struct {
	envFiles []string
	cfg      config.AppConfig
	log      *zap.Logger
	open     Opener
}

type Option func(*cli)

// WithOpener replaces the environment-driven App construction.
func WithOpener(o Opener) Option {
	return func(c *cli) { c.open = o }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *cli) { c.log = log }
}

func NewRootCommand(opts ...Option) *cobra.Command {
	c := &cli{}
	for _, o := range opts {
		o(c)
	}
	if c.open == nil {
		c.open = openFromEnv
	}

	root := &cobra.Command{
		Use:           "blog",
		Short:         "Blog platform server and moderation tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
	}
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "env files to preload (default .env)")

	root.AddCommand(c.serveCommand(), c.migrateCommand(), c.reportsCommand(), c.commentsCommand())
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *cli) init() error {
	if err := config.LoadDotEnv(c.envFiles...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg
	if c.log == nil {
		log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
		if err != nil {
			return err
		}
		c.log = log
	}
	return nil
}

func openFromEnv(ctx context.Context, log *zap.Logger) (*app.App, error) {
	cfg, err := blogconfig.LoadBlog()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, log)
}

// withApp opens the App for the duration of fn.
func (c *cli) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := c.open(ctx, c.log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
