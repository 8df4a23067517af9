// Command lcat renders a content tree by resolving {#:...:#} placeholders
// in every page, converting markdown and writing the results to an output
// tree. It can run once, keep rebuilding on changes, or also serve the
// output for previewing.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/luacat/lcat/events"
	"github.com/luacat/lcat/internal/build"
)

// CLI is the top-level command-line interface for lcat.
type CLI struct {
	Config  string `help:"Path to the TOML config file" short:"c" default:"lcat.toml" type:"path"`
	Verbose bool   `help:"Log every page, not just summaries" short:"v"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Render the content tree once"`
	Watch WatchCmd `cmd:"" help:"Render, then rebuild whenever the content changes"`
	Serve ServeCmd `cmd:"" help:"Render the content tree, then serve the output over HTTP"`
}

// BuildCmd renders the content tree once.
type BuildCmd struct{}

func (c *BuildCmd) Run(cli *CLI, logger *slog.Logger) error {
	b, err := newBuilder(cli, logger)
	if err != nil {
		return err
	}
	defer b.Stop()

	_, err = b.Build()
	return err
}

// WatchCmd renders, then keeps rebuilding on content changes.
type WatchCmd struct{}

func (c *WatchCmd) Run(ctx context.Context, cli *CLI, logger *slog.Logger) error {
	b, err := newBuilder(cli, logger)
	if err != nil {
		return err
	}
	defer b.Stop()

	return b.Watch(ctx)
}

// ServeCmd renders once and serves the output tree, optionally polling
// for content changes like WatchCmd.
type ServeCmd struct {
	Watch bool `help:"Also rebuild whenever the content changes" short:"w"`
}

func (c *ServeCmd) Run(ctx context.Context, cli *CLI, logger *slog.Logger) error {
	b, err := newBuilder(cli, logger)
	if err != nil {
		return err
	}
	defer b.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	loops := 1
	if c.Watch {
		loops++
		go func() { errCh <- b.Watch(ctx) }()
	} else if _, err := b.Build(); err != nil {
		return err
	}
	go func() { errCh <- b.Serve(ctx) }()

	// The first loop to fail (or be canceled) wins; the shared cancel
	// stops the rest before we return.
	err = <-errCh
	cancel()
	for i := 1; i < loops; i++ {
		<-errCh
	}
	return err
}

func main() {
	var cli CLI
	ktx := kong.Parse(&cli,
		kong.Name("lcat"),
		kong.Description("Renders content trees by resolving {#:...:#} placeholders."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ktx.BindTo(ctx, (*context.Context)(nil))
	ktx.Bind(logger)

	// Cancellation is the normal way the watch and serve loops end.
	if err := ktx.Run(&cli); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// newBuilder loads the config and assembles a builder whose events feed
// the logger.
func newBuilder(cli *CLI, logger *slog.Logger) (*build.Builder, error) {
	conf, err := loadConfig(cli.Config)
	if err != nil {
		return nil, err
	}
	return build.NewBuilder(build.BuilderInput{
		Config:  conf,
		Handler: logHandler(logger),
	})
}

// loadConfig reads the config file, falling back to the defaults when the
// file does not exist. Any other problem with the file is fatal.
func loadConfig(path string) (*build.Config, error) {
	conf, err := build.FromFile(path)
	if err == nil {
		return conf, nil
	}
	if os.IsNotExist(errors.Cause(err)) {
		return build.DefaultConfig(), nil
	}
	return nil, err
}

// logHandler bridges build events onto the logger. Per-page events log at
// debug so a normal run prints one line per pass.
func logHandler(logger *slog.Logger) events.EventHandler {
	return func(e events.Event) {
		switch e := e.(type) {
		case events.BuildStart:
			logger.Debug("build started", "root", e.Root)
		case events.BuildEnd:
			logger.Info("build finished",
				"pages", e.Pages, "rendered", e.Rendered,
				"skipped", e.Skipped, "elapsed", e.Elapsed)
		case events.PageRendered:
			logger.Debug("page rendered",
				"name", e.Name, "path", e.Path, "wrote", e.DidRender)
		case events.PageSkipped:
			logger.Debug("page skipped", "name", e.Name, "reason", e.Reason)
		case events.PageError:
			logger.Error("page failed", "name", e.Name, "error", e.Error)
		case events.WatchTrigger:
			logger.Info("change detected", "path", e.Path)
		case events.ServeStart:
			logger.Info("serving", "address", e.Address, "url", e.URL)
		case events.Trace:
			logger.Debug("trace", "id", e.ID, "message", e.Message)
		}
	}
}
