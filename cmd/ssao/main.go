// Command ssao renders scenes with screen-space ambient occlusion, either in
// a window or headless to a PNG.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"ssao-engine/config"
)

// app carries what every subcommand needs after flag parsing.
type app struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func (a *app) load() error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		if err := cfg.Log.Level.UnmarshalText([]byte(a.logLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	a.cfg = cfg

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level})
	slog.SetDefault(slog.New(handler))
	slog.Debug("config loaded", "path", a.configPath)
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ssao",
		Short:         "Screen-space ambient occlusion viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "TOML config file (watched for changes by view)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides [log] level)")

	root.AddCommand(newViewCmd(a), newRenderCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("ssao failed", "err", err)
		stop()
		os.Exit(1)
	}
}
