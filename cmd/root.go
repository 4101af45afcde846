package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/msalah0e/h2canvas/internal/config"
	"github.com/msalah0e/h2canvas/internal/drag"
	"github.com/msalah0e/h2canvas/internal/editor"
	"github.com/msalah0e/h2canvas/internal/sim"
	"github.com/msalah0e/h2canvas/internal/ui"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	envFile string
	cfg     = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "h2canvas",
	Short: "h2canvas · hydrogen plant canvas",
	Long: ui.Brand.Sprint(ui.Mark+" h2canvas") + " · sketch and simulate hydrogen plants\n" +
		ui.Subtle.Sprint("Drop electrolyzers, power sources and tanks on a canvas, wire them up, run a day"),
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg = config.Load()
		cfg.ApplyEnv()
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate("h2canvas {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with H2CANVAS_* overrides")

	rootCmd.AddCommand(
		serveCmd(),
		editCmd(),
		simulateCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(w io.Writer, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func simOptions(c *config.Config) sim.Options {
	return sim.Options{
		Steps:       c.Sim.Steps,
		Seed:        uint64(c.Sim.Seed),
		Concurrency: c.Sim.Concurrency,
		Ratings:     c.Plant.Ratings(),
	}
}

func editorOptions(c *config.Config, logger *slog.Logger) editor.Options {
	opts := editor.DefaultOptions()
	opts.HalfExtent = c.Editor.IconHalfExtent
	opts.PromptConnect = c.Editor.PromptConnect
	opts.Inertia = drag.Inertia{
		Resistance: c.Editor.InertiaResistance,
		MinSpeed:   c.Editor.InertiaMinSpeed,
	}
	opts.Logger = logger
	return opts
}
