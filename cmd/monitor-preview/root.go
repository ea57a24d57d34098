package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/devpreview"
)

var (
	flagWidth   int
	flagHeight  int
	flagResPack string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "monitor-preview [chart.bin]",
	Short: "Preview a chart file in a live-reloading local window",
	Long:  "monitor-preview opens an ebitengine window that plays a chartcodec-encoded chart file in autoplay, reloading on save.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	rootCmd.Flags().IntVar(&flagWidth, "width", 960, "window width")
	rootCmd.Flags().IntVar(&flagHeight, "height", 540, "window height")
	rootCmd.Flags().StringVar(&flagResPack, "resource-pack", "", "path to a resource-pack TOML overriding hit-colors/hitsounds")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	rootCmd.AddCommand(versionCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("chart file: %w", err)
	}

	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	p := devpreview.NewPreviewer(path, flagResPack, flagWidth, flagHeight, log)
	return p.Run()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
