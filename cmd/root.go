package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	cfgpkg "github.com/KaramelBytes/tidyframe-cli/internal/config"
	"github.com/KaramelBytes/tidyframe-cli/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	// Configured diagnostic logger, attached to each command's context
	appLog *slog.Logger

	// flushes remote log sinks on exit
	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "tidyframe",
	Short: "tidyframe: clean tabular data in one pass",
	Long: `tidyframe reads a CSV, TSV or XLSX table and runs a fixed cleaning pipeline:
missing-value handling, IQR outlier removal, constant-column pruning,
one-hot encoding and standardization. It writes the cleaned table, a log of
every action taken and diagnostic plots.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if appLog != nil {
			cmd.SetContext(logger.WithContext(cmd.Context(), appLog))
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/tidyframe/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, closeFn, err := logger.Setup(logger.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Output: os.Stderr,
		SeqURL: cfg.LogSeqURL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		return
	}
	closeLog()
	closeLog = closeFn
	appLog = l
}

// currentConfig returns the loaded configuration, or the defaults when
// loading was skipped.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}
