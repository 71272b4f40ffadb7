package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memscope/pkg/config"
	"github.com/memscope/pkg/telemetry"
	"github.com/memscope/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger   utils.Logger
	cfg      *config.Config
	shutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "memscope",
	Short: "A crash-safe runtime memory scanner",
	Long: `memscope walks a memory range slot by slot and reports what it finds:
C++ polymorphic objects, named through their MSVC RTTI, and std::string
objects recognized from their length and capacity fields.

Memory can be read from the running process, from a raw memory dump mapped
at a base address, or from the linear memory of a WebAssembly module.
Unreadable or garbage memory is never an error; it simply yields no finding.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			level = utils.LevelDebug
		}
		if cfg.Log.OutputPath != "" {
			fileLogger, err := utils.NewFileLogger(level, cfg.Log.OutputPath)
			if err != nil {
				return err
			}
			logger = fileLogger
		} else {
			logger = utils.NewDefaultLogger(level, os.Stderr)
		}
		utils.SetGlobalLogger(logger)

		shutdown, err = telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Failed to initialize telemetry: %v", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown == nil {
			return nil
		}
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Failed to flush telemetry: %v", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	binName := BinName()
	rootCmd.Example = `  # Scan 256 bytes of this process
  ` + binName + ` scan --addr 0x7ffd1000 --size 256

  # Scan a raw memory dump captured at 0x00400000
  ` + binName + ` scan --source image --image ./dump.bin --image-base 0x400000 --addr 0x401000

  # Scan and record the run, then list recent runs
  ` + binName + ` scan --source image --image ./dump.bin --addr 0x0 --save
  ` + binName + ` history`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(rootCmd.OutOrStdout(), format, args...)
}
