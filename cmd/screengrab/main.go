package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screengrab/internal/config"
	"github.com/breeze-rmm/screengrab/internal/logging"
)

var (
	version = "0.1.0"

	cfgFile   string
	logLevel  string
	logFormat string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "screengrab",
	Short: "Screen region capture for Windows",
	Long: `Screengrab captures desktop regions through DXGI desktop duplication
and delivers them to files, the clipboard, object storage, or a
collection server.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("screengrab v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is screengrab.yaml in the platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file, with rotation")

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(displaysCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mustLoadConfig loads the config, applies the persistent flag
// overrides, validates, and initializes logging. Fatal config problems
// exit; warnings go to stderr and execution continues with the
// corrected values.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	res := cfg.ValidateTiered()
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config warning: %v\n", w)
	}
	if res.HasFatals() {
		for _, f := range res.Fatals {
			fmt.Fprintf(os.Stderr, "config error: %v\n", f)
		}
		os.Exit(1)
	}

	initLogging(cfg)
	return cfg
}

// Logs go to stderr so capture output on stdout stays clean; a
// configured log file is written alongside, not instead.
func initLogging(cfg *config.Config) {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			out = logging.TeeWriter(os.Stderr, rw)
		}
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, out)
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
