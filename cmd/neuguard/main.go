// Package main is the CLI entry point for neuguard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eliteGoblin/focusd/neuguard/internal/app"
	"github.com/eliteGoblin/focusd/neuguard/internal/config"
	"github.com/eliteGoblin/focusd/neuguard/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neuguard",
	Short: "Focus guard - blocks distracting apps and websites",
	Long: `neuguard lists running and installed applications, terminates blocked
processes, and blocks distracting websites through the hosts file.

Run 'neuguard monitor' to enforce the blocklist continuously.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: "+config.DefaultPath()+")")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(versionCmd)
}

// resolvedConfigPath is --config, or the per-mode default path.
func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newEngine loads the config and builds an Engine for one-shot commands.
// The caller must run the returned cleanup.
func newEngine() (*app.Engine, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, _ := zap.NewDevelopment()
	engine := app.NewFromConfig(cfg, logger)
	return engine, cfg, func() { _ = logger.Sync() }, nil
}

// withStore opens the encrypted store and attaches it for PIN and history
// commands.
func withStore(engine *app.Engine, cfg *config.Config) (func(), error) {
	store, err := infra.OpenEncryptedStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data store: %w", err)
	}
	engine.WithSecrets(store).WithActivityLog(store)
	return func() { _ = store.Close() }, nil
}

// warnIfNotElevated logs a warning when the hosts file is likely read-only
// for this process.
func warnIfNotElevated(logger *zap.Logger) {
	mode := infra.DetectExecMode()
	if mode.IsElevated {
		return
	}
	logger.Warn("not running elevated; hosts file changes will fail",
		zap.String("mode", mode.Mode.String()),
		zap.String("hosts_path", mode.HostsPath))
}

// createLogger builds the JSON file logger used by the monitor.
func createLogger(logFile string) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, zap.InfoLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(os.Stderr), zap.InfoLevel),
	)
	return zap.New(core)
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("neuguard %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
