package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"deskpet/internal/bridge"
	"deskpet/internal/pet"
	"deskpet/internal/ui"
)

var (
	configPath  string
	catalogPath string
)

const Version = "v0.3.0"

const defaultServeAddr = "127.0.0.1:8765"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "deskpet",
		Short:         "deskpet - an animated pet that reacts to clicks, drags and neglect",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if version, _ := cmd.Flags().GetBool("version"); version {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}
			return runTerminal(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to settings file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to animation catalog (YAML or JSON)")
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(bridgeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(simulateCmd())
	return rootCmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Show the pet in the terminal (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerminal(cmd)
		},
	}
}

func runTerminal(cmd *cobra.Command) error {
	env, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer env.log.Sync()

	return ui.Run(ui.Options{
		Catalog:      env.catalog,
		Settings:     env.settings,
		SettingsPath: env.settingsPath,
		Logger:       env.log,
	})
}

func bridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Drive a pet over JSON lines on stdin/stdout",
		Long: "Runs one pet session for a host process that spawned deskpet. Each stdin line is an\n" +
			"interaction message; each stdout line is a command for the host to render.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(false)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			conn := bridge.NewLineConn(os.Stdin, cmd.OutOrStdout())
			return bridge.Serve(cmd.Context(), conn, env.bridgeOptions())
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pet sessions over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			env, err := loadEnv(false)
			if err != nil {
				return err
			}
			defer env.log.Sync()

			env.log.Info("bridge listening", zap.String("addr", addr), zap.Int("animations", env.catalog.Len()))
			if err := bridge.ListenAndServe(cmd.Context(), addr, env.bridgeOptions()); err != nil {
				return fmt.Errorf("serve %s: %w", addr, err)
			}
			env.log.Info("bridge stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", defaultServeAddr, "Listen address")
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the animations the pet knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(true)
			if err != nil {
				return err
			}
			if view, _ := cmd.Flags().GetBool("view"); view {
				return ui.DisplayCatalog(env.catalog)
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderCatalog(env.catalog))
			return nil
		},
	}
	cmd.Flags().Bool("view", false, "Show the listing full screen until a key is pressed")
	return cmd
}

// env is what every command needs: settings, catalog and a logger
type env struct {
	settings     pet.Settings
	settingsPath string
	catalog      *pet.Catalog
	log          *zap.Logger
}

// loadEnv resolves the settings file and catalog from the persistent flags.
// A malformed settings file falls back to defaults with a warning; a bad
// catalog is an error.
func loadEnv(terminal bool) (*env, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = pet.GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	settings, settingsErr := pet.LoadSettings(path)

	log, err := newLogger(settings.Logging, terminal)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if settingsErr != nil {
		log.Warn("using default settings", zap.Error(settingsErr))
	}

	catalog := pet.DefaultCatalog()
	source := catalogPath
	if source == "" {
		source = settings.CatalogPath
	}
	if source != "" {
		catalog, err = pet.LoadCatalog(source)
		if err != nil {
			return nil, err
		}
	}
	log.Debug("environment loaded",
		zap.String("settings", path),
		zap.String("catalog", source),
		zap.Strings("animations", catalog.Names()),
	)

	return &env{
		settings:     settings,
		settingsPath: path,
		catalog:      catalog,
		log:          log,
	}, nil
}

func (e *env) bridgeOptions() bridge.Options {
	return bridge.Options{
		Catalog: e.catalog,
		Config:  e.settings.MachineConfig(),
		Logger:  e.log,
	}
}

// newLogger builds a zap logger from the logging settings. The terminal pet
// owns the screen, so it only logs when a file is configured.
func newLogger(cfg pet.LoggingSettings, terminal bool) (*zap.Logger, error) {
	if terminal && cfg.File == "" {
		return zap.NewNop(), nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
		if cfg.File == "" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zapCfg.Build()
}
