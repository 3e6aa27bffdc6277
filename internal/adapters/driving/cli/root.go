// Package cli implements the wearsync command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
	"github.com/custodia-labs/wearsync/internal/core/ports/driving"
	"github.com/custodia-labs/wearsync/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services are the dependencies of commands that reach Garmin or the sink.
type Services struct {
	Sync   driving.SyncService
	Runs   driven.RunStore
	Source driven.SourceClient

	// Close releases sink and database connections. Optional.
	Close func() error
}

// Wiring builds command dependencies once flags are parsed.
type Wiring struct {
	// LoadConfig opens the config file and resolves settings.
	LoadConfig func(path string) (driven.ConfigStore, domain.Settings, error)

	// Build creates the services for validated settings.
	Build func(ctx context.Context, settings domain.Settings) (*Services, error)
}

// Command dependencies. Tests replace them directly.
var (
	wiring      Wiring
	configStore driven.ConfigStore
	settings    domain.Settings
	services    *Services
)

// Global flags.
var (
	configPath string
	verbose    bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "wearsync",
	Short: "Sync Garmin Connect data into a database",
	Long: `wearsync pulls activities, daily stats, sleep, weight, hydration and resting heart rate
from Garmin Connect, flattens them into rows and upserts them into Supabase
(PostgREST), Postgres or a local SQLite database. Every run also writes a JSON
backup of the untouched source documents.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.wearsync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command with the given wiring and returns the
// process exit code.
func Execute(ctx context.Context, w Wiring) int {
	wiring = w
	defer closeServices()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}
	return 0
}

// setup loads configuration and configures logging before any command.
func setup(cmd *cobra.Command, _ []string) error {
	if wiring.LoadConfig != nil {
		store, s, err := wiring.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		configStore, settings = store, s
	}

	level := settings.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if level != "" {
		if err := logger.SetLevel(level); err != nil {
			return err
		}
	}
	if verbose {
		logger.SetVerbose(true)
	}
	if settings.Log.File != "" {
		if err := logger.SetFile(settings.Log.File); err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
	}
	logger.Debug("%s %s", cmd.Root().Name(), version)
	return nil
}

// requireServices builds the services on first use.
func requireServices(ctx context.Context) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if wiring.Build == nil {
		return nil, errors.New("services not configured")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	svc, err := wiring.Build(ctx, settings)
	if err != nil {
		return nil, err
	}
	services = svc
	return services, nil
}

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("Closing connections: %v", err)
	}
}
