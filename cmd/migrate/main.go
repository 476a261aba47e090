package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/asakaida/monban/internal/infrastructure/config"
	"github.com/asakaida/monban/internal/infrastructure/database"
	"github.com/asakaida/monban/internal/infrastructure/logging"
	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	envFlag string
	pg      *database.Postgres
	log     = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool for Monban",
	Long: `Database migration tool for Monban.
Manages the PostgreSQL ACL schema using golang-migrate.
SQLite deployments migrate themselves at server start.`,
	PersistentPreRunE: setupDatabase,
	SilenceUsage:      true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runUp,
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback migrations",
	Long:  `Rollback the specified number of migrations (default: 1).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDown,
}

var gotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoto,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current migration version",
	RunE:  runVersion,
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Force set migration version (use with caution)",
	Long:  `Force set the migration version without running migrations. Use with caution.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runForce,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(gotoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(forceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func setupDatabase(cmd *cobra.Command, args []string) error {
	if err := config.InitConfig(envFlag); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if log, err = logging.New(cfg.Log, nil); err != nil {
		return err
	}
	log.Info().Str("env", envFlag).Msg("Using environment")

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations only apply to %s, DB_DRIVER is %s", config.DriverPostgres, cfg.Database.Driver)
	}

	pg, err = database.NewPostgres(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().
		Str("user", cfg.Database.User).
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("Connected to database")
	return nil
}

func newMigrate() (*migrate.Migrate, error) {
	root, err := config.ProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	migrationsPath := filepath.Join(root, database.MigrationsDir)
	log.Debug().Str("path", migrationsPath).Msg("Using migrations path")

	return pg.NewMigrate(migrationsPath)
}

func runUp(cmd *cobra.Command, args []string) error {
	m, err := newMigrate()
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Msg("No migrations to apply")
	case err != nil:
		return fmt.Errorf("migration up failed: %w", err)
	default:
		log.Info().Msg("Migration up completed successfully")
	}
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	steps := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("steps must be a positive integer, got %q", args[0])
		}
		steps = n
	}

	m, err := newMigrate()
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Steps(-steps)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Msg("No migrations to rollback")
	case err != nil:
		return fmt.Errorf("migration down failed: %w", err)
	default:
		log.Info().Int("steps", steps).Msg("Migration down completed successfully")
	}
	return nil
}

func runGoto(cmd *cobra.Command, args []string) error {
	version, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}

	m, err := newMigrate()
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Migrate(uint(version))
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Uint64("version", version).Msg("Already at version")
	case err != nil:
		return fmt.Errorf("migration goto failed: %w", err)
	default:
		log.Info().Uint64("version", version).Msg("Migration goto completed successfully")
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	m, err := newMigrate()
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info().Msg("No migrations applied yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current version")
	return nil
}

func runForce(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}

	m, err := newMigrate()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("migration force failed: %w", err)
	}

	log.Warn().Int("version", version).Msg("Migration version forced")
	return nil
}
