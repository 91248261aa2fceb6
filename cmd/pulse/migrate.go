package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/riskibarqy/pulse-leaderboard/internal/app"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/spf13/cobra"
)

type migrateOptions struct {
	dir string
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	mopts := &migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect Postgres schema migrations",
	}
	cmd.PersistentFlags().StringVar(&mopts.dir, "dir", "", "migrations directory (default MIGRATIONS_DIR or ./db/migrations)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, mopts, func(cmd *cobra.Command, m *migrate.Migrate, logger *logging.Logger, _ []string) error {
				if err := ignoreNoChange(m.Up(), logger); err != nil {
					return err
				}
				logger.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrator(opts, mopts, func(cmd *cobra.Command, m *migrate.Migrate, logger *logging.Logger, args []string) error {
				steps, err := parseSteps(args)
				if err != nil {
					return err
				}
				if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
					return err
				}
				logger.Info("migrations rolled back", "steps", steps)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(opts, mopts, func(cmd *cobra.Command, m *migrate.Migrate, _ *logging.Logger, _ []string) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					return writeJSON(cmd.OutOrStdout(), opts.pretty, map[string]any{"version": nil, "dirty": false})
				}
				if err != nil {
					return fmt.Errorf("read version: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), opts.pretty, map[string]any{"version": version, "dirty": dirty})
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the version without running migrations (clears dirty)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(opts, mopts, func(cmd *cobra.Command, m *migrate.Migrate, logger *logging.Logger, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				if err := m.Force(version); err != nil {
					return fmt.Errorf("force version %d: %w", version, err)
				}
				logger.Info("forced migration version", "version", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a target version",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(opts, mopts, func(cmd *cobra.Command, m *migrate.Migrate, logger *logging.Logger, args []string) error {
				target, err := parseTarget(args[0])
				if err != nil {
					return err
				}
				if err := ignoreNoChange(m.Migrate(target), logger); err != nil {
					return err
				}
				logger.Info("migrated to version", "version", target)
				return nil
			}),
		},
	)
	return cmd
}

type migrateFunc func(cmd *cobra.Command, m *migrate.Migrate, logger *logging.Logger, args []string) error

// withMigrator opens a migrator without wiring the rest of the app; the
// schema has to be migratable before the repositories can ping it.
func withMigrator(opts *rootOptions, mopts *migrateOptions, fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		logger := newLogger(cfg).Named("migrate")
		defer func() { _ = logger.Sync() }()

		dbURL := app.DatabaseURL(cfg)
		if dbURL == "" {
			return errors.New("DB_URL is required")
		}

		dir, err := resolveMigrationsDir(mopts.dir)
		if err != nil {
			return fmt.Errorf("resolve migrations dir: %w", err)
		}

		sourceURL := "file://" + filepath.ToSlash(dir)
		m, err := migrate.New(sourceURL, dbURL)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer closeMigrator(m, logger)

		logger.Debug("migrator ready", "source", sourceURL)
		return fn(cmd, m, logger, args)
	}
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < -1 {
		return 0, fmt.Errorf("version must be >= -1")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}

	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db", "error", dbErr)
	}
}

func resolveMigrationsDir(flagDir string) (string, error) {
	candidates := []string{
		strings.TrimSpace(flagDir),
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked --dir, MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}
