package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/casemon/casemon/internal/config"
	"github.com/casemon/casemon/internal/domain/jurisdiction"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "casemon-server",
		Short: "Monitoree FHIR interoperability server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(jurisdictionsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FHIR API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd, statuses)
				return nil
			})
		},
	})

	return cmd
}

func printStatus(cmd *cobra.Command, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, migrations.Files))
}

func jurisdictionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jurisdictions",
		Short: "Manage the jurisdiction hierarchy",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "load <file>",
		Short: "Create jurisdictions from a YAML hierarchy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			nodes, err := jurisdiction.ParseTree(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := jurisdiction.NewRepoPG(pool)
			subtrees, closeRedis, err := subtreeLoader(cfg, jurisdiction.NewService(repo), newLogger(cfg.LogFormat, os.Stderr))
			if err != nil {
				return err
			}
			defer closeRedis()
			var cache subtreeFlusher
			if fl, ok := subtrees.(subtreeFlusher); ok {
				cache = fl
			}

			count, err := loadJurisdictions(ctx, repo, nodes, cache)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d jurisdiction(s).\n", count)
			return nil
		},
	})

	return cmd
}

// subtreeFlusher drops cached subtree lookups.
type subtreeFlusher interface {
	Flush(ctx context.Context) error
}

// loadJurisdictions seeds nodes and, when anything was written, flushes the
// subtree cache so running servers see the new descendants.
func loadJurisdictions(ctx context.Context, repo jurisdiction.Repository, nodes []jurisdiction.Node, cache subtreeFlusher) (int, error) {
	count, err := jurisdiction.Seed(ctx, repo, nodes)
	if count > 0 && cache != nil {
		if ferr := cache.Flush(ctx); ferr != nil {
			err = errors.Join(err, fmt.Errorf("flush jurisdiction cache: %w", ferr))
		}
	}
	return count, err
}
