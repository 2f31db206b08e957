// Package migrate is the schema management CLI. It applies the gorm
// auto-migration, reports which tables exist, previews what an apply
// would touch, and prunes expired session rows.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/config"
	"github.com/aki-13627/animalia/internal/database"
	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/repository"
	"github.com/aki-13627/animalia/internal/tools/common"
	"github.com/aki-13627/animalia/internal/tools/ui"
)

type options struct {
	envFile string
	ci      bool
	timeout time.Duration
}

func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before connecting")
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "machine-readable output, no interactive view")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall command timeout")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply the schema to the configured database",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := run(opts, "migrate up", "up", func(ctx context.Context) ([]string, error) {
					_, db, err := loadConfigDB(opts.envFile)
					if err != nil {
						return nil, err
					}
					if err := database.Migrate(db); err != nil {
						return nil, err
					}
					return []string{fmt.Sprintf("applied %d models", len(domain.AllModels()))}, nil
				})
				return err
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report which tables exist",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := run(opts, "migrate status", "status", func(ctx context.Context) ([]string, error) {
					_, db, err := loadConfigDB(opts.envFile)
					if err != nil {
						return nil, err
					}
					return tableStatus(db)
				})
				return err
			},
		},
		&cobra.Command{
			Use:   "plan",
			Short: "List the models an apply would migrate",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := run(opts, "migrate plan", "plan", func(ctx context.Context) ([]string, error) {
					details := make([]string, 0, len(domain.AllModels()))
					for _, m := range domain.AllModels() {
						details = append(details, fmt.Sprintf("%T", m))
					}
					return details, nil
				})
				return err
			},
		},
		&cobra.Command{
			Use:   "prune-sessions",
			Short: "Delete expired session rows",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := run(opts, "migrate prune-sessions", "prune-sessions", func(ctx context.Context) ([]string, error) {
					_, db, err := loadConfigDB(opts.envFile)
					if err != nil {
						return nil, err
					}
					return pruneSessions(db)
				})
				return err
			},
		},
	)
	return root
}

// pruneSessions drops sessions past their expiry. Revoked rows before
// expiry are kept for audit until they expire too.
func pruneSessions(db *gorm.DB) ([]string, error) {
	removed, err := repository.NewSessionRepository(db).CleanupExpired(time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("removed %d expired sessions", removed)}, nil
}

// run executes the action either interactively or in CI mode, always
// printing a result and propagating the action error.
func run(opts *options, title, name string, action ui.Action) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if opts.ci {
		details, err := action(ctx)
		common.PrintCIResult(err == nil, title, details, err)
		return details, err
	}
	return ui.Run(title, func(context.Context) ([]string, error) { return action(ctx) })
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func tableStatus(db *gorm.DB) ([]string, error) {
	details := make([]string, 0, len(domain.AllModels()))
	for _, m := range domain.AllModels() {
		state := "missing"
		if db.Migrator().HasTable(m) {
			state = "present"
		}
		details = append(details, fmt.Sprintf("%T: %s", m, state))
	}
	return details, nil
}
