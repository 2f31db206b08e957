// Package seed is the demo data CLI. It fills a development database
// with a few users, their pets and posts, and can flip a local
// credential to verified so the signin flow works without email.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/config"
	"github.com/aki-13627/animalia/internal/database"
	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/security"
	"github.com/aki-13627/animalia/internal/tools/common"
	"github.com/aki-13627/animalia/internal/tools/ui"
)

// DemoPassword is the password every seeded credential accepts.
const DemoPassword = "Passw0rd1"

type options struct {
	envFile string
	ci      bool
	email   string
}

type demoUser struct {
	name    string
	email   string
	bio     string
	petName string
	petType domain.PetType
	species string
	caption string
}

var demoUsers = []demoUser{
	{"Taro", "taro@example.com", "dog person", "Pochi", domain.PetTypeDog, "shiba_inu", "Morning walk with Pochi"},
	{"Hanako", "hanako@example.com", "cat cafe regular", "Tama", domain.PetTypeCat, "munchkin", "Tama found a sunbeam"},
	{"Jiro", "jiro@example.com", "", "Koro", domain.PetTypeDog, "golden_retriever", "Koro learned to fetch"},
}

func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "seed",
		Short: "Populate a development database with demo data",
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before connecting")
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "machine-readable output, no interactive view")

	root.AddCommand(
		&cobra.Command{
			Use:   "apply",
			Short: "Insert the demo users, pets and posts",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := run(opts, "seed apply", "apply", func(ctx context.Context) ([]string, error) {
					db, err := openDB(opts.envFile)
					if err != nil {
						return nil, err
					}
					return apply(db)
				})
				return err
			},
		},
		&cobra.Command{
			Use:   "dry-run",
			Short: "Show what apply would insert",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := run(opts, "seed dry-run", "dry-run", func(ctx context.Context) ([]string, error) {
					details := make([]string, 0, len(demoUsers))
					for _, u := range demoUsers {
						details = append(details, fmt.Sprintf("%s <%s> with pet %s and one post", u.name, u.email, u.petName))
					}
					return details, nil
				})
				return err
			},
		},
	)

	verify := &cobra.Command{
		Use:   "verify-local-email",
		Short: "Mark a local credential as email-verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "seed verify-local-email", "verify-local-email", func(ctx context.Context) ([]string, error) {
				if strings.TrimSpace(opts.email) == "" {
					return nil, fmt.Errorf("--email is required")
				}
				db, err := openDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				return verifyLocalEmail(db, opts.email)
			})
			return err
		},
	}
	verify.Flags().StringVar(&opts.email, "email", "", "credential email to mark verified")
	root.AddCommand(verify)

	return root
}

func run(opts *options, title, name string, action ui.Action) ([]string, error) {
	if opts.ci {
		details, err := action(context.Background())
		common.PrintCIResult(err == nil, title, details, err)
		return details, err
	}
	return ui.Run(title, action)
}

func openDB(envFile string) (*gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Open(cfg)
}

// apply inserts the demo graph, skipping users that already exist so the
// command stays rerunnable.
func apply(db *gorm.DB) ([]string, error) {
	hash, err := security.HashPassword(DemoPassword)
	if err != nil {
		return nil, err
	}

	var details []string
	for _, demo := range demoUsers {
		var count int64
		if err := db.Model(&domain.User{}).Where("email = ?", demo.email).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			details = append(details, demo.email+": already seeded")
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			cred := &domain.LocalCredential{Email: demo.email, PasswordHash: hash, EmailVerified: true}
			if err := tx.Create(cred).Error; err != nil {
				return err
			}
			user := &domain.User{Email: demo.email, Name: demo.name, Bio: demo.bio}
			if err := tx.Create(user).Error; err != nil {
				return err
			}
			pet := &domain.Pet{
				OwnerID:  user.ID,
				Name:     demo.petName,
				Type:     demo.petType,
				Species:  demo.species,
				BirthDay: "2022-04-01",
				ImageKey: "pets/seed-" + demo.petName,
			}
			if err := tx.Create(pet).Error; err != nil {
				return err
			}
			post := &domain.Post{
				UserID:   user.ID,
				Caption:  demo.caption,
				ImageKey: "posts/seed-" + user.ID,
			}
			return tx.Create(post).Error
		})
		if err != nil {
			return nil, err
		}
		details = append(details, demo.email+": seeded")
	}
	return details, nil
}

func verifyLocalEmail(db *gorm.DB, email string) ([]string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res := db.Model(&domain.LocalCredential{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{"email_verified": true, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("no credential for %s", email)
	}
	return []string{email + ": verified"}, nil
}
