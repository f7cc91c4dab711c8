package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/service"
)

var (
	seedAdminName     string
	seedAdminEmail    string
	seedAdminPassword string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create (or promote) an administrator account",
	Long: `Create an administrator account, or promote an existing account with
the given email to administrator.

Only administrators can delete tasks or see tasks owned by other users,
so a fresh deployment needs at least one seeded admin.

Examples:
  taskdeck seed-admin --email admin@example.com --password <password>

  # Promote an existing self-registered account
  taskdeck seed-admin --email alice@example.com --password unused`,
	RunE: runSeedAdmin,
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedAdminName, "name", "Administrator", "display name for a newly created account")
	seedAdminCmd.Flags().StringVar(&seedAdminEmail, "email", "", "admin email address (required)")
	seedAdminCmd.Flags().StringVar(&seedAdminPassword, "password", "", "admin password (required, min 8 characters)")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(seedAdminCmd)
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Seeding is a one-shot operation; keep the output clean.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if cfg.Storage.Driver != "sqlite" {
		return fmt.Errorf("seed-admin requires persistent storage; set storage.driver to sqlite")
	}

	ctx := cmd.Context()
	users, sessions, _, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	identity := service.NewIdentityService(
		users, sessions,
		[]byte(cfg.Auth.JWTSecret),
		cfg.AccessTokenTTL(), cfg.RefreshTokenTTL(),
		logger,
	)

	user, err := identity.EnsureAdmin(ctx, seedAdminName, seedAdminEmail, seedAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	fmt.Printf("admin ready: %s (%s)\n", user.Email, user.ID)
	return nil
}
