package cmd

import (
	"context"
	"fmt"
	"time"

	userService "insuranceInsights/business/user"
	"insuranceInsights/domain"
	psqlRepo "insuranceInsights/internal/repository/postgres"
	"insuranceInsights/pkg/config"
	"insuranceInsights/pkg/database"
	"insuranceInsights/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

var (
	newUsername string
	newPassword string
	newRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a dashboard account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		db, err := database.InitPostgres(cfg)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		// Account creation never touches the token registry.
		svc := userService.NewUserService(
			psqlRepo.NewUserRepository(db),
			nil,
			utils.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.TTL, cfg.JWT.Issuer),
			validator.New(),
		)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		u, err := svc.CreateUser(ctx, userService.CreateUserInput{
			Username: newUsername,
			Password: newPassword,
			Role:     newRole,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().StringVar(&newUsername, "username", "", "account name")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "account password (min 8 characters)")
	createUserCmd.Flags().StringVar(&newRole, "role", domain.RoleViewer, "viewer or admin")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
}
