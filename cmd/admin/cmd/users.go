package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/talentflow-api/internal/dto"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Provision a persistent admin or recruiter account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		username, _ := flags.GetString("username")
		email, _ := flags.GetString("email")
		password, _ := flags.GetString("password")
		role, _ := flags.GetString("role")

		e, err := loadEnv()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := e.authService().CreateUser(ctx, dto.CreateUserRequest{
			Username: username,
			Email:    email,
			Password: password,
			Role:     role,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Username, user.ID)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-credentials",
	Short: "Delete expired temporary interview credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		result, err := e.authService().CleanupExpiredCredentials(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired credentials\n", result.Deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(cleanupCmd)

	createUserCmd.Flags().StringP("username", "u", "", "login name")
	createUserCmd.Flags().StringP("email", "e", "", "email address")
	createUserCmd.Flags().StringP("password", "p", "", "initial password (at least 8 characters)")
	createUserCmd.Flags().StringP("role", "r", "recruiter", "admin or recruiter")

	for _, name := range []string{"username", "email", "password"} {
		_ = createUserCmd.MarkFlagRequired(name)
	}
}
