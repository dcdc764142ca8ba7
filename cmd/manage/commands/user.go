package commands

import (
	"fmt"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// User flags
	userPassword  string
	userEmail     string
	userFirstName string
	userLastName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form := models.SignupForm{
			Username:  args[0],
			Email:     userEmail,
			FirstName: userFirstName,
			LastName:  userLastName,
			Password:  userPassword,
		}
		if err := validators.NewValidator().Validate(&form); err != nil {
			return fmt.Errorf("invalid user: %v", validators.FieldErrors(err))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return withDB(func(db *gorm.DB) error {
			user := &models.User{
				Username:     form.Username,
				Email:        form.Email,
				FirstName:    form.FirstName,
				LastName:     form.LastName,
				PasswordHash: string(hash),
			}
			err := repositories.NewPostgresUserRepository(db).CreateUser(cmd.Context(), user)
			if repositories.IsConstraintViolation(err) {
				return fmt.Errorf("user %q already exists", form.Username)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d %q\n", user.ID, user.Username)
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user with all their posts, comments and follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			repo := repositories.NewPostgresUserRepository(db)
			user, err := repo.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("user %q: %w", args[0], err)
			}
			if err := repo.DeleteUser(cmd.Context(), user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %q\n", user.Username)
			return nil
		})
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password, at least 8 characters (required)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&userFirstName, "first-name", "", "First name")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "", "Last name")
	userCmd.AddCommand(userCreateCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}
