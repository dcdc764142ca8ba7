package commands

import (
	"fmt"
	"strconv"

	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Moderate posts",
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid post id %q", args[0])
		}
		return withDB(func(db *gorm.DB) error {
			if err := repositories.NewPostgresPostRepository(db).DeletePost(cmd.Context(), uint(id)); err != nil {
				return fmt.Errorf("post %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %d\n", id)
			return nil
		})
	},
}

func init() {
	postCmd.AddCommand(postDeleteCmd)
	rootCmd.AddCommand(postCmd)
}
