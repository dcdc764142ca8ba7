package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Group flags
	groupTitle       string
	groupDescription string
)

// groupCmd groups the group management subcommands
var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
	Long: `Manage the groups posts can be filed under.

Subcommands:
  create  - Add a group
  list    - List every group
  delete  - Delete a group; its posts stay, without a group`,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Add a group",
	Long: `Add a group.

Examples:
  manage group create cats --title "Cats" --description "All about cats"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.CreateGroupRequest{
			Title:       groupTitle,
			Slug:        args[0],
			Description: groupDescription,
		}
		if err := validators.NewValidator().Validate(&req); err != nil {
			return fmt.Errorf("invalid group: %v", validators.FieldErrors(err))
		}
		return withDB(func(db *gorm.DB) error {
			group := &models.Group{Title: req.Title, Slug: req.Slug, Description: req.Description}
			err := repositories.NewPostgresGroupRepository(db).CreateGroup(cmd.Context(), group)
			if repositories.IsConstraintViolation(err) {
				return fmt.Errorf("a group with slug %q already exists", req.Slug)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %d %q (/group/%s/)\n", group.ID, group.Title, group.Slug)
			return nil
		})
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			groups, err := repositories.NewPostgresGroupRepository(db).GetGroups(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSLUG\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return w.Flush()
		})
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			repo := repositories.NewPostgresGroupRepository(db)
			group, err := repo.GetGroupBySlug(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("group %q: %w", args[0], err)
			}
			if err := repo.DeleteGroup(cmd.Context(), group.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %q\n", group.Slug)
			return nil
		})
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "Group title (required)")
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "Group description (required)")
	groupCmd.AddCommand(groupCreateCmd, groupListCmd, groupDeleteCmd)
	rootCmd.AddCommand(groupCmd)
}
