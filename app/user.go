package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	usercontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/user"
	"github.com/go-overtime-admin/go-overtime-admin/internal/db/models"
)

func init() { //nolint: gochecknoinits
	userCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	userCreateCmd.Flags().StringVar(&userUsername, "username", "", "Username of the new user")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password of the new user")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(models.RoleCommon), "Role of the new user (admin or common)")
	userCreateCmd.Flags().UintVar(&userGroupID, "group", 0, "Group ID the user belongs to")
	userCreateCmd.Flags().UintSliceVar(&userManagedGroups, "managed-groups", nil, "Group IDs an admin user may manage")

	userPasswdCmd.Flags().StringVar(&userUsername, "username", "", "Username of the user")
	userPasswdCmd.Flags().StringVar(&userPassword, "password", "", "New password")

	userDeleteCmd.Flags().StringVar(&userUsername, "username", "", "Username of the user to delete")

	userCmd.AddCommand(userListCmd, userCreateCmd, userPasswdCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

var (
	userUsername      string
	userPassword      string
	userRole          string
	userGroupID       uint
	userManagedGroups []uint

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	userListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := setupCLI()
			if err != nil {
				return err
			}

			users, err := usercontroller.GetAll(db)
			if err != nil {
				return err
			}

			for _, u := range users {
				managed := "-"

				if u.Role == models.RoleAdmin {
					ids, err := usercontroller.ManagedGroupNames(db, u.ID)
					if err != nil {
						return err
					}

					if len(ids) > 0 {
						managed = strings.Join(ids, ", ")
					}
				}

				cmd.Printf("%d\t%s\t%s\t%s\tmanages: %s\n",
					u.ID, u.Username, u.Role, u.Group.Name, managed)
			}

			return nil
		},
	}

	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := setupCLI()
			if err != nil {
				return err
			}

			role := models.Role(userRole)
			if !role.Valid() {
				return fmt.Errorf("invalid role %q (must be admin or common)", userRole)
			}

			// Operator tooling runs without a web actor; group-scope checks
			// do not apply, but group existence and uniqueness still do.
			created, err := usercontroller.Create(db, nil, usercontroller.CreateParams{
				Username:        userUsername,
				Password:        userPassword,
				Role:            role,
				GroupID:         userGroupID,
				ManagedGroupIDs: userManagedGroups,
			})
			if err != nil {
				return err
			}

			cmd.Printf("user %q created with ID %d\n", created.Username, created.ID)

			return nil
		},
	}

	userPasswdCmd = &cobra.Command{
		Use:   "passwd",
		Short: "Change a user's password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := setupCLI()
			if err != nil {
				return err
			}

			if err := usercontroller.SetPassword(db, userUsername, userPassword); err != nil {
				return err
			}

			cmd.Printf("password changed for user %q\n", userUsername)

			return nil
		},
	}

	userDeleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete a user and all of its overtime records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := setupCLI()
			if err != nil {
				return err
			}

			target, err := usercontroller.FindByUsername(db, userUsername)
			if err != nil {
				return err
			}

			if err := usercontroller.Delete(db, nil, target.ID); err != nil {
				return err
			}

			cmd.Printf("user %q deleted\n", userUsername)

			return nil
		},
	}
)
