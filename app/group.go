package app

import (
	"github.com/spf13/cobra"

	groupcontroller "github.com/go-overtime-admin/go-overtime-admin/internal/db/controller/group"
)

func init() { //nolint: gochecknoinits
	groupCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration directory")

	groupCreateCmd.Flags().StringVar(&groupName, "name", "", "Name of the new group")

	groupCmd.AddCommand(groupListCmd, groupCreateCmd)
	rootCmd.AddCommand(groupCmd)
}

var (
	groupName string

	groupCmd = &cobra.Command{
		Use:   "group",
		Short: "Manage organizational groups",
	}

	groupListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := setupCLI()
			if err != nil {
				return err
			}

			groups, err := groupcontroller.GetAll(db)
			if err != nil {
				return err
			}

			for _, g := range groups {
				cmd.Printf("%d\t%s\n", g.ID, g.Name)
			}

			return nil
		},
	}

	groupCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a new group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := setupCLI()
			if err != nil {
				return err
			}

			g, err := groupcontroller.Create(db, groupName)
			if err != nil {
				return err
			}

			cmd.Printf("group %q created with ID %d\n", g.Name, g.ID)

			return nil
		},
	}
)
