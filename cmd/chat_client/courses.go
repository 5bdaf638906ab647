package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the available courses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}

		courses, err := client.Courses(cmd.Context())
		if err != nil {
			return fmt.Errorf("load courses: %w", err)
		}
		for _, c := range courses {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", c.ID, c.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s, %s, %s, %s\n", "", c.Lecturer.Name, c.Lecturer.Email, c.Lecturer.Phone, c.Lecturer.OfficeHours)
		}
		return nil
	},
}
