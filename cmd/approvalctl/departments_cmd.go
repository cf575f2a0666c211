package main

import (
	"github.com/spf13/cobra"
)

func newDepartmentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "Print the department tree as cascader options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.start(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			options, err := c.Approvals().Departments(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), options)
		},
	}
}
