package main

import (
	"github.com/spf13/cobra"

	"github.com/garyjia/approval-console/internal/domain/entity"
	"github.com/garyjia/approval-console/internal/schema"
)

type schemaOutput struct {
	Key     string              `json:"key"`
	Fields  int                 `json:"fields"`
	Columns []schema.ColumnSpec `json:"columns"`
	Form    schema.FormSpec     `json:"form"`
	Filters []schema.FilterSpec `json:"filters"`
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "schema [key]",
		Short: "Load a form schema and print the generated columns, form and filters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.start(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			svc := c.Approvals()
			key := svc.ActiveSchema().Key
			if len(args) == 1 {
				key = args[0]
			}
			if key == "" {
				key = entity.SchemaBasicApproval
			}

			loaded, err := svc.LoadSchema(cmd.Context(), key)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return writeJSON(cmd.OutOrStdout(), schemaOutput{
				Key:     loaded.Key,
				Fields:  len(loaded.Fields),
				Columns: svc.Columns(ctx),
				Form:    svc.Form(ctx, schema.ParseFormMode(mode)),
				Filters: svc.Filters(ctx),
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(schema.ModeCreate), "Form mode: create, edit or view")
	return cmd
}
