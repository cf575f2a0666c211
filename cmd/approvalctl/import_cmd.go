package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/approval-console/internal/domain"
	"github.com/garyjia/approval-console/internal/importer"
)

type importOutput struct {
	File       string `json:"file"`
	DurationMS int64  `json:"duration_ms"`
	Imported   int    `json:"imported"`
	Message    string `json:"message"`
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Create approval forms from an excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			if dryRun {
				rows, err := importer.Parse(f)
				if err != nil {
					return fmt.Errorf("%s", domain.UserMessage(err, err.Error()))
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			c, err := opts.start(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			start := time.Now()
			res, err := c.Importer().Import(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("%s", domain.UserMessage(err, err.Error()))
			}
			return writeJSON(cmd.OutOrStdout(), importOutput{
				File:       path,
				DurationMS: time.Since(start).Milliseconds(),
				Imported:   res.Imported,
				Message:    res.Message,
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and print the rows without contacting the upstream")
	return cmd
}
