package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibbank/creditrisk/internal/application/dto"
)

func reportCmd(g *globalFlags) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report <upload-id>",
		Short: "Render a stored upload as csv, xlsx or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g, 1, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.uc.ExportUploadReport.Execute(cmd.Context(), dto.ExportRequest{
				Caller: dto.Caller{UserID: cliUser, Admin: true},
				ID:     args[0],
				Format: format,
			})
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(doc.Body)
				return err
			}
			if err := os.WriteFile(out, doc.Body, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(doc.Body))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pdf", "Report format (csv, xlsx, pdf)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (stdout when empty)")
	return cmd
}
