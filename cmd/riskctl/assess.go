package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibbank/creditrisk/internal/application/dto"
)

func assessCmd(g *globalFlags) *cobra.Command {
	var applicant string

	cmd := &cobra.Command{
		Use:   "assess <applicant.json>",
		Short: "Score one applicant form and store the submission",
		Long: `Assess reads an applicant form as JSON ("-" reads stdin), scores it,
stores the submission and prints the prediction as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var req dto.ScoreApplicantRequest
			if err := json.NewDecoder(r).Decode(&req); err != nil {
				return fmt.Errorf("decode applicant: %w", err)
			}
			req.UserID = applicant

			a, err := openApp(g, 1, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.uc.ScoreApplicant.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&applicant, "applicant", cliUser, "Applicant the submission is recorded for")
	return cmd
}
