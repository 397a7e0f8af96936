package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/infrastructure/tabular"
)

func scoreCmd(g *globalFlags) *cobra.Command {
	var (
		uploader  string
		notes     string
		workers   int
		reportDir string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "score <file-or-glob>...",
		Short: "Score upload files and store the results",
		Long: `Score expands each argument as a glob (** matches any depth), scores
every CSV, TSV or Excel file it finds as one upload, and prints one summary
line per file. With --report-dir a report of each upload is written there.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandPatterns(args)
			if err != nil {
				return err
			}
			if reportDir != "" {
				if err := os.MkdirAll(reportDir, 0o755); err != nil {
					return fmt.Errorf("create report dir: %w", err)
				}
			}

			a, err := openApp(g, workers, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range files {
				content, err := os.ReadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				resp, err := a.uc.ProcessBatchUpload.Execute(ctx, dto.ProcessBatchUploadRequest{
					UploaderID: uploader,
					Filename:   filepath.Base(path),
					Notes:      notes,
					Content:    content,
				})
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				u := resp.Upload
				fmt.Fprintf(out, "%s\t%s\t%s\trows=%d low=%d medium=%d high=%d persisted=%d failed=%d\n",
					path, u.UploadID, u.Status, u.TotalRows, u.LowCount, u.MediumCount, u.HighCount,
					u.PersistedRows, u.FailedRows)

				if reportDir == "" {
					continue
				}
				doc, err := a.uc.ExportUploadReport.Execute(ctx, dto.ExportRequest{
					Caller: dto.Caller{UserID: uploader},
					ID:     u.UploadID,
					Format: format,
				})
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: report: %v\n", path, err)
					continue
				}
				if err := os.WriteFile(filepath.Join(reportDir, doc.Filename), doc.Body, 0o644); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: write report: %v\n", path, err)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&uploader, "uploader", cliUser, "Uploader recorded on every upload")
	f.StringVar(&notes, "notes", "", "Notes recorded on every upload")
	f.IntVar(&workers, "workers", 8, "Parallel row writers per upload")
	f.StringVar(&reportDir, "report-dir", "", "Write a report of each upload to this directory")
	f.StringVar(&format, "format", "pdf", "Report format (csv, xlsx, pdf)")
	return cmd
}

// expandPatterns resolves globs to a sorted, de-duplicated list of files
// with a supported extension. A pattern that matches nothing is an error.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		n := 0
		for _, m := range matches {
			if !slices.Contains(tabular.Extensions(), strings.ToLower(filepath.Ext(m))) {
				continue
			}
			n++
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
		if n == 0 {
			return nil, fmt.Errorf("no upload files match %q", p)
		}
	}
	sort.Strings(files)
	return files, nil
}
