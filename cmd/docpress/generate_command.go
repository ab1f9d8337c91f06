package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docpress/internal/history"
	"docpress/internal/job"
	"docpress/internal/logging"
	"docpress/internal/notifications"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		engineFlag        string
		templateFlag      string
		watermarkFlag     string
		passwordFlag      string
		noVerifyFlag      bool
		assetDirFlag      string
		outputDirFlag     string
		expectedPagesFlag int
	)

	cmd := &cobra.Command{
		Use:   "generate <release.json>",
		Short: "Run the full pipeline on a release-notes document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			raw, err := readInput(args[0])
			if err != nil {
				return err
			}

			opts := job.Options{
				Engine:        firstNonEmpty(engineFlag, cfg.Pipeline.DefaultEngine),
				Template:      firstNonEmpty(templateFlag, cfg.Pipeline.DefaultTemplate),
				WatermarkText: watermarkFlag,
				Password:      passwordFlag,
				Verify:        cfg.Pipeline.Verify && !noVerifyFlag,
				AssetDir:      firstNonEmpty(assetDirFlag, cfg.Paths.AssetDir),
				OutputDir:     firstNonEmpty(outputDirFlag, cfg.Paths.OutputDir),
				ExpectedPages: expectedPagesFlag,
			}

			orch, err := ctx.buildOrchestrator()
			if err != nil {
				return err
			}

			notifier := notifications.NewService(cfg)
			j, runErr := orch.Run(cmd.Context(), raw, opts)
			recordHistory(ctx, cfg.History.Enabled, cfg.HistoryDBPath(), j)

			if runErr != nil {
				_ = notifier.NotifyJobFailed(cmd.Context(), j, runErr)
				if ctx.jsonOutput() {
					_ = writeJSON(cmd, j)
				}
				return runErr
			}
			_ = notifier.NotifyJobCompleted(cmd.Context(), j)

			if ctx.jsonOutput() {
				return writeJSON(cmd, j)
			}
			printJobSummary(cmd, j)
			return nil
		},
	}

	cmd.Flags().StringVar(&engineFlag, "engine", "", "Generation engine (docgen or latex)")
	cmd.Flags().StringVar(&templateFlag, "template", "", "Document template name")
	cmd.Flags().StringVar(&watermarkFlag, "watermark", "", "Watermark text (defaults to the template's)")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "Protect the artifact with this password")
	cmd.Flags().BoolVar(&noVerifyFlag, "no-verify", false, "Skip verification of the final artifact")
	cmd.Flags().StringVar(&assetDirFlag, "assets", "", "Directory for resolving image/attachment paths")
	cmd.Flags().StringVar(&outputDirFlag, "output-dir", "", "Directory receiving the artifact")
	cmd.Flags().IntVar(&expectedPagesFlag, "expected-pages", 0, "Assert the artifact's page count during verification")

	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// recordHistory persists the finished job; failures are logged, never
// surfaced, because the artifact has already been delivered.
func recordHistory(ctx *commandContext, enabled bool, dbPath string, j *job.Job) {
	if !enabled || j == nil {
		return
	}
	store, err := history.Open(dbPath)
	if err != nil {
		ctx.ensureLogger().Warn("open history store", logging.Error(err))
		return
	}
	defer store.Close()
	if err := store.Record(context.Background(), j); err != nil {
		ctx.ensureLogger().Warn("record job history", logging.Error(err))
	}
}

func printJobSummary(cmd *cobra.Command, j *job.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %s: %s\n", j.ID, j.State)
	fmt.Fprintf(out, "Artifact: %s (%d bytes, %d pages)\n", j.Artifact.Filename, j.Artifact.SizeBytes, j.Artifact.Pages)
	if j.OutputPath != "" {
		fmt.Fprintf(out, "Saved to: %s\n", j.OutputPath)
	}
	if j.Verification != nil {
		fmt.Fprintf(out, "Verification: %d/%d checks passed\n", j.Verification.ChecksPassed, j.Verification.ChecksTotal)
	}
	for _, warning := range j.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}

	rows := make([][]string, 0, len(j.Steps))
	for _, step := range j.Steps {
		rows = append(rows, []string{
			step.Step,
			step.Status,
			fmt.Sprintf("%d ms", step.DurationMS),
			step.Detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Step", "Status", "Duration", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
}
