package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"docpress/internal/verify"
)

const maxConcurrentVerifies = 4

type verifyResult struct {
	Path   string        `json:"path"`
	Report verify.Report `json:"report"`
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var (
		watermarkFlag     string
		encryptedFlag     bool
		expectedPagesFlag int
	)

	cmd := &cobra.Command{
		Use:   "verify <artifact.pdf> [more.pdf...]",
		Short: "Verify finished artifacts against expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := verify.NewEngine(verify.NewPDFInspector())
			exp := verify.Expectations{
				WatermarkText:     watermarkFlag,
				ShouldBeEncrypted: encryptedFlag,
				ExpectedPages:     expectedPagesFlag,
			}

			results := make([]verifyResult, len(args))
			var mu sync.Mutex

			group, groupCtx := errgroup.WithContext(cmd.Context())
			group.SetLimit(maxConcurrentVerifies)
			for i, path := range args {
				group.Go(func() error {
					if err := groupCtx.Err(); err != nil {
						return err
					}
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("read artifact %s: %w", path, err)
					}
					report := engine.Verify(data, exp)
					mu.Lock()
					results[i] = verifyResult{Path: path, Report: report}
					mu.Unlock()
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, results)
			}
			printVerifyResults(cmd, results)

			for _, res := range results {
				if !res.Report.Passed {
					return fmt.Errorf("%s failed verification (%d/%d checks)",
						res.Path, res.Report.ChecksPassed, res.Report.ChecksTotal)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&watermarkFlag, "watermark", "", "Expected watermark text")
	cmd.Flags().BoolVar(&encryptedFlag, "encrypted", false, "Expect the artifact to be encrypted")
	cmd.Flags().IntVar(&expectedPagesFlag, "expected-pages", 0, "Expected page count")

	return cmd
}

func printVerifyResults(cmd *cobra.Command, results []verifyResult) {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "FAIL"
		if res.Report.Passed {
			status = "PASS"
		}
		rows = append(rows, []string{
			res.Path,
			status,
			fmt.Sprintf("%d/%d", res.Report.ChecksPassed, res.Report.ChecksTotal),
			fmt.Sprintf("%d", res.Report.PageCount),
			boolMark(res.Report.WatermarkOnAllPages),
			boolMark(res.Report.IsEncrypted),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Artifact", "Result", "Checks", "Pages", "Watermark", "Encrypted"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
}

func boolMark(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
