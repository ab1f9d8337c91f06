package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docpress/internal/verify"
)

func newDiffCommand(ctx *commandContext) *cobra.Command {
	var (
		watermarkFlag string
		passwordFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <before.pdf> <after.pdf>",
		Short: "Compare a base artifact against its post-processed version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read before artifact: %w", err)
			}
			after, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read after artifact: %w", err)
			}

			engine := verify.NewEngine(verify.NewPDFInspector())
			summary := engine.Diff(before, after, watermarkFlag, passwordFlag)

			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}

			rows := [][]string{
				{"Watermark applied", boolMark(summary.WatermarkApplied)},
				{"Flattened", boolMark(summary.Flattened)},
				{"Password protected", boolMark(summary.PasswordProtected)},
				{"Size change", fmt.Sprintf("%+d bytes", summary.SizeChangeBytes)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Signal", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&watermarkFlag, "watermark", "", "Watermark text expected in the after artifact")
	cmd.Flags().BoolVar(&passwordFlag, "password-applied", false, "Record that a password was applied")

	return cmd
}
