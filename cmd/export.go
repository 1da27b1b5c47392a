package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hec-growth-lab/tfp-cli/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Re-export the result table of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return eris.New("export: --out is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if run.Result == nil {
			return eris.Errorf("export: run %s has no result (status %s)", run.ID, run.Status)
		}

		return report.ExportFile(out, run.Result)
	},
}

func init() {
	exportCmd.Flags().String("out", "", "output file (.csv or .xlsx)")
	rootCmd.AddCommand(exportCmd)
}
