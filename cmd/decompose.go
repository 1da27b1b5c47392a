package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hec-growth-lab/tfp-cli/internal/decomp"
	"github.com/hec-growth-lab/tfp-cli/internal/ingest"
	"github.com/hec-growth-lab/tfp-cli/internal/model"
	"github.com/hec-growth-lab/tfp-cli/internal/panel"
	"github.com/hec-growth-lab/tfp-cli/internal/report"
)

var decomposeCmd = &cobra.Command{
	Use:   "decompose",
	Short: "Run the TFP growth decomposition over a panel",
	Long:  "Ingests a panel from --input (or re-uses the stored panel), runs the decomposition, persists the run, and prints a summary. Use --out to export the result table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// Flags override config.
		if v, _ := cmd.Flags().GetString("economy"); v != "" {
			cfg.Decomp.Economy = v
		}
		if v, _ := cmd.Flags().GetString("method"); v != "" {
			cfg.Decomp.Method = v
		}
		if v, _ := cmd.Flags().GetInt("base-year"); cmd.Flags().Changed("base-year") {
			cfg.Decomp.BaseYear = v
		}
		if v, _ := cmd.Flags().GetInt("window"); cmd.Flags().Changed("window") {
			cfg.Decomp.Window = v
		}
		if v, _ := cmd.Flags().GetString("charset"); v != "" {
			cfg.Ingest.Charset = v
		}
		if v, _ := cmd.Flags().GetString("sheet"); v != "" {
			cfg.Ingest.SheetName = v
		}
		if err := cfg.Validate("decompose"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")

		var rows []panel.Row
		if input != "" {
			rows, err = ingest.ReadFile(ctx, input, ingest.Options{
				Economy:     cfg.Decomp.Economy,
				MappingFile: cfg.Ingest.MappingFile,
				Charset:     cfg.Ingest.Charset,
				SheetName:   cfg.Ingest.SheetName,
			})
			if err != nil {
				return err
			}
			if err := st.SavePanel(ctx, cfg.Decomp.Economy, rows); err != nil {
				return err
			}
		} else {
			rows, err = st.LoadPanel(ctx, cfg.Decomp.Economy)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return eris.Errorf("no stored panel for economy %s; provide --input", cfg.Decomp.Economy)
			}
		}

		run, err := st.CreateRun(ctx, model.RunRequest{
			Economy:   cfg.Decomp.Economy,
			Method:    cfg.Decomp.Method,
			BaseYear:  cfg.Decomp.BaseYear,
			Window:    cfg.Decomp.Window,
			InputPath: input,
		})
		if err != nil {
			return err
		}

		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusLoading); err != nil {
			return err
		}
		p, err := panel.Load(rows)
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			return eris.Wrap(err, "decompose: load panel")
		}

		if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusComputing); err != nil {
			return err
		}
		rs, err := decomp.Run(ctx, p, decomp.Options{
			Economy:     cfg.Decomp.Economy,
			Method:      decomp.Method(cfg.Decomp.Method),
			BaseYear:    panel.Period(cfg.Decomp.BaseYear),
			Window:      cfg.Decomp.Window,
			Parallelism: cfg.Decomp.Parallelism,
		})
		if err != nil {
			_ = st.FailRun(ctx, run.ID, err.Error())
			return err
		}

		if err := st.CompleteRun(ctx, run.ID, rs); err != nil {
			return err
		}
		zap.L().Info("decompose: run complete", zap.String("run_id", run.ID))

		if err := report.WriteSummary(os.Stdout, rs); err != nil {
			return err
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := report.ExportFile(out, rs); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	decomposeCmd.Flags().String("input", "", "panel source table (.csv or .xlsx); omit to reuse the stored panel")
	decomposeCmd.Flags().String("economy", "", "economy label (CA or US, default from config)")
	decomposeCmd.Flags().String("method", "", "index method (tornqvist or logdiff, default from config)")
	decomposeCmd.Flags().Int("base-year", 0, "base year for the rebased level series (default from config)")
	decomposeCmd.Flags().Int("window", 0, "trailing rolling-mean window (default from config)")
	decomposeCmd.Flags().String("charset", "", "charset of the input file (e.g. windows-1252); default UTF-8")
	decomposeCmd.Flags().String("sheet", "", "XLSX sheet name; default first sheet")
	decomposeCmd.Flags().String("out", "", "export the result table to a .csv or .xlsx file")
	rootCmd.AddCommand(decomposeCmd)
}
