package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var processForceOCR bool

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process a single document through the full pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		doc, result, err := env.Pipeline.Process(ctx, args[0], processForceOCR)
		if err != nil {
			return eris.Wrapf(err, "process %s", args[0])
		}

		zap.L().Info("document processed",
			zap.String("document_id", doc.ID),
			zap.String("primary_framework", doc.PrimaryFramework),
			zap.Int("metrics", len(result.Metrics)),
			zap.Float64("overall_compliance", result.OverallCompliance),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	processCmd.Flags().BoolVar(&processForceOCR, "force-ocr", false, "skip native extraction and OCR every page")
	rootCmd.AddCommand(processCmd)
}
