package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchDir      string
	batchForceOCR bool
)

// batchExtensions lists the file types the batch command picks up.
var batchExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".xlsx": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Process multiple documents with bounded concurrency",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		paths := args
		if batchDir != "" {
			dirPaths, err := collectFiles(batchDir)
			if err != nil {
				return err
			}
			paths = append(paths, dirPaths...)
		}
		if len(paths) == 0 {
			return eris.New("no input files: pass file arguments or --dir")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		summary := env.Pipeline.ProcessBatch(ctx, paths, batchForceOCR)

		zap.L().Info("batch complete",
			zap.Int("total", len(paths)),
			zap.Int("processed", summary.Processed),
			zap.Int("failed", summary.Failed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func collectFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if batchExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory to scan for documents")
	batchCmd.Flags().BoolVar(&batchForceOCR, "force-ocr", false, "skip native extraction and OCR every page")
	rootCmd.AddCommand(batchCmd)
}
