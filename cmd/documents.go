package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/store"
)

var (
	listStatus    string
	listFramework string
	listLimit     int
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Inspect stored documents and their results",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		docs, err := st.ListDocuments(ctx, store.DocumentFilter{
			Status:    model.DocumentStatus(listStatus),
			Framework: listFramework,
			Limit:     listLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list documents")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	},
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show a document's full pipeline result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.GetDocument(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "get document %s", args[0])
		}
		result, err := st.GetDocumentResult(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "get document result %s", args[0])
		}

		out := struct {
			Document *model.Document       `json:"document"`
			Result   *model.DocumentResult `json:"result,omitempty"`
		}{Document: doc, Result: result}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var documentsMetricsCmd = &cobra.Command{
	Use:   "metrics <document-id>",
	Short: "List a document's extracted metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		metrics, err := st.ListMetrics(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "list metrics %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(metrics)
	},
}

func init() {
	documentsListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (pending|processing|processed|failed)")
	documentsListCmd.Flags().StringVar(&listFramework, "framework", "", "filter by primary framework")
	documentsListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum documents to return")
	documentsCmd.AddCommand(documentsListCmd, documentsShowCmd, documentsMetricsCmd)
	rootCmd.AddCommand(documentsCmd)
}
