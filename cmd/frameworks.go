package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the reporting frameworks in the active catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		type codeInfo struct {
			Code  string `json:"code"`
			Title string `json:"title"`
		}
		type frameworkInfo struct {
			ID    string     `json:"id"`
			Name  string     `json:"name"`
			Codes []codeInfo `json:"codes,omitempty"`
		}

		out := struct {
			Version    string          `json:"catalog_version"`
			Frameworks []frameworkInfo `json:"frameworks"`
		}{Version: cat.Version}

		for _, fw := range cat.Frameworks {
			info := frameworkInfo{ID: fw.ID, Name: fw.Name}
			for _, code := range fw.Codes {
				info.Codes = append(info.Codes, codeInfo{Code: code.Code, Title: code.Title})
			}
			out.Frameworks = append(out.Frameworks, info)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(frameworksCmd)
}
