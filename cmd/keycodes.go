package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/m96-chan/Keysmith/internal/keymap"
)

func newKeycodesCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "keycodes [query]",
		Short: "Search the keycode catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			matches := keymap.SearchKeycodes(query, limit)

			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					Code  string `json:"code"`
					Label string `json:"label"`
				}
				rows := make([]row, len(matches))
				for i, m := range matches {
					rows[i] = row{Code: m.Code, Label: m.Label}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, m := range matches {
				fmt.Fprintf(w, "%s\t%s\n", m.Code, m.Label)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
