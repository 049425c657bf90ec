// =============================================================================
// Pre-Alert Engine - Filter Command
// =============================================================================
//
// COMMAND USAGE:
//   prealert filter FILE --term TERM [--format table|yaml]
//
// Prints the rows whose text or numeric fields contain the term,
// case-insensitively, with the totals of the filtered rows.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/prealert-engine/internal/filter"
)

var (
	filterTerm   string
	filterFormat string
)

var filterCmd = &cobra.Command{
	Use:   "filter FILE",
	Short: "Search the line items of a file",
	Long: `Filter loads a file and keeps the rows where any displayed field contains
the search term (case-insensitive). Numbers are matched on their plain
decimal text, so "1086.94" and "150" both work. An empty term keeps every row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadCollection(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch filterFormat {
		case "table":
			for _, b := range result.Shipments {
				matches := filter.ByTerm(b.Items, filterTerm)
				printItems(out, fmt.Sprintf("MAWB %s (%d of %d)", b.ShipmentID, len(matches), len(b.Items)), matches)
			}
		case "yaml":
			data, err := yaml.Marshal(filter.ByTerm(result.Items(), filterTerm))
			if err != nil {
				return eris.Wrap(err, "render yaml")
			}
			_, err = out.Write(data)
			return err
		default:
			return eris.Errorf("unknown format %q (want table or yaml)", filterFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringVarP(&filterTerm, "term", "t", "", "Search term")
	filterCmd.Flags().StringVar(&filterFormat, "format", "table", "Output format: table or yaml")
}
