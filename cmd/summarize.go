// =============================================================================
// Pre-Alert Engine - Summarize Command
// =============================================================================
//
// COMMAND USAGE:
//   prealert summarize FILE... [flags]
//
// Loads every file concurrently and prints the totals of each shipment
// (MAWB), each file, and the grand total.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/prealert-engine/internal/loader"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
)

var summarizeItems bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize FILE...",
	Short: "Total the line items of one or more files",
	Long: `Summarize loads CSV, XLSX or YAML files and prints item count, total
quantity and total price in USD and SAR per shipment and per file.

Rows that fail validation are skipped and reported on stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		picker, err := newDatasetPicker("")
		if err != nil {
			return err
		}

		results, err := loader.LoadFiles(cmd.Context(), args, picker.prepare(args), loader.BatchOptions{
			MaxConcurrency:  appConfig.MaxConcurrency,
			ContinueOnError: true,
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var all shipment.Collection
		failed := 0
		for _, fr := range results {
			if fr.Err != nil {
				failed++
				fmt.Fprintf(out, "%s %s: %v\n", failBadge.Render("FAIL"), filepath.Base(fr.Path), fr.Err)
				continue
			}

			r := fr.Result
			fmt.Fprintf(out, "%s %s (%s, %d rows, %d skipped)\n",
				okBadge.Render("OK"), filepath.Base(fr.Path), r.Dataset, r.Rows, len(r.Errors))
			for _, b := range r.Shipments {
				if summarizeItems {
					printItems(out, "  MAWB "+b.ShipmentID, b.Items)
					continue
				}
				fmt.Fprintln(out, titleStyle.Render("  MAWB "+b.ShipmentID))
				printSummary(out, summary.Summarize(b.Items))
			}
			if len(r.Errors) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), loader.FormatErrors(r.Errors))
			}
			all = append(all, r.Items()...)
		}

		if len(args) > 1 {
			fmt.Fprintln(out, titleStyle.Render("Grand total"))
			printSummary(out, summary.Summarize(all))
		}
		if failed > 0 {
			return eris.Errorf("%d of %d file(s) failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().BoolVar(&summarizeItems, "items", false, "Print the line items of every shipment")
}
