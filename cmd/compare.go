// =============================================================================
// Pre-Alert Engine - Compare Command
// =============================================================================
//
// COMMAND USAGE:
//   prealert compare LEFT RIGHT [flags]
//   prealert compare --demo [flags]
//
// FLAGS:
//   --fields      : Comma-separated fields to compare (default from config)
//   --tolerance   : Absolute tolerance for numeric fields
//   --pairing     : position or key
//   --key-fields  : Fields forming the pairing key (with --pairing key)
//   --report      : Also write a report: xlsx or xml
//   --out         : Report path (default: output dir, configured name)
//   --only-flagged: Leave agreeing pairs out of the xml report
//   --demo        : Compare the sample 810 manifest against its pre-alert
//
// The command exits non-zero only on errors, not on mismatches.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/prealert-engine/internal/board"
	"github.com/ginjaninja78/prealert-engine/internal/mismatch"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/summary"
	"github.com/ginjaninja78/prealert-engine/internal/xlsxreport"
	"github.com/ginjaninja78/prealert-engine/internal/xmlwriter"
	"github.com/ginjaninja78/prealert-engine/pkg/utils"
)

var (
	cmpFields      string
	cmpTolerance   float64
	cmpPairing     string
	cmpKeyFields   string
	cmpReport      string
	cmpOut         string
	cmpOnlyFlagged bool
	cmpDemo        bool
)

var compareCmd = &cobra.Command{
	Use:   "compare LEFT RIGHT",
	Short: "Flag mismatching fields between two sources",
	Long: `Compare pairs the line items of two files, by position or by a key, and
flags every compared field whose values differ. Numbers differ when they are
further apart than the tolerance; text must match exactly.

Items left over on the longer side are listed as unmatched.

Example:
  prealert compare 810_manifest.csv prealert.xlsx --fields qty,unitPrice
  prealert compare --demo --report xlsx --out mismatch.xlsx`,
	Args: func(cmd *cobra.Command, args []string) error {
		if cmpDemo {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&cmpFields, "fields", "", "Comma-separated fields to compare (default from config)")
	compareCmd.Flags().Float64Var(&cmpTolerance, "tolerance", -1, "Absolute tolerance for numeric fields (default from config)")
	compareCmd.Flags().StringVar(&cmpPairing, "pairing", "", "Pairing strategy: position or key (default from config)")
	compareCmd.Flags().StringVar(&cmpKeyFields, "key-fields", "", "Comma-separated key fields for --pairing key")
	compareCmd.Flags().StringVar(&cmpReport, "report", "", "Write a report: xlsx or xml")
	compareCmd.Flags().StringVarP(&cmpOut, "out", "o", "", "Report path")
	compareCmd.Flags().BoolVar(&cmpOnlyFlagged, "only-flagged", false, "Leave agreeing pairs out of the xml report")
	compareCmd.Flags().BoolVar(&cmpDemo, "demo", false, "Compare the sample manifest against its pre-alert")
}

// compareInput is one side of a comparison.
type compareInput struct {
	name  string
	items shipment.Collection
}

func runCompare(cmd *cobra.Command, args []string) error {
	left, right, err := compareInputs(cmd, args)
	if err != nil {
		return err
	}

	fields, opts, tolerance, err := compareSettings(cmd)
	if err != nil {
		return err
	}

	c, err := mismatch.Compare(left.items, right.items, fields, tolerance, opts...)
	if err != nil {
		return err
	}
	logger.Debug("comparison done",
		zap.Int("pairs", len(c.Results)),
		zap.Int("flagged", len(c.Flagged())),
		zap.Int("unmatched", len(c.Unmatched)))

	leftSum, rightSum := summary.Summarize(left.items), summary.Summarize(right.items)
	printComparison(cmd.OutOrStdout(), left.name, right.name, c, leftSum, rightSum)

	if cmpReport == "" {
		return nil
	}
	path, err := writeComparisonReport(left.name, right.name, leftSum, rightSum, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

func compareInputs(cmd *cobra.Command, args []string) (compareInput, compareInput, error) {
	if cmpDemo {
		shipments, err := board.DemoShipments()
		if err != nil {
			return compareInput{}, compareInput{}, err
		}
		manifest, preAlert := board.DemoPair(shipments[0])
		return compareInput{name: "810", items: manifest}, compareInput{name: "pre-alert", items: preAlert}, nil
	}

	var sides [2]compareInput
	for i, path := range args {
		result, err := loadCollection(cmd.Context(), path)
		if err != nil {
			return compareInput{}, compareInput{}, eris.Wrapf(err, "load %s", path)
		}
		sides[i] = compareInput{
			name:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			items: result.Items(),
		}
	}
	return sides[0], sides[1], nil
}

// compareSettings merges the flags over the compare block of the config.
func compareSettings(cmd *cobra.Command) ([]shipment.Field, []mismatch.Option, float64, error) {
	fields, err := appConfig.CompareFields()
	if err != nil {
		return nil, nil, 0, err
	}
	if cmd.Flags().Changed("fields") {
		if fields, err = parseFieldList(cmpFields); err != nil {
			return nil, nil, 0, err
		}
	}

	tolerance := appConfig.Compare.Tolerance
	if cmd.Flags().Changed("tolerance") {
		tolerance = cmpTolerance
	}

	pairing := appConfig.Compare.Pairing
	if cmpPairing != "" {
		pairing = cmpPairing
	}

	var opts []mismatch.Option
	switch mismatch.Pairing(pairing) {
	case mismatch.PairByPosition:
	case mismatch.PairByKey:
		keys, err := appConfig.CompareKeyFields()
		if err != nil {
			return nil, nil, 0, err
		}
		if cmpKeyFields != "" {
			if keys, err = parseFieldList(cmpKeyFields); err != nil {
				return nil, nil, 0, err
			}
		}
		opts = append(opts, mismatch.WithKeyPairing(keys...))
	default:
		return nil, nil, 0, eris.Wrapf(shipment.ErrInvalidArgument, "unknown pairing %q (want position or key)", pairing)
	}

	return fields, opts, tolerance, nil
}

// printComparison renders the flagged pairs side by side, then the
// unmatched rows and the totals.
func printComparison(w io.Writer, leftName, rightName string, c *mismatch.Comparison, left, right summary.Summary) {
	flagged := c.Flagged()
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s vs %s", leftName, rightName)))
	fmt.Fprintf(w, "Compared %d pair(s) on %s, tolerance %v, pairing %s\n",
		len(c.Results), joinFieldNames(c.Fields), c.Tolerance, c.Pairing)

	if c.Clean() {
		fmt.Fprintln(w, okBadge.Render("No mismatches"))
	} else {
		fmt.Fprintln(w, failBadge.Render(fmt.Sprintf("%d mismatching pair(s), %d unmatched item(s)", len(flagged), len(c.Unmatched))))
	}

	if len(flagged) > 0 || len(c.Unmatched) > 0 {
		var t itemTable
		for _, r := range flagged {
			t.add(leftName, *r.Left, r.Fields)
			t.add(rightName, *r.Right, r.Fields)
		}
		for _, u := range c.Unmatched {
			name := leftName
			if u.Side == mismatch.SideRight {
				name = rightName
			}
			t.add(name+" only", u.Item, nil)
		}
		t.render(w)
	}

	fmt.Fprintln(w, titleStyle.Render(leftName))
	printSummary(w, left)
	fmt.Fprintln(w, titleStyle.Render(rightName))
	printSummary(w, right)

	if d := summary.Diff(left, right); !d.IsZero() {
		fmt.Fprintln(w, failBadge.Render(printer.Sprintf("Discrepancy: items %d   QTY %d   USD %.2f   SAR %.2f",
			d.ItemCount, d.TotalQuantity, d.TotalPriceUSD, d.TotalPriceSAR)))
	}
}

func writeComparisonReport(leftName, rightName string, left, right summary.Summary, c *mismatch.Comparison) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)
	switch cmpReport {
	case "xlsx":
		ext = ".xlsx"
		data, err = xlsxreport.GenerateMismatch(xlsxreport.Mismatch{
			LeftName: leftName, RightName: rightName,
			Left: left, Right: right,
			Comparison: c,
		})
	case "xml":
		ext = ".xml"
		data, err = xmlwriter.GenerateMismatchReport(xmlwriter.MismatchReport{
			LeftName: leftName, RightName: rightName,
			Left: left, Right: right,
			Comparison:  c,
			OnlyFlagged: cmpOnlyFlagged,
		})
	default:
		return "", eris.Errorf("unknown report %q (want xlsx or xml)", cmpReport)
	}
	if err != nil {
		return "", err
	}

	path := cmpOut
	if path == "" {
		fm := utils.NewFileManager(appConfig.InputDir, appConfig.OutputDir, appConfig.InputArchiveDir, appConfig.OutputArchiveDir, appConfig.LogsDir)
		if err := os.MkdirAll(appConfig.OutputDir, 0o755); err != nil {
			return "", eris.Wrapf(err, "create %s", appConfig.OutputDir)
		}
		name := fm.GenerateOutputFileName("mismatch_{dataset}_{shipment}_{timestamp}", ext, map[string]string{
			"dataset":  leftName,
			"shipment": rightName,
		})
		path = filepath.Join(appConfig.OutputDir, name)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "write %s", path)
	}
	logger.Info("wrote mismatch report", zap.String("path", path))
	return path, nil
}

func joinFieldNames(fields []shipment.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
