// =============================================================================
// Pre-Alert Engine - Generate Command
// =============================================================================
//
// COMMAND USAGE:
//   prealert generate [flags]
//
// FLAGS:
//   --count       : Number of line items (default 15)
//   --prefix      : Batch prefix for item ids (default "S1")
//   --seed        : Seed for reproducible quantities (0 = random)
//   --unit-price  : Unit price in USD (default 1086.94)
//   --shipment    : MAWB number written to xml/xlsx output
//   --format      : table, xlsx, xml or yaml (default table)
//   --out         : Output file (required for xlsx, stdout otherwise)
//   --xsd         : Also write the XML schema to this file (xml only)
//   --product     : PART:NAME, given twice for the even and odd products
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/prealert-engine/internal/board"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/xlsxreport"
	"github.com/ginjaninja78/prealert-engine/internal/xmlwriter"
)

var (
	genCount     int
	genPrefix    string
	genSeed      uint64
	genUnitPrice float64
	genShipment  string
	genFormat    string
	genOut       string
	genXSD       string
	genProducts  []string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a sample line-item collection",
	Long: `Generate builds a sample shipment: products alternate between the two
default products, quantities are drawn from 10..209 and prices are derived
from the unit price (SAR = USD x 3.75).

Use --seed to get the same quantities on every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []shipment.Option
		if genSeed != 0 {
			opts = append(opts, shipment.WithSeed(genSeed))
		}
		opts = append(opts, shipment.WithUnitPrice(genUnitPrice))
		if len(genProducts) > 0 {
			even, odd, err := parseProducts(genProducts)
			if err != nil {
				return err
			}
			opts = append(opts, shipment.WithProducts(even, odd))
		}
		if genXSD != "" && genFormat != "xml" {
			return eris.New("--xsd is only supported with --format xml")
		}

		items, err := shipment.Generate(genCount, genPrefix, opts...)
		if err != nil {
			return err
		}
		if err := writeCollection(cmd, genShipment, items, genFormat, genOut); err != nil {
			return err
		}
		if genXSD != "" {
			return writeSchema(cmd, genXSD)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntVar(&genCount, "count", 15, "Number of line items")
	generateCmd.Flags().StringVar(&genPrefix, "prefix", "S1", "Batch prefix for item ids")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0, "Seed for reproducible quantities (0 = random)")
	generateCmd.Flags().Float64Var(&genUnitPrice, "unit-price", shipment.DefaultUnitPrice, "Unit price in USD")
	generateCmd.Flags().StringVar(&genShipment, "shipment", board.DemoShipment1, "MAWB number written to xml and xlsx output")
	generateCmd.Flags().StringVar(&genFormat, "format", "table", "Output format: table, xlsx, xml or yaml")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output file (required for xlsx)")
	generateCmd.Flags().StringVar(&genXSD, "xsd", "", "Also write the XML schema to this file (xml only)")
	generateCmd.Flags().StringArrayVar(&genProducts, "product", nil, "PART:NAME for the even, then the odd items")
}

// parseProducts reads exactly two PART:NAME values.
func parseProducts(values []string) (even, odd shipment.Product, err error) {
	if len(values) != 2 {
		return even, odd, eris.Wrapf(shipment.ErrInvalidArgument, "--product must be given twice, got %d", len(values))
	}
	products := make([]shipment.Product, 2)
	for i, v := range values {
		part, name, ok := strings.Cut(v, ":")
		if !ok || strings.TrimSpace(part) == "" {
			return even, odd, eris.Wrapf(shipment.ErrInvalidArgument, "--product wants PART:NAME, got %q", v)
		}
		products[i] = shipment.Product{PartNumber: strings.TrimSpace(part), ProductName: strings.TrimSpace(name)}
	}
	return products[0], products[1], nil
}

// writeSchema writes the XSD of the shipment document.
func writeSchema(cmd *cobra.Command, path string) error {
	data, err := xmlwriter.GenerateXSD(xmlwriter.DefaultGenerateOptions())
	if err != nil {
		return eris.Wrap(err, "render xsd")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

// writeCollection renders one shipment in the requested format.
func writeCollection(cmd *cobra.Command, shipmentID string, items shipment.Collection, format, out string) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "table":
		if out != "" {
			return eris.New("--out is not supported with --format table")
		}
		printItems(cmd.OutOrStdout(), fmt.Sprintf("MAWB %s", shipmentID), items)
		return nil
	case "yaml":
		data, err = yaml.Marshal(items)
	case "xml":
		data, err = xmlwriter.Generate(xmlwriter.Document{
			Shipments: []xmlwriter.Shipment{{ID: shipmentID, Direction: string(board.Inbound), Items: items}},
		})
	case "xlsx":
		if out == "" {
			return eris.New("--out is required with --format xlsx")
		}
		data, err = xlsxreport.GenerateShipments("Pre-Alert", []xlsxreport.Shipment{
			{ID: shipmentID, Direction: string(board.Inbound), Items: items},
		})
	default:
		return eris.Errorf("unknown format %q (want table, xlsx, xml or yaml)", format)
	}
	if err != nil {
		return eris.Wrapf(err, "render %s", format)
	}

	if out == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", out)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
	return nil
}
