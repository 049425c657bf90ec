package loader

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/prealert-engine/internal/shipment"
	"github.com/ginjaninja78/prealert-engine/internal/types"
)

// =============================================================================
// YAML DATASETS
// =============================================================================
//
// A YAML dataset holds line items keyed by field name. Three layouts are
// accepted:
//
//   # a bare list, one shipment named after the file
//   - dnNo: QBF6453800
//     qty: 12
//
//   # one shipment
//   shipment: 176-16884485
//   items: [...]
//
//   # several shipments
//   shipments:
//     - shipment: 176-16884485
//       items: [...]
//
// Totals that are omitted are computed from qty and unitPrice. Row numbers
// in errors are YAML line numbers.
//
// =============================================================================

// yamlBatch is one shipment's item nodes.
type yamlBatch struct {
	shipment string
	items    []*yaml.Node
}

func (l *Loader) loadYAMLFile(filePath string) (*Result, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read file")
	}
	return l.LoadYAML(filePath, data)
}

// LoadYAML loads a YAML dataset held in data. sourceFile is used for the
// default shipment name and error reports.
func (l *Loader) LoadYAML(sourceFile string, data []byte) (*Result, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", sourceFile)
	}

	batches, err := yamlBatches(&root)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", sourceFile)
	}

	table := &types.Table{SourceFile: sourceFile}
	shipmentByRow := make(map[int]string)
	seenHeader := make(map[string]bool)
	var decodeErrs []*RowError

	for _, b := range batches {
		for _, node := range b.items {
			values := make(map[string]string)
			if err := node.Decode(&values); err != nil {
				decodeErrs = append(decodeErrs, &RowError{
					File:    sourceFile,
					Row:     node.Line,
					Rule:    "data_type",
					Message: "Item must be a mapping of scalar values",
				})
				continue
			}
			for key := range values {
				if !seenHeader[key] {
					seenHeader[key] = true
					table.Headers = append(table.Headers, key)
				}
			}
			table.Rows = append(table.Rows, types.Row{Number: node.Line, Values: values})
			shipmentByRow[node.Line] = b.shipment
		}
	}

	result, err := l.load(table, inferMappings(sortedByField(table.Headers)), func(row types.Row, _ map[string]string) string {
		return shipmentByRow[row.Number]
	})
	if err != nil {
		return nil, err
	}

	result.Rows += len(decodeErrs)
	result.Errors = append(decodeErrs, result.Errors...)
	return result, nil
}

// yamlBatches walks the document and returns the item nodes per shipment.
func yamlBatches(root *yaml.Node) ([]yamlBatch, error) {
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]

	switch doc.Kind {
	case yaml.SequenceNode:
		return []yamlBatch{{items: doc.Content}}, nil

	case yaml.MappingNode:
		if list := mappingValue(doc, "shipments"); list != nil {
			if list.Kind != yaml.SequenceNode {
				return nil, eris.Errorf("line %d: shipments must be a list", list.Line)
			}
			batches := make([]yamlBatch, 0, len(list.Content))
			for _, entry := range list.Content {
				b, err := yamlShipment(entry)
				if err != nil {
					return nil, err
				}
				batches = append(batches, b)
			}
			return batches, nil
		}
		b, err := yamlShipment(doc)
		if err != nil {
			return nil, err
		}
		return []yamlBatch{b}, nil

	default:
		return nil, eris.Errorf("line %d: expected a list of items or a shipment mapping", doc.Line)
	}
}

func yamlShipment(node *yaml.Node) (yamlBatch, error) {
	if node.Kind != yaml.MappingNode {
		return yamlBatch{}, eris.Errorf("line %d: shipment entry must be a mapping", node.Line)
	}

	var b yamlBatch
	if id := mappingValue(node, "shipment"); id != nil {
		b.shipment = id.Value
	}

	items := mappingValue(node, "items")
	if items == nil {
		return yamlBatch{}, eris.Errorf("line %d: shipment has no items", node.Line)
	}
	if items.Kind != yaml.SequenceNode {
		return yamlBatch{}, eris.Errorf("line %d: items must be a list", items.Line)
	}
	b.items = items.Content
	return b, nil
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// sortedByField orders headers by their field's column position so the
// inferred mapping does not depend on key order in the file.
func sortedByField(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, f := range shipment.AllFields {
		for _, h := range headers {
			if hf, ok := FieldForHeader(h); ok && hf == f {
				out = append(out, h)
			}
		}
	}
	return out
}
