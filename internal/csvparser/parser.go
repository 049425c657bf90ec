// =============================================================================
// Pre-Alert Engine - CSV Parser Module
// =============================================================================
//
// This module parses the CSV exports of the carrier and forwarder systems
// into a types.Table. It handles:
//   - Different delimiters (comma, semicolon, pipe, tab)
//   - Multi-line headers
//   - Custom data start rows
//   - Legacy 8-bit encodings (ISO-8859-1, Windows-1252) and UTF-8 BOMs
//   - Quoted fields and lazy quotes
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/prealert-engine/internal/config"
	"github.com/ginjaninja78/prealert-engine/internal/types"
)

// ErrEmptyFile is returned for a file with no rows at all.
var ErrEmptyFile = eris.New("CSV file is empty")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed table.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV settings from the dataset configuration.
//
// RETURNS:
//   - The parsed table. Empty data rows are skipped.
//   - An error if the file cannot be read or has fewer rows than headers.
//
// PARSING PROCESS:
//  1. Decode the file from the configured encoding to UTF-8
//  2. Configure the CSV reader with the delimiter and comment settings
//  3. Read and merge header rows (for multi-line headers)
//  4. Read data rows starting from the configured data start row
func Parse(filePath string, settings config.CSVSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open file")
	}
	defer file.Close()

	table, err := ParseReader(file, settings)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", filePath)
	}
	table.SourceFile = filePath
	return table, nil
}

// ParseReader parses CSV content from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*types.Table, error) {
	if settings.HeaderRows <= 0 {
		return nil, eris.New("header_rows must be at least 1")
	}

	decoded, err := decode(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	configureReader(reader, settings)

	headerRows := make([][]string, 0, settings.HeaderRows)
	table := &types.Table{Rows: make([]types.Row, 0)}

	dataStart := settings.DataStartRow
	if dataStart <= settings.HeaderRows {
		dataStart = settings.HeaderRows + 1
	}

	for recordIndex := 1; ; recordIndex++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read CSV record %d", recordIndex)
		}

		switch {
		case recordIndex <= settings.HeaderRows:
			headerRows = append(headerRows, record)
			if recordIndex == settings.HeaderRows {
				table.Headers = types.MergeHeaders(headerRows)
			}
		case recordIndex < dataStart:
			// Metadata rows between headers and data.
		case types.IsRowEmpty(record):
		default:
			line, _ := reader.FieldPos(0)
			table.Rows = append(table.Rows, types.NewRow(line, table.Headers, record))
		}
	}

	if len(headerRows) == 0 {
		return nil, ErrEmptyFile
	}
	if len(headerRows) < settings.HeaderRows {
		return nil, eris.Errorf("file has %d rows, fewer than header_rows (%d)", len(headerRows), settings.HeaderRows)
	}

	return table, nil
}

// configureReader applies the delimiter and comment settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	if settings.Comment != "" {
		reader.Comment = rune(settings.Comment[0])
	}

	// Exports from the forwarder portal have ragged rows.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false
}

// Delimiter resolves a configured delimiter name to the separator rune.
func Delimiter(name string) rune {
	switch name {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	case "", ",", "comma":
		return ','
	default:
		return []rune(name)[0]
	}
}

// decode wraps r so it yields UTF-8. A leading UTF-8 BOM is dropped.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(encoding), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return transform.NewReader(r, unicode.BOMOverride(transform.Nop)), nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "ISO-8859-15", "LATIN9", "LATIN-9":
		return transform.NewReader(r, charmap.ISO8859_15.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "WINDOWS-1256", "CP1256":
		return transform.NewReader(r, charmap.Windows1256.NewDecoder()), nil
	default:
		return nil, eris.Errorf("unsupported encoding %q", encoding)
	}
}
