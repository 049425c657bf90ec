package csvparser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/prealert-engine/internal/config"
)

func settings() config.CSVSettings {
	return config.CSVSettings{Delimiter: ",", HeaderRows: 1, DataStartRow: 2, Encoding: "UTF-8"}
}

func TestParseReaderBasic(t *testing.T) {
	src := "DN No,Part No,QTY\nQBF6453800,MG874AH/A, 12 \n,,\nQBF6453801,MG854AH/A,30\n"

	table, err := ParseReader(strings.NewReader(src), settings())
	require.NoError(t, err)

	assert.Equal(t, []string{"DN No", "Part No", "QTY"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "12", table.Rows[0].Values["QTY"])
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, 4, table.Rows[1].Number, "blank line keeps numbering")
}

func TestParseReaderMultiLineHeaderAndDataStart(t *testing.T) {
	src := strings.Join([]string{
		"Unit;Total Price;",
		"Price;(USD);QTY",
		"# exported 15/10/2025;;",
		"1086.94;2173.88;2",
	}, "\n")

	s := config.CSVSettings{Delimiter: "semicolon", HeaderRows: 2, DataStartRow: 4}
	table, err := ParseReader(strings.NewReader(src), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"Unit Price", "Total Price (USD)", "QTY"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2173.88", table.Rows[0].Values["Total Price (USD)"])
}

func TestParseReaderWindows1252(t *testing.T) {
	// "Café" with 0xE9 for é.
	src := []byte("Product Name\nCaf\xe9 Cable\n")
	s := settings()
	s.Encoding = "windows-1252"

	table, err := ParseReader(strings.NewReader(string(src)), s)
	require.NoError(t, err)
	assert.Equal(t, "Café Cable", table.Rows[0].Values["Product Name"])
}

func TestParseReaderStripsBOM(t *testing.T) {
	table, err := ParseReader(strings.NewReader("\ufeffDN No\nQBF1\n"), settings())
	require.NoError(t, err)
	assert.Equal(t, []string{"DN No"}, table.Headers)
}

func TestParseReaderErrors(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), settings())
	assert.True(t, errors.Is(err, ErrEmptyFile))

	s := settings()
	s.HeaderRows = 3
	_, err = ParseReader(strings.NewReader("a\nb\n"), s)
	assert.Error(t, err)

	s = settings()
	s.Encoding = "EBCDIC"
	_, err = ParseReader(strings.NewReader("a\n"), s)
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "810_test.csv")
	require.NoError(t, os.WriteFile(path, []byte("QTY|Unit Price\n5|1.5\n"), 0o644))

	s := settings()
	s.Delimiter = "pipe"
	table, err := Parse(path, s)
	require.NoError(t, err)
	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, "1.5", table.Rows[0].Values["Unit Price"])

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), s)
	assert.Error(t, err)
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, '\t', Delimiter("\\t"))
	assert.Equal(t, '|', Delimiter("pipe"))
	assert.Equal(t, ',', Delimiter(""))
	assert.Equal(t, ':', Delimiter(":"))
}
