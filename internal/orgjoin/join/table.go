package join

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Input names used in error messages.
const (
	InputOrgMapping = "org mapping"
	InputScanReport = "scan report"
)

var (
	errNoColumns   = errors.New("no columns to parse from file")
	errInvalidUTF8 = errors.New("content is not valid UTF-8 text")
)

//nolint:gochecknoglobals // lookup table
var nullMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNull reports whether a raw cell counts as a missing value.
func IsNull(cell string) bool {
	_, ok := nullMarkers[cell]
	return ok
}

// Table is a header-driven CSV document held in memory.
//
// Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the first header cell equal to name, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Missing returns the names in cols that are absent from the header.
func (t Table) Missing(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if t.Column(c) < 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

// ReadTable reads all of r and parses it as CSV with a header row.
//
// Input may be UTF-8 (with or without BOM) or UTF-16 with a BOM. Blank lines are
// skipped, short rows are padded with empty cells, and rows wider than the header
// are rejected. All failures are returned as *ParseError.
func ReadTable(input string, r io.Reader) (Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Table{}, &ParseError{Input: input, Err: err}
	}

	text, err := decodeText(raw)
	if err != nil {
		return Table{}, &ParseError{Input: input, Err: err}
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, &ParseError{Input: input, Err: errNoColumns}
	}
	if err != nil {
		return Table{}, csvParseError(input, err)
	}

	table := Table{Header: header}
	width := len(header)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, csvParseError(input, err)
		}

		if len(record) > width {
			line, _ := reader.FieldPos(0)
			return Table{}, &ParseError{
				Input: input,
				Line:  line,
				Err:   fmt.Errorf("expected %d fields, saw %d", width, len(record)),
			}
		}

		for len(record) < width {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func csvParseError(input string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Input: input, Line: perr.Line, Err: perr.Err}
	}
	return &ParseError{Input: input, Err: err}
}

func decodeText(raw []byte) ([]byte, error) {
	// strips a UTF-8 BOM and converts UTF-16 with BOM; anything else passes through
	decoder := unicode.BOMOverride(encoding.Nop.NewDecoder())

	text, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(text) {
		return nil, errInvalidUTF8
	}

	return text, nil
}
