package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
)

var (
	// ErrNoHeader is returned when the input has no header row to parse.
	ErrNoHeader = errors.New("no columns to parse from input")
	// ErrRaggedRow is returned when a data row has more fields than the header.
	ErrRaggedRow = errors.New("row has more fields than the header")
)

// DefaultNAValues are the cell strings read as missing values.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

// Options controls how tabular input is read.
type Options struct {
	// Delimiter for delimited text. If 0, picked from the file extension.
	Delimiter rune
	// DecimalSeparator defaults to '.'.
	DecimalSeparator rune
	// ThousandsSeparator is stripped from numbers when set.
	ThousandsSeparator rune
	// NAValues overrides DefaultNAValues when non-nil.
	NAValues []string
	// XLSX sheet selection; SheetIndex is 1-based.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reading options for comma-separated input.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Load reads a table from path, choosing the reader by extension.
func Load(path string, opt Options) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return ReadXLSX(path, opt)
	}
	return ReadCSVFile(path, opt)
}

// ReadCSVFile opens path and parses it as delimited text.
func ReadCSVFile(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, opt)
}

// ReadCSV parses delimited text with a header row.
func ReadCSV(r io.Reader, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return FromRecords(header, records, opt)
}

// FromRecords builds a typed table from a header and raw string rows.
// Short rows are padded with missing cells; a column is numeric when every
// non-missing value parses as a number, otherwise every value is kept as text.
func FromRecords(header []string, records [][]string, opt Options) (*Table, error) {
	if len(header) == 0 {
		return nil, ErrNoHeader
	}
	na := opt.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	isNA := make(map[string]struct{}, len(na))
	for _, v := range na {
		isNA[v] = struct{}{}
	}

	names := dedupeNames(header)
	ncol := len(names)
	for i, rec := range records {
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d: %w", i+1, ncol, len(rec), ErrRaggedRow)
		}
	}

	t := &Table{Columns: make([]*Column, ncol)}
	for j := 0; j < ncol; j++ {
		raw := make([]string, len(records))
		missing := make([]bool, len(records))
		numeric := true
		nums := make([]float64, len(records))
		for i, rec := range records {
			if j >= len(rec) {
				missing[i] = true
				continue
			}
			v := rec[j]
			if _, ok := isNA[v]; ok {
				missing[i] = true
				continue
			}
			raw[i] = v
			if numeric {
				if x, ok := parseNumeric(v, opt); ok {
					nums[i] = x
				} else {
					numeric = false
				}
			}
		}
		cells := make([]Cell, len(records))
		for i := range records {
			switch {
			case missing[i]:
				cells[i] = Missing()
			case numeric:
				cells[i] = Number(nums[i])
			default:
				cells[i] = Text(raw[i])
			}
		}
		t.Columns[j] = &Column{Name: names[j], Cells: cells}
	}
	return t, nil
}

// dedupeNames normalizes header names to NFC, names blank headers after their
// position and disambiguates repeats. Surrounding whitespace is kept.
func dedupeNames(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		name := norm.NFC.String(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		names[i] = name
	}
	return UniqueNames(names)
}

// UniqueNames keeps the first occurrence of each name and renames later
// repeats as name.1, name.2, skipping suffixes already taken.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		if used[name] {
			base := name
			for k := 1; ; k++ {
				cand := base + "." + strconv.Itoa(k)
				if !used[cand] {
					name = cand
					break
				}
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// WriteCSV writes the header and every row; indicator columns are written as 0/1.
func WriteCSV(w io.Writer, t *Table, delim rune) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, t.Width())
	for i := 0; i < t.Rows(); i++ {
		for j, c := range t.Columns {
			cell := c.Cells[i]
			if c.Indicator && cell.Kind == CellNumber {
				rec[j] = strconv.FormatInt(int64(cell.Num), 10)
				continue
			}
			rec[j] = cell.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes t to path atomically, creating the parent directory.
func SaveCSV(path string, t *Table) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t, sniffDelimiter(path)); err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
