// Package csvimport parses and validates uploaded CSV files row by row.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads a CSV file with a header row. Header names are normalized to
// lower snake case so "Supplier Code" and "supplier_code" are the same column.
type Parser struct {
	reader  *csv.Reader
	headers []string
	index   map[string]int
	line    int
}

// Row is one data row keyed by normalized header
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the trimmed value of column, or ""
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// NewParser strips a UTF-8 BOM, checks the encoding and reads the header row
func NewParser(r io.Reader) (*Parser, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	head, err := br.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	sample, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(sample))) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(sample)) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	p := &Parser{reader: cr, index: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		name := NormalizeHeader(h)
		p.headers = append(p.headers, name)
		if name != "" {
			if _, dup := p.index[name]; !dup {
				p.index[name] = i
			}
		}
	}
	if len(p.index) == 0 {
		return nil, ErrMissingHeader
	}
	return p, nil
}

// Headers returns the normalized header names in file order
func (p *Parser) Headers() []string {
	return p.headers
}

// Require returns a MissingColumnsError when any column is absent
func (p *Parser) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := p.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Next returns the next row, or io.EOF. A malformed line yields a RowError and parsing may continue.
func (p *Parser) Next() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, RowError{Row: p.line, Code: CodeMalformedRow, Message: perr.Err.Error()}
		}
		return nil, err
	}

	row := &Row{Line: p.line, Data: make(map[string]string, len(p.index))}
	for name, i := range p.index {
		if i < len(record) {
			row.Data[name] = strings.TrimSpace(record[i])
		} else {
			row.Data[name] = ""
		}
	}
	return row, nil
}

// NormalizeHeader lowercases h and joins words with underscores
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_")
}

// trimPartialRune drops an incomplete multi-byte sequence cut off by the peek window
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}
