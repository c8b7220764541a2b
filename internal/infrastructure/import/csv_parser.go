// Package csvimport parses uploaded CSV files into validated records.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVParser reads positional CSV rows, optionally preceded by a header
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
	columns    []string
	hasHeader  bool
	pending    []string
	currentRow int
	totalRows  int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimSpace = trim
	}
}

// NewCSVParser creates a parser whose fields map, in order, onto columns
func NewCSVParser(r io.Reader, columns []string, opts ...ParserOption) (*CSVParser, error) {
	if len(columns) == 0 {
		return nil, errors.New("csv parser: at least one column is required")
	}
	parser := &CSVParser{
		delimiter:  ',',
		lazyQuotes: true,
		trimSpace:  true,
		columns:    columns,
	}

	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReader(r)

	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	if err := validateUTF8(parser.bufReader); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = parser.trimSpace
	parser.reader.FieldsPerRecord = -1

	if err := parser.detectHeader(); err != nil {
		return nil, err
	}
	return parser, nil
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, columns []string, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), columns, opts...)
}

// validateUTF8 checks that the leading content is valid UTF-8
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return ErrEmptyFile
	}

	// Peek may cut a multi-byte rune at the boundary
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax && len(content) > 0 && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}

	return nil
}

// detectHeader consumes the first record when it names the columns.
// Otherwise the record is kept as the first data row.
func (p *CSVParser) detectHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrEmptyFile
	}
	if err != nil {
		return fmt.Errorf("%w: line 1: %v", ErrMalformedFile, err)
	}
	p.currentRow = 1

	if p.isHeader(record) {
		p.hasHeader = true
		return nil
	}
	p.pending = record
	return nil
}

func (p *CSVParser) isHeader(record []string) bool {
	if len(record) < len(p.columns) {
		return false
	}
	for i, col := range p.columns {
		if !strings.EqualFold(trimSpaces(record[i]), col) {
			return false
		}
	}
	return true
}

// HasHeader reports whether the file started with a header row
func (p *CSVParser) HasHeader() bool {
	return p.hasHeader
}

// Columns returns the column names rows are mapped onto
func (p *CSVParser) Columns() []string {
	return p.columns
}

// Row represents a parsed CSV row with its data and line number
type Row struct {
	LineNumber int
	Data       map[string]string
	RawFields  []string
}

// Get returns the value for a column
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row from the CSV
func (p *CSVParser) ReadRow() (*Row, error) {
	var (
		record []string
		line   int
	)
	if p.pending != nil {
		record, p.pending = p.pending, nil
		line = 1
	} else {
		var err error
		record, err = p.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		p.currentRow++
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
		}
		line = p.currentRow
	}
	p.totalRows++

	row := &Row{
		LineNumber: line,
		Data:       make(map[string]string, len(p.columns)),
		RawFields:  record,
	}
	for i, col := range p.columns {
		value := ""
		if i < len(record) {
			value = record[i]
			if p.trimSpace {
				value = trimSpaces(value)
			}
		}
		row.Data[col] = value
	}

	return row, nil
}

// ReadAllRows reads all remaining rows, skipping empty ones
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row

	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}

		if row.IsEmpty() {
			continue
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// CurrentRow returns the current line number (1-indexed)
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// TotalRows returns the number of data rows read, empty ones included
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}

// trimSpaces trims whitespace from a string
func trimSpaces(s string) string {
	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}

	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}

	return s[start:end]
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0':
		return true
	}
	return false
}
