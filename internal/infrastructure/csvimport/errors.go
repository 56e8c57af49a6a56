package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	CodeRequired          = "REQUIRED"
	CodeInvalidType       = "INVALID_TYPE"
	CodeInvalidLength     = "INVALID_LENGTH"
	CodeInvalidRange      = "INVALID_RANGE"
	CodeMalformedRow      = "MALFORMED_ROW"
	CodeDuplicateInFile   = "DUPLICATE_IN_FILE"
	CodeReferenceNotFound = "REFERENCE_NOT_FOUND"
	CodeRejected          = "REJECTED"
)

var (
	// ErrEmptyFile is returned when the file has no content
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not UTF-8
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")

	// ErrMissingHeader is returned when the header row is absent
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrTooManyRows is returned when the file exceeds the row limit
	ErrTooManyRows = errors.New("CSV file has too many rows")
)

// MissingColumnsError lists required header columns that were not found
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("CSV header is missing required columns: %v", e.Columns)
}

// RowError is a problem with one data row. Row is the 1-based line number, the header being line 1.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps up to a fixed number of row errors and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
	rows       map[int]struct{}
}

// NewErrorCollection creates a collection keeping at most maxErrors entries (100 when <= 0)
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors, rows: make(map[int]struct{})}
}

// Add records err
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	ec.rows[err.Row] = struct{}{}
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// Errors returns the kept errors in insertion order
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount includes errors beyond the limit
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// RowCount is the number of distinct rows with at least one error
func (ec *ErrorCollection) RowCount() int {
	return len(ec.rows)
}

// IsTruncated reports whether errors were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}
