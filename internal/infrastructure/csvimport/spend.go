package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Spend import columns
const (
	ColSupplierCode  = "supplier_code"
	ColCategory      = "category"
	ColDescription   = "description"
	ColAmount        = "amount"
	ColSpentOn       = "spent_on"
	ColInvoiceNumber = "invoice_number"
	ColCurrency      = "currency"
)

// SpendColumns are the columns a spend file must have
var SpendColumns = []string{ColSupplierCode, ColCategory, ColDescription, ColAmount, ColSpentOn, ColInvoiceNumber}

// SpendRules validate each spend row
var SpendRules = []FieldRule{
	Field(ColSupplierCode).Required().MaxLength(20).Build(),
	Field(ColCategory).MaxLength(100).Build(),
	Field(ColDescription).MaxLength(500).Build(),
	Field(ColAmount).Required().Decimal().Positive().Build(),
	Field(ColSpentOn).Required().Date().Build(),
	Field(ColInvoiceNumber).MaxLength(100).Build(),
	Field(ColCurrency).MaxLength(3).Build(),
}

// SpendRow is a validated spend line
type SpendRow struct {
	Line          int
	SupplierCode  string
	Category      string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	SpentOn       time.Time
	InvoiceNumber string
}

// SpendFile is the outcome of parsing a spend upload
type SpendFile struct {
	Total  int
	Rows   []SpendRow
	Errors *ErrorCollection
}

// SpendOptions bounds a spend upload
type SpendOptions struct {
	MaxRows   int
	MaxErrors int
}

// ParseSpend reads a spend CSV. File-level problems return an error; row-level
// problems are collected and the remaining rows are still returned.
func ParseSpend(r io.Reader, opts SpendOptions) (*SpendFile, error) {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 10000
	}
	p, err := NewParser(r)
	if err != nil {
		return nil, err
	}
	if err := p.Require(SpendColumns...); err != nil {
		return nil, err
	}

	out := &SpendFile{Errors: NewErrorCollection(opts.MaxErrors)}
	invoices := make(map[string]int)
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr RowError
		if errors.As(err, &rowErr) {
			out.Total++
			out.Errors.Add(rowErr)
			continue
		}
		if err != nil {
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		out.Total++
		if out.Total > opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, opts.MaxRows)
		}
		if !Validate(row, SpendRules, out.Errors) {
			continue
		}

		code := strings.ToUpper(row.Get(ColSupplierCode))
		invoice := row.Get(ColInvoiceNumber)
		if invoice != "" {
			key := code + "\x00" + invoice
			if first, seen := invoices[key]; seen {
				out.Errors.Add(RowError{Row: row.Line, Column: ColInvoiceNumber, Code: CodeDuplicateInFile,
					Message: fmt.Sprintf("invoice already listed on row %d", first), Value: invoice})
				continue
			}
			invoices[key] = row.Line
		}

		amount, _ := decimal.NewFromString(row.Get(ColAmount))
		spentOn, _ := ParseDate(row.Get(ColSpentOn))
		out.Rows = append(out.Rows, SpendRow{
			Line:          row.Line,
			SupplierCode:  code,
			Category:      row.Get(ColCategory),
			Description:   row.Get(ColDescription),
			Amount:        amount,
			Currency:      strings.ToUpper(row.Get(ColCurrency)),
			SpentOn:       spentOn,
			InvoiceNumber: invoice,
		})
	}
	return out, nil
}
