package csvimport

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
)

// DateLayouts are the accepted date formats, tried in order
var DateLayouts = []string{"2006-01-02", "2006/01/02", "2006-01-02T15:04:05Z07:00"}

// FieldRule validates one column
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	Positive  bool
}

// FieldRuleBuilder builds a FieldRule fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required rejects blank values
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Decimal expects a decimal number
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date expects one of DateLayouts
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// Positive rejects zero and negative decimals
func (b *FieldRuleBuilder) Positive() *FieldRuleBuilder {
	b.rule.Positive = true
	return b
}

// MaxLength limits the value length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validate checks row against rules, adding every problem to ec. It returns true when the row is clean.
func Validate(row *Row, rules []FieldRule, ec *ErrorCollection) bool {
	ok := true
	for _, rule := range rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				ec.Add(RowError{Row: row.Line, Column: rule.Column, Code: CodeRequired,
					Message: fmt.Sprintf("%s is required", rule.Column)})
				ok = false
			}
			continue
		}
		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			ec.Add(RowError{Row: row.Line, Column: rule.Column, Code: CodeInvalidLength,
				Message: fmt.Sprintf("must be at most %d characters", rule.MaxLength)})
			ok = false
			continue
		}
		switch rule.Type {
		case TypeDecimal:
			d, err := decimal.NewFromString(value)
			if err != nil {
				ec.Add(RowError{Row: row.Line, Column: rule.Column, Code: CodeInvalidType,
					Message: "expected a decimal number", Value: value})
				ok = false
				continue
			}
			if rule.Positive && !d.IsPositive() {
				ec.Add(RowError{Row: row.Line, Column: rule.Column, Code: CodeInvalidRange,
					Message: "must be greater than zero", Value: value})
				ok = false
			}
		case TypeDate:
			if _, err := ParseDate(value); err != nil {
				ec.Add(RowError{Row: row.Line, Column: rule.Column, Code: CodeInvalidType,
					Message: "expected a date (YYYY-MM-DD)", Value: value})
				ok = false
			}
		}
	}
	return ok
}

// ParseDate parses value with the first matching layout in DateLayouts
func ParseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
