package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procurement/backend/internal/domain/shared"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE users;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "end_date", ValidateSortField("end_date", ContractSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", ContractSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("value; DROP TABLE contracts", ContractSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("password_hash", UserSortFields, "created_at"))
}

func TestFilterString(t *testing.T) {
	f := shared.Filter{Filters: map[string]interface{}{"status": "ACTIVE", "empty": "", "count": 3}}

	v, ok := filterString(f, "status")
	assert.True(t, ok)
	assert.Equal(t, "ACTIVE", v)

	_, ok = filterString(f, "empty")
	assert.False(t, ok)
	_, ok = filterString(f, "count")
	assert.False(t, ok)
	_, ok = filterString(f, "missing")
	assert.False(t, ok)
}
