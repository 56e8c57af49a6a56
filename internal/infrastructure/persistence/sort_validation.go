package persistence

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procurement/backend/internal/domain/shared"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Sort whitelists per table
var (
	UserSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "username": true, "email": true,
		"display_name": true, "role": true, "status": true, "last_login_at": true,
	}
	SupplierSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "code": true, "name": true,
		"category": true, "status": true, "approved_at": true,
	}
	OnboardingSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "request_number": true,
		"supplier_name": true, "status": true, "stage_entered_at": true,
	}
	RequisitionSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "number": true, "title": true,
		"status": true, "total_amount": true, "submitted_at": true, "needed_by": true,
	}
	ContractSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "number": true, "title": true,
		"status": true, "value": true, "start_date": true, "end_date": true,
	}
	SpendSortFields = map[string]bool{
		"created_at": true, "spent_on": true, "amount": true, "category": true,
		"supplier_name": true,
	}
	EvaluationSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "period": true, "overall_score": true,
		"supplier_name": true,
	}
	NotificationSortFields = map[string]bool{
		"sent_at": true, "recipient": true, "template": true, "status": true,
	}
)

// tenantScope restricts a query to one tenant
func tenantScope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// orderScope applies a whitelisted ORDER BY, newest or largest first unless
// the filter says otherwise
func orderScope(filter shared.Filter, allowed map[string]bool, defaultField string) func(*gorm.DB) *gorm.DB {
	return orderScopeDir(filter, allowed, defaultField, "DESC")
}

// orderScopeDir is orderScope with the direction used when the filter names
// none
func orderScopeDir(filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field := ValidateSortField(filter.OrderBy, allowed, defaultField)
		dir := filter.OrderDir
		if strings.TrimSpace(dir) == "" {
			dir = defaultDir
		}
		return db.Order(fmt.Sprintf("%s %s", field, ValidateSortOrder(dir)))
	}
}

// pageScope applies LIMIT/OFFSET. A non-positive page size means no limit.
func pageScope(filter shared.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.PageSize <= 0 {
			return db
		}
		size := filter.PageSize
		if size > 100 {
			size = 100
		}
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * size
		}
		return db.Offset(offset).Limit(size)
	}
}

// searchScope matches the term case-insensitively against the columns
func searchScope(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			conds[i] = fmt.Sprintf("LOWER(%s) LIKE ?", c)
			args[i] = like
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// filterString returns a non-empty string filter value
func filterString(filter shared.Filter, key string) (string, bool) {
	v, ok := filter.Filters[key]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, s != ""
	case fmt.Stringer:
		str := s.String()
		return str, str != ""
	}
	return "", false
}

// filterTime returns a time.Time filter value
func filterTime(filter shared.Filter, key string) (time.Time, bool) {
	switch v := filter.Filters[key].(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v != nil && !v.IsZero() {
			return *v, true
		}
	}
	return time.Time{}, false
}
