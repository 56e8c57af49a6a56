package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nextNumber returns prefix followed by the next five digit sequence for the
// tenant, derived from the highest existing value of column in table.
func nextNumber(ctx context.Context, db *gorm.DB, table, column string, tenantID uuid.UUID, prefix string) (string, error) {
	var last string
	err := conn(ctx, db).
		Table(table).
		Select(column).
		Where("tenant_id = ? AND "+column+" LIKE ?", tenantID, prefix+"%").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("generate %s: %w", column, err)
	}

	next := 1
	if last != "" {
		var n int
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(last, prefix), "%d", &n); scanErr == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}
