package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/procurement/backend/internal/domain/shared"
)

type txKey struct{}

// GormTxManager implements shared.TxManager. The transaction travels in the
// context so every repository built on the same *gorm.DB joins it.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// Transaction runs fn in a transaction. A transaction already carried by
// ctx is reused through a savepoint.
func (m *GormTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return conn(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

var _ shared.TxManager = (*GormTxManager)(nil)
