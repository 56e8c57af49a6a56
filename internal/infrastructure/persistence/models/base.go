// Package models contains the GORM persistence models. Domain types carry no
// ORM tags; every table is mapped here and converted with ToDomain/FromDomain.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procurement/backend/internal/domain/reminder"
	"github.com/procurement/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel extends BaseModel with the optimistic locking version.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// TenantAggregateModel adds tenant and creator columns.
type TenantAggregateModel struct {
	AggregateModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainTenantAggregateRoot populates the model from a domain root
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	m.Version = t.Version
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

// ToDomainTenantAggregateRoot rebuilds the domain root fields
func (m *TenantAggregateModel) ToDomainTenantAggregateRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		TenantID:  m.TenantID,
		CreatedBy: m.CreatedBy,
	}
}

// ReminderColumns flattens a reminder.Tracker into columns
type ReminderColumns struct {
	StageEnteredAt time.Time `gorm:"not null;index"`
	ReminderCount  int       `gorm:"not null;default:0"`
	LastReminderAt *time.Time
	Escalated      bool `gorm:"not null;default:false"`
}

// FromTracker copies tracker state into the columns
func (c *ReminderColumns) FromTracker(t reminder.Tracker) {
	c.StageEnteredAt = t.StageEnteredAt
	c.ReminderCount = t.ReminderCount
	c.LastReminderAt = t.LastReminderAt
	c.Escalated = t.Escalated
}

// Tracker rebuilds the reminder tracker
func (c ReminderColumns) Tracker() reminder.Tracker {
	return reminder.Tracker{
		StageEnteredAt: c.StageEnteredAt,
		ReminderCount:  c.ReminderCount,
		LastReminderAt: c.LastReminderAt,
		Escalated:      c.Escalated,
	}
}

// StringList is a []string stored as a JSON array
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StringList: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList: %w", err)
	}
	*l = out
	return nil
}

// Strings returns a copy as a plain slice
func (l StringList) Strings() []string {
	out := make([]string, len(l))
	copy(out, l)
	return out
}
