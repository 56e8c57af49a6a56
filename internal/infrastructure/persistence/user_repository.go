package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	m := models.UserModelFromDomain(user)
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(m).Error
}

// FindByID finds a user by ID within a tenant
func (r *GormUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	var m models.UserModel
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDs finds several users at once
func (r *GormUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	var rows []models.UserModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

// FindByLogin finds a user by username or email across tenants. A login that
// matches users in several tenants is ambiguous and treated as not found.
func (r *GormUserRepository) FindByLogin(ctx context.Context, login string) (*identity.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, shared.ErrNotFound
	}
	var rows []models.UserModel
	if err := conn(ctx, r.db).
		Where("username = ? OR LOWER(email) = ?", login, strings.ToLower(login)).
		Limit(2).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, shared.ErrNotFound
	}
	return rows[0].ToDomain(), nil
}

// FindAll returns users for a tenant with pagination
func (r *GormUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	query := conn(ctx, r.db).Model(&models.UserModel{}).
		Scopes(tenantScope(tenantID), searchScope(filter.Keyword, "username", "email", "display_name"))
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserModel
	if err := query.Order("username ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toUsers(rows), total, nil
}

// FindActiveByRole returns every active user holding the role
func (r *GormUserRepository) FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	var rows []models.UserModel
	if err := conn(ctx, r.db).
		Where("tenant_id = ? AND role = ? AND status = ?", tenantID, role, identity.UserStatusActive).
		Order("username ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toUsers(rows), nil
}

// ExistsByUsername checks if a username already exists in the tenant
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, tenantID uuid.UUID, username string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.UserModel{}).
		Where("tenant_id = ? AND username = ?", tenantID, username).
		Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks if an email already exists in the tenant
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.UserModel{}).
		Where("tenant_id = ? AND LOWER(email) = ?", tenantID, strings.ToLower(email)).
		Count(&count).Error
	return count > 0, err
}

// ActiveTenantIDs lists tenants that have at least one active user
func (r *GormUserRepository) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := conn(ctx, r.db).Model(&models.UserModel{}).
		Distinct("tenant_id").
		Where("status = ?", identity.UserStatusActive).
		Pluck("tenant_id", &ids).Error
	return ids, err
}

func toUsers(rows []models.UserModel) []*identity.User {
	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
