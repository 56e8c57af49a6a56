package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// maxManagerDepth bounds the walk up a reporting line
const maxManagerDepth = 64

// UserService manages users and answers the directory lookups other
// modules need
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// Create creates a user in the principal's tenant
func (s *UserService) Create(ctx context.Context, p identity.Principal, input CreateUserInput) (*UserDTO, error) {
	role, ok := identity.ParseRole(input.Role)
	if !ok {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+input.Role)
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, p.TenantID, strings.ToLower(strings.TrimSpace(input.Username)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username already exists")
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, p.TenantID, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email already exists")
	}

	user, err := identity.NewUser(p.TenantID, input.Username, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}
	user.SetDepartment(input.Department)
	if input.ManagerID != nil {
		if _, err := s.userRepo.FindByID(ctx, p.TenantID, *input.ManagerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_MANAGER", "Manager not found")
			}
			return nil, err
		}
		if err := user.SetManager(input.ManagerID); err != nil {
			return nil, err
		}
	}
	user.SetCreatedBy(p.UserID)

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role.String()),
		zap.String("created_by", p.UserID.String()))

	dto := ToUserDTO(user)
	return &dto, nil
}

// Update changes a user's role, manager, department, profile or status
func (s *UserService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && !strings.EqualFold(*input.Email, user.Email) {
		exists, err := s.userRepo.ExistsByEmail(ctx, p.TenantID, strings.ToLower(strings.TrimSpace(*input.Email)))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Email already exists")
		}
		if err := user.SetEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.DisplayName != nil {
		if err := user.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}
	if input.Department != nil {
		user.SetDepartment(*input.Department)
	}
	if input.Role != nil {
		role, ok := identity.ParseRole(*input.Role)
		if !ok {
			return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+*input.Role)
		}
		if user.ID == p.UserID && role != identity.RoleAdmin && user.Role == identity.RoleAdmin {
			return nil, shared.NewDomainError("SELF_DEMOTION", "You cannot remove your own admin role")
		}
		if err := user.SetRole(role); err != nil {
			return nil, err
		}
	}
	switch {
	case input.ClearManager:
		if err := user.SetManager(nil); err != nil {
			return nil, err
		}
	case input.ManagerID != nil:
		if err := s.checkManager(ctx, user, *input.ManagerID); err != nil {
			return nil, err
		}
		if err := user.SetManager(input.ManagerID); err != nil {
			return nil, err
		}
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			return nil, err
		}
	}
	if input.Status != nil && *input.Status != string(user.Status) {
		switch identity.UserStatus(*input.Status) {
		case identity.UserStatusActive:
			err = user.Activate()
		case identity.UserStatusDeactivated:
			if user.ID == p.UserID {
				return nil, shared.NewDomainError("SELF_DEACTIVATION", "You cannot deactivate your own account")
			}
			err = user.Deactivate()
		default:
			err = shared.NewDomainError("INVALID_STATUS", "Unknown status: "+*input.Status)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// checkManager rejects unknown managers and reporting-line cycles
func (s *UserService) checkManager(ctx context.Context, user *identity.User, managerID uuid.UUID) error {
	if managerID == user.ID {
		return shared.NewDomainError("INVALID_MANAGER", "A user cannot be their own manager")
	}
	current := managerID
	for depth := 0; depth < maxManagerDepth; depth++ {
		m, err := s.userRepo.FindByID(ctx, user.TenantID, current)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) && depth == 0 {
				return shared.NewDomainError("INVALID_MANAGER", "Manager not found")
			}
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if m.ManagerID == nil {
			return nil
		}
		if *m.ManagerID == user.ID {
			return shared.NewDomainError("MANAGER_CYCLE", "This manager would create a reporting cycle")
		}
		current = *m.ManagerID
	}
	return shared.NewDomainError("MANAGER_CYCLE", "Reporting line is too deep")
}

// Get returns a user of the tenant
func (s *UserService) Get(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) (*UserListResult, error) {
	users, total, err := s.userRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(users, total, filter.Page, filter.Limit())
	out := &UserListResult{
		Users:      make([]UserDTO, 0, len(users)),
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for _, u := range users {
		out.Users = append(out.Users, ToUserDTO(u))
	}
	return out, nil
}

// FindByRole returns the active users holding the role
func (s *UserService) FindByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) ([]*identity.User, error) {
	return s.userRepo.FindActiveByRole(ctx, tenantID, role)
}

// ManagerOf returns the active manager of the user, or nil when there is none
func (s *UserService) ManagerOf(ctx context.Context, tenantID, userID uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if user.ManagerID == nil {
		return nil, nil
	}
	manager, err := s.userRepo.FindByID(ctx, tenantID, *user.ManagerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !manager.IsActive() {
		return nil, nil
	}
	return manager, nil
}

// ActiveTenantIDs lists tenants with at least one active user
func (s *UserService) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.userRepo.ActiveTenantIDs(ctx)
}
