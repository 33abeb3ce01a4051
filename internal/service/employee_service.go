package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// EmployeeService manages the employee directory. Mutations are admin-only.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	bcryptCost int
	logger     *zap.Logger
}

// EmployeeCreateInput carries the fields needed to register an employee.
type EmployeeCreateInput struct {
	Name        string
	Email       string
	Password    string
	Phone       string
	Role        domain.Role
	JoiningDate *time.Time
}

// EmployeeUpdateInput is a partial update; nil fields are left untouched.
type EmployeeUpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Role     *domain.Role
	IsActive *bool
	Password *string
}

// NewEmployeeService constructs the service.
func NewEmployeeService(employees repository.EmployeeRepository, bcryptCost int, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{employees: employees, bcryptCost: bcryptCost, logger: logger}
}

func requireAdmin(actor *domain.Employee) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// Create registers a new employee with a generated employee code and a
// hashed password. Email and employee code are unique.
func (s *EmployeeService) Create(ctx context.Context, actor *domain.Employee, input EmployeeCreateInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if existing, err := s.employees.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	employee := &domain.Employee{
		EmployeeCode: generateEmployeeCode(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         input.Role,
		IsActive:     true,
		JoiningDate:  input.JoiningDate,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("employee created",
		zap.String("employee_id", employee.ID),
		zap.String("employee_code", employee.EmployeeCode),
		zap.String("role", string(employee.Role)),
	)
	return employee, nil
}

// Update applies a partial update to the employee record.
func (s *EmployeeService) Update(ctx context.Context, actor *domain.Employee, id string, input EmployeeUpdateInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee", map[string]any{"employee_id": id})
	}
	if input.Name != nil {
		employee.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		employee.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Phone != nil {
		employee.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
		employee.Role = *input.Role
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		employee.PasswordHash = hash
	}
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// Delete removes the employee record.
func (s *EmployeeService) Delete(ctx context.Context, actor *domain.Employee, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return apperrors.NewValidationError("cannot delete own account", nil)
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		return notFoundOr(err, "employee", map[string]any{"employee_id": id})
	}
	return nil
}

// GetByID fetches one employee.
func (s *EmployeeService) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee", map[string]any{"employee_id": id})
	}
	return employee, nil
}

// GetByCode fetches one employee by their employee code.
func (s *EmployeeService) GetByCode(ctx context.Context, code string) (*domain.Employee, error) {
	employee, err := s.employees.GetByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "employee", map[string]any{"employee_code": code})
	}
	return employee, nil
}

// List returns employees matching the filter. Admin only.
func (s *EmployeeService) List(ctx context.Context, actor *domain.Employee, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	employees, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employees, nil
}

// ListByRole returns the active employees holding the role.
func (s *EmployeeService) ListByRole(ctx context.Context, role domain.Role) ([]domain.Employee, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	employees, err := s.employees.ListActiveByRole(ctx, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return employees, nil
}

// EnsureDefaultAdmin seeds an active ADMIN account when none exists, so a
// fresh deployment always has a primary admin to route tickets to.
func (s *EmployeeService) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.employees.FindPrimaryAdmin(ctx); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	admin := &domain.Employee{
		EmployeeCode: generateEmployeeCode(),
		Name:         "System Administrator",
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := s.employees.Create(ctx, admin); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("default admin seeded", zap.String("email", admin.Email))
	return nil
}

func generateEmployeeCode() string {
	return fmt.Sprintf("EIDC%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6]))
}
