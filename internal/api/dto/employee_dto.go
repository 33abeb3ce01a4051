package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateEmployeeRequest payload.
type CreateEmployeeRequest struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Phone       string      `json:"phone"`
	Role        domain.Role `json:"role"`
	JoiningDate *time.Time  `json:"joining_date"`
}

// UpdateEmployeeRequest payload; nil fields are untouched.
type UpdateEmployeeRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Phone    *string      `json:"phone"`
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
	Password *string      `json:"password"`
}

// EmployeeResponse response shape; never exposes the password hash.
type EmployeeResponse struct {
	ID           string      `json:"id"`
	EmployeeCode string      `json:"employee_code"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	Role         domain.Role `json:"role"`
	IsActive     bool        `json:"is_active"`
	JoiningDate  *time.Time  `json:"joining_date,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
