package domain

import "time"

// Role enumerates the fixed set of employee roles.
type Role string

const (
	RoleAdmin            Role = "ADMIN"
	RoleHR               Role = "HR"
	RoleIT               Role = "IT"
	RoleNetwork          Role = "NETWORK"
	RoleSoftwareEngineer Role = "SOFTWARE_ENGINEER"
)

// Roles lists every defined role.
var Roles = []Role{RoleAdmin, RoleHR, RoleIT, RoleNetwork, RoleSoftwareEngineer}

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleIT, RoleNetwork, RoleSoftwareEngineer:
		return true
	}
	return false
}

// Employee models a member of the organization. Identity is immutable;
// role may change administratively.
type Employee struct {
	ID           string
	EmployeeCode string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Role         Role
	IsActive     bool
	JoiningDate  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
