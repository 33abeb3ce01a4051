package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EmployeeRepository handles persistence for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	GetByCode(ctx context.Context, code string) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
	ListActiveByRole(ctx context.Context, role domain.Role) ([]domain.Employee, error)
	FindPrimaryAdmin(ctx context.Context) (*domain.Employee, error)
}

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Role     *domain.Role
	IsActive *bool
	Limit    int
	Offset   int
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `id, employee_code, name, email, password_hash, phone, role, is_active, joining_date, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (employee_code, name, email, password_hash, phone, role, is_active, joining_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return querier(ctx, r.pool).QueryRow(ctx, query,
		employee.EmployeeCode,
		employee.Name,
		employee.Email,
		employee.PasswordHash,
		employee.Phone,
		employee.Role,
		employee.IsActive,
		employee.JoiningDate,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `
        UPDATE employees
        SET employee_code=$1, name=$2, email=$3, password_hash=$4, phone=$5, role=$6, is_active=$7, joining_date=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := querier(ctx, r.pool).Exec(ctx, query,
		employee.EmployeeCode,
		employee.Name,
		employee.Email,
		employee.PasswordHash,
		employee.Phone,
		employee.Role,
		employee.IsActive,
		employee.JoiningDate,
		employee.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *employeeRepository) GetByCode(ctx context.Context, code string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var employee domain.Employee
	if err := querier(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&employee.ID,
		&employee.EmployeeCode,
		&employee.Name,
		&employee.Email,
		&employee.PasswordHash,
		&employee.Phone,
		&employee.Role,
		&employee.IsActive,
		&employee.JoiningDate,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := querier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (r *employeeRepository) ListActiveByRole(ctx context.Context, role domain.Role) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE role=$1 AND is_active=TRUE ORDER BY created_at ASC`
	rows, err := querier(ctx, r.pool).Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

// FindPrimaryAdmin returns the longest-standing active ADMIN, the employee
// designated to approve newly created tickets.
func (r *employeeRepository) FindPrimaryAdmin(ctx context.Context) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
        WHERE role=$1 AND is_active=TRUE ORDER BY created_at ASC LIMIT 1`
	return r.fetchSingle(ctx, query, domain.RoleAdmin)
}

func scanEmployees(rows pgx.Rows) ([]domain.Employee, error) {
	var result []domain.Employee
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.EmployeeCode,
			&employee.Name,
			&employee.Email,
			&employee.PasswordHash,
			&employee.Phone,
			&employee.Role,
			&employee.IsActive,
			&employee.JoiningDate,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, employee)
	}
	return result, rows.Err()
}
