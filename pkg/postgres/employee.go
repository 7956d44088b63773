package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-swap/pkg/db"
)

// GetEmployees retrieves all employee records
func (d *DB) GetEmployees(ctx context.Context) ([]db.Employee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, display_name, role, email
		FROM employee
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []db.Employee
	for rows.Next() {
		var e db.Employee
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.Role, &e.Email); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}

// GetEmployeeByID retrieves one employee by durable account id
func (d *DB) GetEmployeeByID(ctx context.Context, id string) (*db.Employee, error) {
	var e db.Employee
	err := d.pool.QueryRow(ctx, `
		SELECT id, display_name, role, email
		FROM employee WHERE id = $1
	`, id).Scan(&e.ID, &e.DisplayName, &e.Role, &e.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}
	return &e, nil
}

// InsertEmployee inserts a new employee record
func (d *DB) InsertEmployee(ctx context.Context, employee *db.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.New().String()
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO employee (id, display_name, role, email)
		VALUES ($1, $2, $3, $4)
	`, employee.ID, employee.DisplayName, employee.Role, employee.Email)
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}
