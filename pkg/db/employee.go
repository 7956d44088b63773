package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jakechorley/shift-swap/pkg/docstore"
)

// ErrEmployeeNotFound is returned when a durable account id has no record.
var ErrEmployeeNotFound = errors.New("employee not found")

// GetEmployees retrieves all employee records
func (db *DB) GetEmployees(ctx context.Context) ([]Employee, error) {
	recs, err := db.store.GetAll(ctx, CollectionEmployees)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	return fromRecords[Employee](recs)
}

// GetEmployeeByID retrieves one employee by durable account id
func (db *DB) GetEmployeeByID(ctx context.Context, id string) (*Employee, error) {
	rec, err := db.store.GetByID(ctx, CollectionEmployees, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	var e Employee
	if err := fromRecord(rec, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertEmployee inserts a new employee record, assigning an id if unset
func (db *DB) InsertEmployee(ctx context.Context, employee *Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.New().String()
	}
	rec, err := toRecord(employee)
	if err != nil {
		return err
	}
	if _, err := db.store.Insert(ctx, CollectionEmployees, rec); err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}
