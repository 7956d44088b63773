package db

import (
	"context"

	"github.com/jakechorley/shift-swap/pkg/docstore"
)

// EmployeeStore defines the interface for employee directory operations
type EmployeeStore interface {
	GetEmployees(ctx context.Context) ([]Employee, error)
	GetEmployeeByID(ctx context.Context, id string) (*Employee, error)
	InsertEmployee(ctx context.Context, employee *Employee) error
}

// ShiftStore defines the interface for shift database operations
type ShiftStore interface {
	GetShifts(ctx context.Context) ([]Shift, error)
	GetShiftByID(ctx context.Context, id string) (*Shift, error)
	GetShiftsByOwner(ctx context.Context, shortID string) ([]Shift, error)
	InsertShift(ctx context.Context, shift *Shift) error
	UpdateShiftOwner(ctx context.Context, id, shortID, displayName string) error
	UpdateShiftDate(ctx context.Context, id, date string) error
	DeleteShift(ctx context.Context, id string) error
	SubscribeShifts(ctx context.Context, cb func([]Shift)) (docstore.CancelFunc, error)
}

// SwapStore defines the interface for swap request database operations
type SwapStore interface {
	GetSwapRequests(ctx context.Context) ([]SwapRequest, error)
	GetSwapRequestByID(ctx context.Context, id string) (*SwapRequest, error)
	InsertSwapRequest(ctx context.Context, request *SwapRequest) error
	UpdateSwapStatus(ctx context.Context, id string, status SwapStatus) error
	ApplySwapAccept(ctx context.Context, requestID, shiftID, toShortID, toDisplayName string) error
	SubscribeInbox(ctx context.Context, shortID string, cb func([]SwapRequest)) (docstore.CancelFunc, error)
}

// ActivityStore defines the interface for the append-only activity ledger
type ActivityStore interface {
	GetActivities(ctx context.Context) ([]ActivityLogEntry, error)
	InsertActivity(ctx context.Context, entry *ActivityLogEntry) error
}

// SwapEngineStore is the slice of the database the swap request engine needs
type SwapEngineStore interface {
	GetShiftByID(ctx context.Context, id string) (*Shift, error)
	GetSwapRequests(ctx context.Context) ([]SwapRequest, error)
	GetSwapRequestByID(ctx context.Context, id string) (*SwapRequest, error)
	InsertSwapRequest(ctx context.Context, request *SwapRequest) error
	UpdateSwapStatus(ctx context.Context, id string, status SwapStatus) error
	ApplySwapAccept(ctx context.Context, requestID, shiftID, toShortID, toDisplayName string) error
	InsertActivity(ctx context.Context, entry *ActivityLogEntry) error
}

// ShiftOpsStore is the slice of the database manual shift operations need
type ShiftOpsStore interface {
	GetShiftByID(ctx context.Context, id string) (*Shift, error)
	GetShiftsByOwner(ctx context.Context, shortID string) ([]Shift, error)
	InsertShift(ctx context.Context, shift *Shift) error
	UpdateShiftDate(ctx context.Context, id, date string) error
	DeleteShift(ctx context.Context, id string) error
	InsertActivity(ctx context.Context, entry *ActivityLogEntry) error
}

// GenerationStore is the slice of the database shift generation needs
type GenerationStore interface {
	GetShifts(ctx context.Context) ([]Shift, error)
	InsertShift(ctx context.Context, shift *Shift) error
	InsertActivity(ctx context.Context, entry *ActivityLogEntry) error
}

// ConsistencyStore is the read-only slice the consistency checker needs
type ConsistencyStore interface {
	GetEmployees(ctx context.Context) ([]Employee, error)
	GetShifts(ctx context.Context) ([]Shift, error)
	GetSwapRequests(ctx context.Context) ([]SwapRequest, error)
}

// Database defines the interface for all database operations.
// Both the document-store-backed db.DB and postgres.DB implement this interface.
type Database interface {
	EmployeeStore
	ShiftStore
	SwapStore
	ActivityStore
}
