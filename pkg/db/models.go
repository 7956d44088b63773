package db

// Role classifies an employee account.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// Employee represents a durable employee account. The ID is the permanent
// account identity, used only for account-level lookups and ledger
// attribution; shift and swap correlation always goes through the derived
// short identifier instead.
type Employee struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	Email       string `json:"email"`
}

// ShiftType is the closed set of work periods, each with canonical times.
type ShiftType string

const (
	ShiftDay       ShiftType = "day"
	ShiftAfternoon ShiftType = "afternoon"
	ShiftNight     ShiftType = "night"
)

// Times returns the canonical start and end time for the shift type.
func (t ShiftType) Times() (start, end string) {
	switch t {
	case ShiftDay:
		return "07:00", "15:00"
	case ShiftAfternoon:
		return "15:00", "23:00"
	case ShiftNight:
		return "23:00", "07:00"
	}
	return "", ""
}

// Valid reports whether t is one of the known shift types.
func (t ShiftType) Valid() bool {
	switch t {
	case ShiftDay, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

// Shift represents one work period. Ownership is keyed by the owner's short
// identifier; the display name is denormalized for display without a join.
// Dates are date-only strings (2006-01-02), no time zone.
type Shift struct {
	ID               string    `json:"id"`
	OwnerShortID     string    `json:"employeeId"`
	OwnerDisplayName string    `json:"employeeName"`
	Date             string    `json:"date"`
	Type             ShiftType `json:"type"`
	StartTime        string    `json:"startTime"`
	EndTime          string    `json:"endTime"`
}

// SwapStatus is the three-state swap request lifecycle.
type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapAccepted SwapStatus = "accepted"
	SwapDeclined SwapStatus = "declined"
)

// Terminal reports whether the status can no longer change.
func (s SwapStatus) Terminal() bool {
	return s == SwapAccepted || s == SwapDeclined
}

// SwapRequest represents a pending or resolved request to transfer a
// shift's ownership. Both participants are referenced by short identifier.
// The embedded Shift is a denormalized snapshot for display only; it is
// never authoritative for ownership decisions and may be nil until the
// enrichment lookup backfills it.
type SwapRequest struct {
	ID              string     `json:"id"`
	FromShortID     string     `json:"fromEmployeeId"`
	FromDisplayName string     `json:"fromEmployeeName"`
	ToShortID       string     `json:"toEmployeeId"`
	ToDisplayName   string     `json:"toEmployeeName"`
	ShiftID         string     `json:"shiftId"`
	Shift           *Shift     `json:"shift,omitempty"`
	Status          SwapStatus `json:"status"`
	CreatedAt       string     `json:"createdAt"`
}

// ActivityKind is the closed set of ledger event kinds.
type ActivityKind string

const (
	ActivityShiftCreated  ActivityKind = "shift_created"
	ActivityShiftUpdated  ActivityKind = "shift_updated"
	ActivityShiftDeleted  ActivityKind = "shift_deleted"
	ActivitySwapRequested ActivityKind = "swap_requested"
	ActivitySwapAccepted  ActivityKind = "swap_accepted"
	ActivitySwapDeclined  ActivityKind = "swap_declined"
)

// ActivityLogEntry is one append-only ledger record. Attribution uses the
// actor's durable account id, not the short identifier.
type ActivityLogEntry struct {
	ID               string       `json:"id"`
	Kind             ActivityKind `json:"kind"`
	Description      string       `json:"description"`
	ActorID          string       `json:"actorId"`
	ActorDisplayName string       `json:"actorName"`
	Timestamp        string       `json:"timestamp"`
}
