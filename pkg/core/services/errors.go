package services

import "errors"

// Validation failures surfaced to the acting user. These never get
// swallowed: every mutating operation reports success or failure distinctly.
var (
	ErrSelfSwap         = errors.New("requester and recipient are the same employee")
	ErrNotOwner         = errors.New("requester no longer owns the shift")
	ErrDuplicateRequest = errors.New("a pending swap request between these employees already exists")
	ErrNotPending       = errors.New("swap request is already resolved")
	ErrNotRecipient     = errors.New("only the request recipient may respond")
)
