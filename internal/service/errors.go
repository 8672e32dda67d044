package service

import "errors"

// Invariant violations raised by the ledger engines. Every operation either
// fully succeeds or returns one of these with the enclosing transaction
// rolled back — callers translate them into HTTP responses, the engines
// never swallow them.
var (
	// ErrNotFound wraps every lookup miss so transports can map it uniformly.
	ErrNotFound = errors.New("not found")

	// Inventory
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoInventoryRecord = errors.New("no inventory record for product at branch")

	// Sales
	ErrAlreadyAnnulled  = errors.New("sale is already annulled")
	ErrAlreadyProcessed = errors.New("sale has already been processed")
	ErrNotPending       = errors.New("sale is not pending")

	// Installments
	ErrAlreadyPaid         = errors.New("installment is already paid")
	ErrInstallmentsStarted = errors.New("installments already have payments applied")

	// Cash sessions
	ErrRegisterAlreadyOpen = errors.New("register already has an open session")
	ErrUserSessionOpen     = errors.New("user already has an open session")
	ErrNoOpenSession       = errors.New("no open session for user")
	ErrNoActiveSession     = errors.New("register has no active session")
	ErrNotOwner            = errors.New("session belongs to another user")
	ErrRegisterBusy        = errors.New("register has another open session")
	ErrSessionClosed       = errors.New("session is closed")

	// Transfers
	ErrTransferNotPending = errors.New("transfer is not pending")

	// Purchase orders
	ErrAlreadyReceived = errors.New("purchase order is already received")
	ErrOrderCancelled  = errors.New("purchase order is cancelled")
	ErrExceedsOrdered  = errors.New("received quantity exceeds ordered quantity")
)
