package session

import "errors"

// Guard rejections. State is left unchanged whenever one is returned.
var (
	ErrNotFound         = errors.New("session not found")
	ErrCleanerBusy      = errors.New("cleaner already has an active session")
	ErrInvalidState     = errors.New("operation not valid in current session state")
	ErrNegativeDuration = errors.New("adjustment would make duration negative")
	ErrNegativeQuantity = errors.New("consumable quantity must not be negative")
	ErrOutOfRange       = errors.New("adjustment is out of range")
	ErrHelperRunning    = errors.New("helper timer is already running")
)
