package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "dial", "call", "read")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// RateLimitError marks a provider rate-limit response (HTTP 429 or the
// JSON-RPC "limit exceeded" class). The governor treats these specially:
// they wait out a cooldown instead of consuming the generic retry budget.
type RateLimitError struct {
	Op   string
	Code int // provider error code, 0 if unknown
	Err  error
}

func (e *RateLimitError) Error() string {
	return "rate limited [" + e.Op + "]: " + e.Err.Error()
}

func (e *RateLimitError) IsRetriable() bool {
	return true
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimited checks if an error belongs to the rate-limit class
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrConnectionFailed is returned when the ledger endpoint is unreachable. Usually retriable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrEmptySlot is returned when a ledger read hits a never-created order slot (zero maker).
	ErrEmptySlot = errors.New("empty order slot")

	// ErrStopped is returned when an operation is abandoned because the engine is shutting down
	ErrStopped = errors.New("engine stopped")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
