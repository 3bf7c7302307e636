package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error codes understood by the HTTP layer. Every error returned from a
// public cart or order operation resolves to exactly one of these.
const (
	EINVALID      = "invalid"            // 400 - malformed input, nothing persisted
	EUNAUTHORIZED = "unauthorized"       // 401 - no identity on the request
	EFORBIDDEN    = "forbidden"          // 403 - role or ownership check failed
	ENOTFOUND     = "not_found"          // 404 - cart, order, item or product missing
	ESTOCK        = "insufficient_stock" // 409 - requested quantity exceeds stock-on-hand
	ESTATE        = "invalid_state"      // 409 - status transition not permitted
	ECONFLICT     = "conflict"           // 409 - duplicate request
	EABORTED      = "aborted"            // 409 - transaction rolled back (conflict or storage fault)
	EEMPTYCART    = "empty_cart"         // 422 - checkout with no items
	ERATELIMIT    = "rate_limit"         // 429
	EINTERNAL     = "internal"           // 500 - details hidden from callers
)

// Error is an application error carrying a machine-readable code, a message
// safe to show to callers, the failing operation, and an optional cause.
type Error struct {
	Code    string
	Message string

	// Op names the operation, e.g. "order.create". Logged, never shown.
	Op string

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the code from err. Unknown errors are internal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var se *StockError
	if errors.As(err, &se) {
		return ESTOCK
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}

	var ce codedError
	if errors.As(err, &ce) {
		return ce.ErrorCode()
	}

	return EINTERNAL
}

// codedError is implemented by the error types of packages that cannot
// import domain, such as tax and shipping.
type codedError interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

const internalMessage = "An internal error occurred. Please try again later."

// ErrorMessage extracts a caller-facing message from err. Internal and
// unknown errors yield a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var se *StockError
	if errors.As(err, &se) {
		return se.Error()
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return internalMessage
		}
		return e.Message
	}

	var ce codedError
	if errors.As(err, &ce) && ce.ErrorCode() != EINTERNAL {
		return ce.ErrorMessage()
	}

	return internalMessage
}

// ErrorOp extracts the operation from err for logging.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Errorf creates a coded error with a formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError attaches a code, operation and message to err. Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// =============================================================================
// Field validation
// =============================================================================

// ValidationError collects field-level input failures.
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return fmt.Sprintf("%s: %s", field, msg)
		}
	}
	return fmt.Sprintf("validation failed for %d fields", len(e.Fields))
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError adds a field failure to err, creating a ValidationError when
// err is nil or of another type.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the field failures of a ValidationError, or nil.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// =============================================================================
// Stock
// =============================================================================

// StockError reports a quantity that exceeds stock-on-hand for one product.
// It is safe to retry the operation once stock changes.
type StockError struct {
	Op          string
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("Insufficient stock for %s: requested %d, only %d left", name, e.Requested, e.Available)
}

// Unwrap lets errors.Is(err, ErrInsufficientStock) match any StockError.
func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// InsufficientStock builds a StockError for product p.
func InsufficientStock(op string, p *Product, requested int) error {
	return &StockError{
		Op:          op,
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.StockQuantity,
	}
}

// =============================================================================
// Shared errors and constructors
// =============================================================================

var (
	ErrInsufficientStock = &Error{Code: ESTOCK, Message: "Insufficient stock"}
	ErrTxAborted         = &Error{Code: EABORTED, Message: "The operation was aborted by a concurrent update, please retry"}
)

// NotFound creates a not found error for a resource.
func NotFound(op, resource, identifier string) error {
	return &Error{Code: ENOTFOUND, Op: op, Message: fmt.Sprintf("%s not found: %s", resource, identifier)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

// Forbidden creates a forbidden error.
func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

// Invalid creates a single-issue validation error.
func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// InvalidState creates an error for a transition the order's status forbids.
func InvalidState(op, message string) error {
	return &Error{Code: ESTATE, Op: op, Message: message}
}

// Conflict creates a conflict error.
func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Aborted wraps a failed commit. The whole operation was rolled back.
func Aborted(err error, op string) error {
	return &Error{Code: EABORTED, Op: op, Message: ErrTxAborted.Message, Err: err}
}

// Internal wraps an unexpected error. Callers only see a generic message.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}
