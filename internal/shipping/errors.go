package shipping

// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.
const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
)

// ShippingError represents a shipping-specific error with a code and message.
type ShippingError struct {
	Code    string
	Message string
}

func (e *ShippingError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *ShippingError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *ShippingError) ErrorMessage() string {
	return e.Message
}

func newShippingError(code, message string) *ShippingError {
	return &ShippingError{Code: code, Message: message}
}

var (
	// ErrNoRatesAvailable is returned when a provider offers no option.
	ErrNoRatesAvailable = newShippingError(codeInternal, "No shipping rates available")

	// ErrInvalidSubtotal is returned for a negative order subtotal.
	ErrInvalidSubtotal = newShippingError(codeInvalid, "Subtotal cannot be negative")

	// ErrInvalidConfig is returned for a negative threshold or fee.
	ErrInvalidConfig = newShippingError(codeInvalid, "Shipping threshold and fee must not be negative")
)
