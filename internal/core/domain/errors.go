package domain

import "errors"

var (
	ErrNetwork       = errors.New("catalog source unreachable")
	ErrFormat        = errors.New("unparseable catalog feed")
	ErrConfiguration = errors.New("missing configuration")

	ErrSessionNotFound = errors.New("session not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrItemNotFound    = errors.New("menu item not found")
)

// Causes carried by ValidationError.
var (
	ErrCartEmpty           = errors.New("cart empty")
	ErrOrderClosed         = errors.New("order closed")
	ErrOutOfStock          = errors.New("out of stock")
	ErrNotOffered          = errors.New("item not offered on date")
	ErrNoProfile           = errors.New("no profile")
	ErrInvalidProfile      = errors.New("invalid profile")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrInvalidTransition   = errors.New("invalid checkout transition")
	ErrInvalidSlot         = errors.New("invalid delivery slot")
)

// ValidationError is a business rule violation that is shown to the user.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(cause error, reason string) error {
	return &ValidationError{Reason: reason, Err: cause}
}

// IsValidation distinguishes user-facing rule violations from infrastructure failures.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Reason returns the user-facing message of a validation error, or "" otherwise.
func Reason(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Reason
	}
	return ""
}
