package service

import (
	"errors"
	"fmt"
)

// validation
var (
	ErrUnsupportedCurrency        = errors.New("primary store currency is not supported by Square")
	ErrMissingVerificationToken   = errors.New("buyer verification token is required when 3-D Secure is enabled")
	ErrNoLocationConfigured       = errors.New("no Square business location is selected")
	ErrMissingCardNonce           = errors.New("card nonce is required")
	ErrRecurringRequiresSavedCard = errors.New("recurring payments require a saved card and a registered customer")
	ErrRenewalPeriodTooLong       = errors.New("renewal period is too long")
	ErrInvalidRenewalPeriod       = errors.New("renewal period must be at least one day")
	ErrNotConfigured              = errors.New("application id and secret are not configured")
)

// processor
var (
	ErrNoServiceResponse  = errors.New("no service response")
	ErrServiceError       = errors.New("square service error")
	ErrNoActiveLocations  = errors.New("there are no active locations for the account")
	ErrMissingCredentials = errors.New("access token is not configured")
)

// authorization state
var (
	ErrAuthorizationDenied = errors.New("authorization was denied")
	ErrStateMismatch       = errors.New("verification state does not match")
)

// ProcessorError carries the single-line message built from Square's error
// details. It matches ErrServiceError with errors.Is and unwraps to the
// underlying client error.
type ProcessorError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProcessorError) Error() string {
	return e.Message
}

func (e *ProcessorError) Is(target error) bool {
	return target == ErrServiceError
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

func newProcessorError(op string, err error) error {
	return &ProcessorError{Op: op, Message: err.Error(), Err: err}
}

func noResponse(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNoServiceResponse)
}

// IsValidation reports whether err was caused by invalid caller input or
// configuration.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrUnsupportedCurrency,
		ErrMissingVerificationToken,
		ErrNoLocationConfigured,
		ErrMissingCardNonce,
		ErrRecurringRequiresSavedCard,
		ErrRenewalPeriodTooLong,
		ErrInvalidRenewalPeriod,
		ErrNotConfigured,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
