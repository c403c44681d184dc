package common

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrSignatureInvalid  = errors.New("gateway signature verification failed")
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotPublished = errors.New("event is not open for booking")
	ErrEventExpired      = errors.New("event date has already passed")
	ErrCapacityExceeded  = errors.New("not enough units left for this event")
	ErrAmbiguousAmount   = errors.New("amount is not a clean multiple of the unit price")
	ErrIdentityMissing   = errors.New("no usable identity on the payment record")
	ErrRepairLocked      = errors.New("repair already running for this event")
)

// Retryable reports whether the caller should retry (or let the gateway
// redeliver). Validation and capacity failures are final; a missing identity
// may be backfilled later, and storage trouble is transient by assumption.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrIdentityMissing):
		return true
	case errors.Is(err, ErrSignatureInvalid),
		errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrEventNotPublished),
		errors.Is(err, ErrEventExpired),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAmbiguousAmount),
		errors.Is(err, ErrRepairLocked),
		errors.Is(err, gorm.ErrRecordNotFound):
		return false
	}
	// Anything else is assumed to be storage-level and transient.
	return true
}
