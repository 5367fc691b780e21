package otbin

import (
	"errors"

	"github.com/npillmayer/otforge/core"
)

// Error conditions of the reading path. These are triggered by untrusted
// input and are safe to test with errors.Is.
var (
	ErrTruncatedInput = errors.New("truncated input")
	ErrOutOfRange     = errors.New("offset out of range")
	ErrBadShape       = errors.New("malformed shape string")
)

// Error conditions of the writing path. These signal misuse by the
// calling format code, never a problem with untrusted input, and are
// reported by Finalize.
var (
	ErrUnboundStake       = errors.New("stake never bound to a position")
	ErrUnsetDeferredValue = errors.New("deferred value never set")
	ErrNegativeOffset     = errors.New("negative offset not permitted")
	ErrOffsetOverflow     = errors.New("offset overflows field width")
	ErrMisalignedOffset   = errors.New("offset not divisible by divisor")
	ErrValueRange         = errors.New("value out of range for field")
)

func truncated(format string, v ...interface{}) error {
	return core.WrapError(ErrTruncatedInput, core.EINVALID, format, v...)
}

func outOfRange(format string, v ...interface{}) error {
	return core.WrapError(ErrOutOfRange, core.EINVALID, format, v...)
}

func badShape(format string, v ...interface{}) error {
	return core.WrapError(ErrBadShape, core.EINTERNAL, format, v...)
}

func misuse(err error, format string, v ...interface{}) error {
	return core.WrapError(err, core.EINTERNAL, format, v...)
}
