package aa1024

import "errors"

// Fault taxonomy. Transport failures are returned wrapped and are not part of
// this set; everything here is detected by this package itself.
var (
	// ErrInvalidChip reports a chip index outside [0, MaxChips).
	ErrInvalidChip = errors.New("chip index out of range")

	// ErrPageRange reports an address beyond the array, i.e. a page index
	// past the last page.
	ErrPageRange = errors.New("address beyond array capacity")

	// ErrProtected reports a write or erase aimed at a block-protected
	// region. The operation is refused before any bus activity.
	ErrProtected = errors.New("target address is block-protected")

	// ErrWriteRejected reports a status register write whose nonvolatile
	// bits did not read back as written. Hardware write protection is
	// engaged, or the latch timing was violated.
	ErrWriteRejected = errors.New("device rejected status register write")

	// ErrPinFault reports a control line that did not read back at the
	// level it was just driven to. This is a hardware or timing condition,
	// not a protocol failure.
	ErrPinFault = errors.New("control line did not latch")

	// ErrBadSignature reports a wake sequence whose electronic signature
	// byte did not match the expected manufacturer value.
	ErrBadSignature = errors.New("unexpected electronic signature")

	// ErrBusyTimeout reports a write cycle that did not complete within
	// the configured polling bound.
	ErrBusyTimeout = errors.New("timed out waiting for write cycle")
)
