package payload

import "fmt"

var (
	// ErrCorruptEntry is returned when a stored record cannot be decoded
	// into a valid value
	ErrCorruptEntry = fmt.Errorf("payload: corrupt entry")

	// ErrSelector is returned for a selector that cannot name a payload
	ErrSelector = fmt.Errorf("payload: invalid selector")
)

// ErrCorrupt wraps the reason a stored record was rejected
func ErrCorrupt(reason string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptEntry, reason, err)
	}
	return fmt.Errorf("%w: %s", ErrCorruptEntry, reason)
}

// ErrInvalidSelector returns an error describing an unusable selector
func ErrInvalidSelector(msg string) error {
	return fmt.Errorf("%w: %s", ErrSelector, msg)
}
