package wifi

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldOverflow is returned when a record field holds a value that does
	// not fit in the bits its element layout gives it.
	ErrFieldOverflow = errors.New("field value overflows its bit width")

	// ErrMalformedElement is returned when a received element is shorter than
	// its kind requires or claims more bytes than remain in its buffer.
	ErrMalformedElement = errors.New("malformed 802.11 information element")

	// ErrTruncatedMcsMap is returned when a variable MCS/NSS section ends before
	// every map required by the channel width flags has been read.
	ErrTruncatedMcsMap = errors.New("truncated MCS/NSS map")

	// ErrNoPartnerLinkInfo is returned when a partner link's channel mapping
	// is unknown.
	ErrNoPartnerLinkInfo = errors.New("no channel information for partner link")

	// ErrElementTooLong is returned when an unfragmented element payload
	// exceeds 255 bytes.
	ErrElementTooLong = errors.New("information element exceeds 255 bytes")

	// errWrongElement is returned when a record is decoded from an element of
	// another kind.
	errWrongElement = errors.New("element does not match record kind")
)

// A FieldOverflowError names the record field that failed to encode.
type FieldOverflowError struct {
	Record string
	Field  string
	Width  int
	Value  uint64
}

// Error implements error.
func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("%s.%s: value %d overflows %d-bit field", e.Record, e.Field, e.Value, e.Width)
}

// Unwrap makes errors.Is(err, ErrFieldOverflow) hold.
func (e *FieldOverflowError) Unwrap() error { return ErrFieldOverflow }

// An ElementError reports a decode failure isolated to one element.
type ElementError struct {
	ID        uint8
	Extension uint8
	Length    int
	Err       error
}

// Error implements error.
func (e *ElementError) Error() string {
	if e.ID == ElementIDExtension {
		return fmt.Sprintf("element %d/%d (length %d): %v", e.ID, e.Extension, e.Length, e.Err)
	}
	return fmt.Sprintf("element %d (length %d): %v", e.ID, e.Length, e.Err)
}

// Unwrap returns the underlying error.
func (e *ElementError) Unwrap() error { return e.Err }

// malformed wraps ErrMalformedElement with a reason.
func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedElement, fmt.Sprintf(format, args...))
}

// truncated wraps ErrTruncatedMcsMap and ErrMalformedElement with a reason.
func truncated(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w: %s", ErrMalformedElement, ErrTruncatedMcsMap, fmt.Sprintf(format, args...))
}
