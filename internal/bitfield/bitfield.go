// Package bitfield reads and writes unsigned sub-byte fields packed
// least-significant-bit first, the convention used by IEEE 802.11 elements.
package bitfield

import (
	"errors"
	"fmt"
)

// MaxWidth is the widest field Get and Set accept.
const MaxWidth = 16

// ErrOutOfRange is returned when a field does not fit its buffer, its width is
// outside [1, MaxWidth], or a value does not fit in its width.
var ErrOutOfRange = errors.New("bitfield: out of range")

// Get returns the width-bit value starting at bit offset off of b. Bit 0 is the
// least significant bit of b[0]. Fields may span byte boundaries; each byte's
// chunk is read separately and shifted into place.
func Get(b []byte, off, width int) (uint16, error) {
	if err := check(b, off, width); err != nil {
		return 0, err
	}

	var v uint16
	for done := 0; done < width; {
		i, shift := (off+done)/8, (off+done)%8
		n := min(8-shift, width-done)
		chunk := (uint16(b[i]) >> shift) & mask(n)
		v |= chunk << done
		done += n
	}

	return v, nil
}

// Set writes v into the width-bit field starting at bit offset off of b. Bits
// outside the field are preserved.
func Set(b []byte, off, width int, v uint16) error {
	if err := check(b, off, width); err != nil {
		return err
	}
	if v > uint16(mask(width)) {
		return fmt.Errorf("%w: value %d exceeds %d-bit field", ErrOutOfRange, v, width)
	}

	for done := 0; done < width; {
		i, shift := (off+done)/8, (off+done)%8
		n := min(8-shift, width-done)
		m := byte(mask(n)) << shift
		b[i] = b[i]&^m | byte(v>>done)<<shift&m
		done += n
	}

	return nil
}

// Fits reports whether v can be stored in a field of the given width.
func Fits(v uint64, width int) bool {
	return width >= 64 || v < 1<<uint(width)
}

func check(b []byte, off, width int) error {
	if width < 1 || width > MaxWidth {
		return fmt.Errorf("%w: width %d", ErrOutOfRange, width)
	}
	if off < 0 || off+width > len(b)*8 {
		return fmt.Errorf("%w: bits [%d,%d) of %d-byte buffer", ErrOutOfRange, off, off+width, len(b))
	}

	return nil
}

func mask(n int) uint16 { return uint16(1)<<uint(n) - 1 }
