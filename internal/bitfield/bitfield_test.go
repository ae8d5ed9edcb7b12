package bitfield

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetSet(t *testing.T) {
	tests := []struct {
		name  string
		off   int
		width int
		v     uint16
		b     []byte
	}{
		{
			name:  "single bit",
			off:   3,
			width: 1,
			v:     1,
			b:     []byte{0x08, 0x00, 0x00},
		},
		{
			name:  "low nibble",
			off:   0,
			width: 4,
			v:     0xa,
			b:     []byte{0x0a, 0x00, 0x00},
		},
		{
			name:  "spans bytes",
			off:   7,
			width: 3,
			v:     0x5,
			b:     []byte{0x80, 0x02, 0x00},
		},
		{
			name:  "16 bits unaligned",
			off:   4,
			width: 16,
			v:     0xbeef,
			b:     []byte{0xf0, 0xee, 0x0b},
		},
		{
			name:  "max value",
			off:   8,
			width: 10,
			v:     1023,
			b:     []byte{0x00, 0xff, 0x03},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make([]byte, 3)
			if err := Set(b, tt.off, tt.width, tt.v); err != nil {
				t.Fatalf("failed to set: %v", err)
			}

			if diff := cmp.Diff(tt.b, b); diff != "" {
				t.Fatalf("unexpected bytes (-want +got):\n%s", diff)
			}

			v, err := Get(b, tt.off, tt.width)
			if err != nil {
				t.Fatalf("failed to get: %v", err)
			}
			if want, got := tt.v, v; want != got {
				t.Fatalf("unexpected value:\n- want: %#x\n-  got: %#x", want, got)
			}
		})
	}
}

func TestSetPreservesNeighbours(t *testing.T) {
	b := []byte{0xff, 0xff}
	if err := Set(b, 6, 4, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	if diff := cmp.Diff([]byte{0x3f, 0xfc}, b); diff != "" {
		t.Fatalf("unexpected bytes (-want +got):\n%s", diff)
	}
}

func TestOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		off   int
		width int
		v     uint16
	}{
		{name: "value too large", off: 0, width: 3, v: 8},
		{name: "past end", off: 14, width: 3},
		{name: "zero width", off: 0, width: 0},
		{name: "too wide", off: 0, width: 17},
		{name: "negative offset", off: -1, width: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Set(make([]byte, 2), tt.off, tt.width, tt.v)
			if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected out of range, got: %v", err)
			}
		})
	}

	if _, err := Get(make([]byte, 1), 6, 3); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected out of range from Get, got: %v", err)
	}
}

func TestFits(t *testing.T) {
	if !Fits(7, 3) {
		t.Fatal("7 should fit in 3 bits")
	}
	if Fits(8, 3) {
		t.Fatal("8 should not fit in 3 bits")
	}
}
