package wifi

import (
	"github.com/wlancodec/wifi/internal/bitfield"
)

// A field places one record field at a fixed bit position of an element body.
// ref returns a *bool, *uint8, *uint16 or []byte aliasing the record field.
type field[T any] struct {
	name  string
	octet int
	bit   int
	width int
	ref   func(*T) interface{}
}

// A layout is the fixed-position part of an element kind.
type layout[T any] struct {
	record string
	size   int
	fields []field[T]
}

func flagAt[T any](name string, octet, bit int, ref func(*T) *bool) field[T] {
	return field[T]{name: name, octet: octet, bit: bit, width: 1, ref: func(r *T) interface{} { return ref(r) }}
}

func u8At[T any](name string, octet, bit, width int, ref func(*T) *uint8) field[T] {
	return field[T]{name: name, octet: octet, bit: bit, width: width, ref: func(r *T) interface{} { return ref(r) }}
}

func u16At[T any](name string, octet, bit, width int, ref func(*T) *uint16) field[T] {
	return field[T]{name: name, octet: octet, bit: bit, width: width, ref: func(r *T) interface{} { return ref(r) }}
}

// bytesAt places a whole-octet array; width is in octets.
func bytesAt[T any](name string, octet, n int, ref func(*T) []byte) field[T] {
	return field[T]{name: name, octet: octet, width: n * 8, ref: func(r *T) interface{} { return ref(r) }}
}

// check reports the first field of r that does not fit its width.
func (l layout[T]) check(r *T) error {
	for _, f := range l.fields {
		var v uint64
		switch p := f.ref(r).(type) {
		case *uint8:
			v = uint64(*p)
		case *uint16:
			v = uint64(*p)
		default:
			continue
		}
		if !bitfield.Fits(v, f.width) {
			return &FieldOverflowError{Record: l.record, Field: f.name, Width: f.width, Value: v}
		}
	}

	return nil
}

// pack writes r's fields into b, which must be at least l.size long.
func (l layout[T]) pack(b []byte, r *T) error {
	if err := l.check(r); err != nil {
		return err
	}

	for _, f := range l.fields {
		off := f.octet*8 + f.bit
		var err error
		switch p := f.ref(r).(type) {
		case *bool:
			var v uint16
			if *p {
				v = 1
			}
			err = bitfield.Set(b, off, 1, v)
		case *uint8:
			err = bitfield.Set(b, off, f.width, uint16(*p))
		case *uint16:
			err = bitfield.Set(b, off, f.width, *p)
		case []byte:
			copy(b[f.octet:f.octet+f.width/8], p)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// unpack reads r's fields from b. It fails with ErrMalformedElement when b is
// shorter than l.size.
func (l layout[T]) unpack(b []byte, r *T) error {
	if len(b) < l.size {
		return malformed("%s needs %d bytes, have %d", l.record, l.size, len(b))
	}

	for _, f := range l.fields {
		off := f.octet*8 + f.bit
		if p, ok := f.ref(r).([]byte); ok {
			copy(p, b[f.octet:f.octet+f.width/8])
			continue
		}

		v, err := bitfield.Get(b, off, f.width)
		if err != nil {
			return err
		}
		switch p := f.ref(r).(type) {
		case *bool:
			*p = v != 0
		case *uint8:
			*p = uint8(v)
		case *uint16:
			*p = v
		}
	}

	return nil
}

// A Capability is a record encoded as a single capability or operation
// element.
type Capability interface {
	// Key returns the element kind the record encodes to.
	Key() ElementKey

	marshal(p *Params) ([]byte, error)
	unmarshal(b []byte, p *Params) error
}

// Params holds state that changes how an element is laid out but that is not
// carried by the element itself.
type Params struct {
	// FromAP is set when the element is sent by an AP. It selects between
	// the 20 MHz-only and the 80 MHz EHT-MCS maps.
	FromAP bool

	// Widths are the channel width capabilities that gate EHT MCS/NSS maps.
	// They are taken from the HE Capabilities element sent alongside.
	Widths ChannelWidths
}

// Marshal encodes c as an element. The element may exceed 255 bytes, in which
// case it must be fragmented before transmission (see MarshalElements).
func Marshal(c Capability, p *Params) (Element, error) {
	if p == nil {
		p = &Params{}
	}

	b, err := c.marshal(p)
	if err != nil {
		return Element{}, err
	}

	k := c.Key()
	return Element{ID: k.ID, Extension: k.Extension, Data: b}, nil
}

// Unmarshal decodes e into c. Failures are reported as *ElementError.
func Unmarshal(e Element, c Capability, p *Params) error {
	if p == nil {
		p = &Params{}
	}

	err := errWrongElement
	if e.Key() == c.Key() {
		err = c.unmarshal(e.Data, p)
	}
	if err != nil {
		return &ElementError{ID: e.ID, Extension: e.Extension, Length: e.Len(), Err: err}
	}

	return nil
}

// appendLayout packs r and appends it to b.
func appendLayout[T any](b []byte, l layout[T], r *T) ([]byte, error) {
	out := make([]byte, l.size)
	if err := l.pack(out, r); err != nil {
		return nil, err
	}

	return append(b, out...), nil
}

// takeLayout unpacks a T from the front of b and returns the rest of b.
func takeLayout[T any](b []byte, l layout[T]) (*T, []byte, error) {
	r := new(T)
	if err := l.unpack(b, r); err != nil {
		return nil, b, err
	}

	return r, b[l.size:], nil
}

// A bitReader reads consecutive fields from a buffer. The first error is
// sticky; later reads return zero.
type bitReader struct {
	b   []byte
	off int
	err error
}

func (r *bitReader) read(width int) uint16 {
	if r.err != nil {
		return 0
	}

	v, err := bitfield.Get(r.b, r.off, width)
	r.err = err
	r.off += width
	return v
}

// A bitWriter writes consecutive fields into a buffer, checking that each
// value fits its width.
type bitWriter struct {
	record string
	b      []byte
	off    int
	err    error
}

func (w *bitWriter) write(name string, width int, v uint64) {
	if w.err != nil {
		return
	}

	if !bitfield.Fits(v, width) {
		w.err = &FieldOverflowError{Record: w.record, Field: name, Width: width, Value: v}
		return
	}

	w.err = bitfield.Set(w.b, w.off, width, uint16(v))
	w.off += width
}

// setBit sets bit n of b.
func setBit(b []byte, n int) { b[n/8] |= 1 << (n % 8) }

// bitSet reports whether bit n of b is set.
func bitSet(b []byte, n int) bool { return b[n/8]&(1<<(n%8)) != 0 }
