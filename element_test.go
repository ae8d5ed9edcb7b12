package wifi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseElements(t *testing.T) {
	tests := []struct {
		name  string
		b     []byte
		elems []Element
		ok    bool
	}{
		{
			name: "empty",
			ok:   true,
		},
		{
			name: "missing length",
			b:    []byte{0x00},
		},
		{
			name:  "truncated after good element",
			b:     []byte{0x00, 0x01, 'a', 0x01, 0x02, 0x82},
			elems: []Element{{ID: ElementIDSSID, Data: []byte("a")}},
		},
		{
			name:  "extension without extension octet",
			b:     []byte{0xff, 0x00, 0x01, 0x01, 0x82},
			elems: []Element{{ID: ElementIDSupportedRates, Data: []byte{0x82}}},
		},
		{
			name: "OK",
			b: []byte{
				0x00, 0x04, 't', 'e', 's', 't',
				0x01, 0x02, 0x82, 0x84,
				0xff, 0x03, 0x38, 0x01, 0x2d,
				0xdd, 0x00,
			},
			elems: []Element{
				{ID: ElementIDSSID, Data: []byte("test")},
				{ID: ElementIDSupportedRates, Data: []byte{0x82, 0x84}},
				{ID: ElementIDExtension, Extension: ExtensionNonInheritance, Data: []byte{0x01, 0x2d}},
				{ID: ElementIDVendorSpecific, Data: []byte{}},
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elems, err := ParseElements(tt.b)

			if tt.ok && err != nil {
				t.Fatalf("failed to parse elements: %v", err)
			}
			if !tt.ok {
				if !errors.Is(err, ErrMalformedElement) {
					t.Fatalf("expected malformed element error, but got: %v", err)
				}
				var ee *ElementError
				if !errors.As(err, &ee) {
					t.Fatalf("expected *ElementError, but got: %T", err)
				}
			}

			if diff := cmp.Diff(tt.elems, elems); diff != "" {
				t.Fatalf("unexpected elements (-want +got):\n%s", diff)
			}
		})
	}
}

func TestElementLen(t *testing.T) {
	e := Element{ID: ElementIDExtension, Extension: ExtensionHECapabilities, Data: make([]byte, 20)}
	if want, got := 21, e.Len(); want != got {
		t.Fatalf("unexpected extension element length:\n- want: %d\n-  got: %d", want, got)
	}

	e = Element{ID: ElementIDHTCapabilities, Data: make([]byte, 26)}
	if want, got := 26, e.Len(); want != got {
		t.Fatalf("unexpected element length:\n- want: %d\n-  got: %d", want, got)
	}
}

func TestAppendElements(t *testing.T) {
	dst := []byte{0xaa}

	b, err := AppendElements(dst,
		Element{ID: ElementIDSSID, Data: []byte("hi")},
		Element{ID: ElementIDExtension, Extension: ExtensionMultiLink, Data: []byte{0x01}},
	)
	if err != nil {
		t.Fatalf("failed to append elements: %v", err)
	}

	want := []byte{0xaa, 0x00, 0x02, 'h', 'i', 0xff, 0x02, 0x6b, 0x01}
	if !bytes.Equal(want, b) {
		t.Fatalf("unexpected bytes:\n- want: [%# x]\n-  got: [%# x]", want, b)
	}

	// The extension octet counts toward the 255 byte limit.
	long := Element{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities, Data: make([]byte, 255)}
	b, err = AppendElements(dst, long)
	if !errors.Is(err, ErrElementTooLong) {
		t.Fatalf("expected element too long, but got: %v", err)
	}
	if !bytes.Equal(dst, b) {
		t.Fatalf("destination modified on error: [%# x]", b)
	}

	if _, err := AppendElements(nil, Element{ID: ElementIDExtension, Data: make([]byte, 254)}); err != nil {
		t.Fatalf("failed to append 255 byte element: %v", err)
	}
}

func TestMarshalElementsRoundTrip(t *testing.T) {
	elems := []Element{
		{ID: ElementIDSSID, Data: []byte("fragments")},
		{ID: ElementIDVendorSpecific, Data: bytes.Repeat([]byte{0x11}, 600)},
		{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities, Data: bytes.Repeat([]byte{0x22}, 300)},
	}

	b, err := MarshalElements(elems...)
	if err != nil {
		t.Fatalf("failed to marshal elements: %v", err)
	}

	raw, err := ParseElements(b)
	if err != nil {
		t.Fatalf("failed to parse elements: %v", err)
	}

	if diff := cmp.Diff(elems, Reassemble(raw)); diff != "" {
		t.Fatalf("unexpected elements (-want +got):\n%s", diff)
	}
}

func TestElementKeyString(t *testing.T) {
	tests := []struct {
		k ElementKey
		s string
	}{
		{
			k: ElementKey{ID: ElementIDHTCapabilities},
			s: "ht_capabilities",
		},
		{
			k: ElementKey{ID: ElementIDExtension, Extension: ExtensionMultiLink},
			s: "multi_link",
		},
		{
			k: ElementKey{ID: 200},
			s: "element(200)",
		},
		{
			k: ElementKey{ID: ElementIDExtension, Extension: 250},
			s: "extension(250)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if want, got := tt.s, tt.k.String(); want != got {
				t.Fatalf("unexpected element key string:\n- want: %q\n-  got: %q",
					want, got)
			}
		})
	}
}
