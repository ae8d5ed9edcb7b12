package wifi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	testRates  = Element{ID: ElementIDSupportedRates, Data: []byte{0x8c, 0x12, 0x98, 0x24}}
	testHT     = Element{ID: ElementIDHTCapabilities, Data: make([]byte, 26)}
	testHTOp   = Element{ID: ElementIDHTOperation, Data: make([]byte, 22)}
	testVHT    = Element{ID: ElementIDVHTCapabilities, Data: make([]byte, 12)}
	testHE     = Element{ID: ElementIDExtension, Extension: ExtensionHECapabilities, Data: make([]byte, 21)}
	testEHT    = Element{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities, Data: make([]byte, 14)}
	testVendor = Element{ID: ElementIDVendorSpecific, Data: []byte{0x00, 0x50, 0xf2, 0x02}}
)

func TestDiff(t *testing.T) {
	otherHE := Element{ID: ElementIDExtension, Extension: ExtensionHECapabilities, Data: bytes.Repeat([]byte{1}, 21)}

	tests := []struct {
		name string
		ref  []Element
		link []Element
		emit []Element
		ni   NonInheritance

		// inherited is the link's effective element set when it differs
		// from link.
		inherited []Element
	}{
		{
			name: "identical",
			ref:  []Element{testRates, testHT, testVHT, testHE, testEHT, testVendor},
			link: []Element{testRates, testHT, testVHT, testHE, testEHT, testVendor},
		},
		{
			name: "identical but independently built",
			ref:  []Element{testHT},
			link: []Element{{ID: ElementIDHTCapabilities, Data: make([]byte, 26)}},
		},
		{
			name: "link lacks elements",
			ref:  []Element{testRates, testHT, testHTOp, testVHT, testHE, testEHT},
			link: []Element{testRates, testHE, testEHT},
			ni: NonInheritance{
				ElementIDs: []uint8{ElementIDHTCapabilities, ElementIDHTOperation, ElementIDVHTCapabilities},
			},
		},
		{
			name: "link differs",
			ref:  []Element{testHT, testHE},
			link: []Element{testHT, otherHE},
			emit: []Element{otherHE},
		},
		{
			name: "link adds elements",
			ref:  []Element{testHT},
			link: []Element{testEHT, testHT, testVendor},
			emit: []Element{testEHT, testVendor},
		},
		{
			name: "extension kinds",
			ref:  []Element{testHT, testHE, testEHT},
			link: []Element{testHT},
			ni: NonInheritance{
				ExtensionIDs: []uint8{ExtensionHECapabilities, ExtensionEHTCapabilities},
			},
		},
		{
			name:      "supported rates are never listed",
			ref:       []Element{testRates, testHT},
			link:      []Element{testHT},
			inherited: []Element{testRates, testHT},
		},
		{
			name: "vendor elements compared as a whole",
			ref:  []Element{testVendor},
			link: []Element{testVendor, {ID: ElementIDVendorSpecific, Data: []byte{0x00, 0x10, 0x18}}},
			emit: []Element{testVendor, {ID: ElementIDVendorSpecific, Data: []byte{0x00, 0x10, 0x18}}},
		},
		{
			name:      "unknown kinds sort before vendor",
			ref:       []Element{testHT},
			link:      []Element{testVendor, {ID: 70, Data: []byte{0x01}}, testEHT, testHT, testRates},
			emit:      []Element{testRates, testEHT, {ID: 70, Data: []byte{0x01}}, testVendor},
			inherited: []Element{testRates, testHT, testEHT, {ID: 70, Data: []byte{0x01}}, testVendor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emit, ni := Diff(tt.ref, tt.link)

			if diff := cmp.Diff(tt.emit, emit); diff != "" {
				t.Fatalf("unexpected emitted elements (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.ni, ni); diff != "" {
				t.Fatalf("unexpected non-inheritance (-want +got):\n%s", diff)
			}

			// The reporting link's elements plus the profile give back
			// exactly the link's elements.
			got := Inherit(tt.ref, emit, ni)
			want := tt.inherited
			if want == nil {
				want = append([]Element(nil), tt.link...)
				sortElements(want)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected inherited elements (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffNeverListsNonInheritance(t *testing.T) {
	niElem, err := Marshal(&NonInheritance{ElementIDs: []uint8{ElementIDHTCapabilities}}, nil)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	ref := []Element{testHT, niElem, {ID: ElementIDFragment, Data: []byte{1}}}
	_, ni := Diff(ref, nil)

	want := NonInheritance{ElementIDs: []uint8{ElementIDHTCapabilities}}
	if diff := cmp.Diff(want, ni); diff != "" {
		t.Fatalf("unexpected non-inheritance (-want +got):\n%s", diff)
	}
}

func TestNonInheritanceRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ni   *NonInheritance
		b    []byte
	}{
		{
			name: "empty",
			ni:   &NonInheritance{},
			b:    []byte{0x00, 0x00},
		},
		{
			name: "both lists",
			ni: &NonInheritance{
				ElementIDs:   []uint8{ElementIDHTCapabilities, ElementIDVHTCapabilities},
				ExtensionIDs: []uint8{ExtensionHECapabilities},
			},
			b: []byte{0x02, 45, 191, 0x01, 35},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := roundTrip(t, tt.ni, new(NonInheritance), nil)
			if !bytes.Equal(tt.b, e.Data) {
				t.Fatalf("unexpected bytes:\n- want: [%# x]\n-  got: [%# x]", tt.b, e.Data)
			}
		})
	}

	e := Element{ID: ElementIDExtension, Extension: ExtensionNonInheritance, Data: []byte{0x03, 45, 61}}
	if err := Unmarshal(e, new(NonInheritance), nil); !errors.Is(err, ErrMalformedElement) {
		t.Fatalf("expected malformed element, but got: %v", err)
	}

	long := &NonInheritance{ElementIDs: make([]uint8, 253)}
	if _, err := Marshal(long, nil); !errors.Is(err, ErrElementTooLong) {
		t.Fatalf("expected element too long, but got: %v", err)
	}
}

func TestNonInheritanceContains(t *testing.T) {
	var ni NonInheritance
	ni.add(ElementKey{ID: ElementIDVHTCapabilities})
	ni.add(ElementKey{ID: ElementIDHTCapabilities})
	ni.add(ElementKey{ID: ElementIDHTCapabilities})
	ni.add(ElementKey{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities})

	want := NonInheritance{
		ElementIDs:   []uint8{ElementIDHTCapabilities, ElementIDVHTCapabilities},
		ExtensionIDs: []uint8{ExtensionEHTCapabilities},
	}
	if diff := cmp.Diff(want, ni); diff != "" {
		t.Fatalf("unexpected non-inheritance (-want +got):\n%s", diff)
	}

	if !ni.Contains(ElementKey{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities}) {
		t.Fatal("EHT capabilities not listed")
	}
	// HT Capabilities and extension 45 are different kinds.
	if ni.Contains(ElementKey{ID: ElementIDExtension, Extension: ElementIDHTCapabilities}) {
		t.Fatal("extension element matched element ID list")
	}
	if ni.Empty() || !(NonInheritance{}).Empty() {
		t.Fatal("unexpected Empty result")
	}
}
