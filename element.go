package wifi

import (
	"errors"
	"fmt"
)

// Element IDs used by this package (802.11-2020, 9.4.2.1).
const (
	ElementIDSSID                 = 0
	ElementIDSupportedRates       = 1
	ElementIDBSSLoad              = 11
	ElementIDHTCapabilities       = 45
	ElementIDExtendedRates        = 50
	ElementIDHTOperation          = 61
	ElementIDExtendedCapabilities = 127
	ElementIDVHTCapabilities      = 191
	ElementIDVHTOperation         = 192
	ElementIDVendorSpecific       = 221
	ElementIDFragment             = 242
	ElementIDExtension            = 255
)

// Element ID Extensions carried behind ElementIDExtension.
const (
	ExtensionHECapabilities         = 35
	ExtensionHEOperation            = 36
	ExtensionSpatialReuse           = 39
	ExtensionNonInheritance         = 56
	ExtensionHE6GHzBandCapabilities = 59
	ExtensionEHTOperation           = 106
	ExtensionMultiLink              = 107
	ExtensionEHTCapabilities        = 108
)

// maxElementLen is the largest value of an element's Length octet.
const maxElementLen = 255

// An Element is an 802.11 information element. When ID is ElementIDExtension,
// Extension holds the Element ID Extension octet and Data holds the bytes
// following it. Elements produced by ParseElements share memory with the
// parsed buffer.
type Element struct {
	ID        uint8
	Extension uint8
	Data      []byte
}

// An ElementKey identifies an element kind.
type ElementKey struct {
	ID        uint8
	Extension uint8
}

// Key returns the kind of e. Extension is zero unless e is an extension
// element.
func (e Element) Key() ElementKey {
	if e.ID != ElementIDExtension {
		return ElementKey{ID: e.ID}
	}
	return ElementKey{ID: e.ID, Extension: e.Extension}
}

// Len returns the value of e's Length octet, which counts the extension octet
// when present.
func (e Element) Len() int {
	if e.ID == ElementIDExtension {
		return len(e.Data) + 1
	}
	return len(e.Data)
}

// String returns a short description of an ElementKey.
func (k ElementKey) String() string {
	switch k {
	case ElementKey{ID: ElementIDSSID}:
		return "ssid"
	case ElementKey{ID: ElementIDSupportedRates}:
		return "supported_rates"
	case ElementKey{ID: ElementIDBSSLoad}:
		return "bss_load"
	case ElementKey{ID: ElementIDHTCapabilities}:
		return "ht_capabilities"
	case ElementKey{ID: ElementIDExtendedRates}:
		return "extended_rates"
	case ElementKey{ID: ElementIDHTOperation}:
		return "ht_operation"
	case ElementKey{ID: ElementIDExtendedCapabilities}:
		return "extended_capabilities"
	case ElementKey{ID: ElementIDVHTCapabilities}:
		return "vht_capabilities"
	case ElementKey{ID: ElementIDVHTOperation}:
		return "vht_operation"
	case ElementKey{ID: ElementIDVendorSpecific}:
		return "vendor_specific"
	case ElementKey{ID: ElementIDFragment}:
		return "fragment"
	}

	if k.ID != ElementIDExtension {
		return fmt.Sprintf("element(%d)", k.ID)
	}

	switch k.Extension {
	case ExtensionHECapabilities:
		return "he_capabilities"
	case ExtensionHEOperation:
		return "he_operation"
	case ExtensionSpatialReuse:
		return "spatial_reuse"
	case ExtensionNonInheritance:
		return "non_inheritance"
	case ExtensionHE6GHzBandCapabilities:
		return "he_6ghz_band_capabilities"
	case ExtensionEHTOperation:
		return "eht_operation"
	case ExtensionMultiLink:
		return "multi_link"
	case ExtensionEHTCapabilities:
		return "eht_capabilities"
	default:
		return fmt.Sprintf("extension(%d)", k.Extension)
	}
}

// ParseElements parses zero or more elements from b. The returned elements
// are views into b.
//
// An element with an invalid length does not stop the walk when its extent is
// still known, so the remaining elements are returned alongside an error. An
// element whose length runs past the end of b ends the walk; every element
// before it is returned. Errors are *ElementError values joined together.
func ParseElements(b []byte) ([]Element, error) {
	var (
		elems []Element
		errs  []error
	)

	for i := 0; i < len(b); {
		if len(b[i:]) < 2 {
			errs = append(errs, &ElementError{
				ID:     b[i],
				Length: -1,
				Err:    malformed("missing length octet"),
			})
			break
		}

		id := b[i]
		l := int(b[i+1])
		i += 2

		if len(b[i:]) < l {
			e := &ElementError{
				ID:     id,
				Length: l,
				Err:    malformed("length %d exceeds %d remaining bytes", l, len(b[i:])),
			}
			if id == ElementIDExtension && len(b[i:]) > 0 {
				e.Extension = b[i]
			}
			errs = append(errs, e)
			break
		}

		data := b[i : i+l]
		i += l

		if id != ElementIDExtension {
			elems = append(elems, Element{ID: id, Data: data})
			continue
		}
		if l == 0 {
			errs = append(errs, &ElementError{
				ID:  id,
				Err: malformed("extension element without extension octet"),
			})
			continue
		}

		elems = append(elems, Element{
			ID:        id,
			Extension: data[0],
			Data:      data[1:],
		})
	}

	return elems, errors.Join(errs...)
}

// AppendElements appends the wire form of elems to dst. If any element is
// longer than 255 bytes, dst is returned unmodified with ErrElementTooLong.
func AppendElements(dst []byte, elems ...Element) ([]byte, error) {
	n := 0
	for _, e := range elems {
		if e.Len() > maxElementLen {
			return dst, &ElementError{
				ID:        e.ID,
				Extension: e.Extension,
				Length:    e.Len(),
				Err:       ErrElementTooLong,
			}
		}
		n += 2 + e.Len()
	}

	out := make([]byte, len(dst), len(dst)+n)
	copy(out, dst)
	for _, e := range elems {
		out = append(out, e.ID, uint8(e.Len()))
		if e.ID == ElementIDExtension {
			out = append(out, e.Extension)
		}
		out = append(out, e.Data...)
	}

	return out, nil
}

// MarshalElements returns the wire form of elems, fragmenting any element
// longer than 255 bytes.
func MarshalElements(elems ...Element) ([]byte, error) {
	var out []Element
	for _, e := range elems {
		out = append(out, FragmentElement(e).Elements()...)
	}

	return AppendElements(nil, out...)
}

// findElement returns the first element of kind k.
func findElement(elems []Element, k ElementKey) (Element, bool) {
	for _, e := range elems {
		if e.Key() == k {
			return e, true
		}
	}

	return Element{}, false
}
