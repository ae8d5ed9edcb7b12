package wifi

import (
	"errors"
	"slices"
)

// A CapabilitySet is the set of capability and operation elements a device
// advertises on one link. Absent elements are nil.
type CapabilitySet struct {
	// Rates holds the Supported Rates and Extended Supported Rates octets
	// in 500 kb/s units, with the basic rate flag in the high bit. The first
	// eight are carried in the Supported Rates element.
	Rates []byte

	Load         *BSSLoad
	HT           *HTCapabilities
	HTOperation  *HTOperation
	VHT          *VHTCapabilities
	VHTOperation *VHTOperation
	HE           *HECapabilities
	HEOperation  *HEOperation
	SpatialReuse *SpatialReuse
	HE6GHz       *HE6GHzBandCapabilities
	EHT          *EHTCapabilities
	EHTOperation *EHTOperation

	// ExtendedCapabilities is the body of the Extended Capabilities element,
	// or nil if not present.
	ExtendedCapabilities []byte

	// Vendor holds Vendor Specific elements.
	Vendor []Element

	// Other holds elements this package does not decode, or whose kind is
	// disabled by Features.
	Other []Element
}

// maxSupportedRates is the number of rates carried by Supported Rates before
// Extended Supported Rates is needed.
const maxSupportedRates = 8

// A capabilityKind binds an element kind to a CapabilitySet field.
type capabilityKind struct {
	key     ElementKey
	enabled func(Features) bool
	get     func(*CapabilitySet) Capability
	alloc   func(*CapabilitySet) Capability
	clear   func(*CapabilitySet)
}

func kind[T any, P interface {
	*T
	Capability
}](k ElementKey, enabled func(Features) bool, ref func(*CapabilitySet) *P) capabilityKind {
	if enabled == nil {
		enabled = func(Features) bool { return true }
	}

	return capabilityKind{
		key:     k,
		enabled: enabled,
		get: func(s *CapabilitySet) Capability {
			if p := *ref(s); p != nil {
				return p
			}
			return nil
		},
		alloc: func(s *CapabilitySet) Capability {
			p := P(new(T))
			*ref(s) = p
			return p
		},
		clear: func(s *CapabilitySet) { *ref(s) = nil },
	}
}

// capabilityKinds lists the decoded kinds. HE Capabilities precedes EHT
// Capabilities so that its channel widths are known when EHT is decoded. EHT
// kinds are only handled along with HE, since the EHT MCS maps are sized by
// the HE channel widths.
func ehtEnabled(f Features) bool { return f.HE && f.EHT }

var capabilityKinds = []capabilityKind{
	kind(ElementKey{ID: ElementIDBSSLoad}, nil,
		func(s *CapabilitySet) **BSSLoad { return &s.Load }),
	kind(ElementKey{ID: ElementIDHTCapabilities}, func(f Features) bool { return f.HT },
		func(s *CapabilitySet) **HTCapabilities { return &s.HT }),
	kind(ElementKey{ID: ElementIDHTOperation}, func(f Features) bool { return f.HT },
		func(s *CapabilitySet) **HTOperation { return &s.HTOperation }),
	kind(ElementKey{ID: ElementIDVHTCapabilities}, func(f Features) bool { return f.VHT },
		func(s *CapabilitySet) **VHTCapabilities { return &s.VHT }),
	kind(ElementKey{ID: ElementIDVHTOperation}, func(f Features) bool { return f.VHT },
		func(s *CapabilitySet) **VHTOperation { return &s.VHTOperation }),
	kind(ElementKey{ID: ElementIDExtension, Extension: ExtensionHECapabilities}, func(f Features) bool { return f.HE },
		func(s *CapabilitySet) **HECapabilities { return &s.HE }),
	kind(ElementKey{ID: ElementIDExtension, Extension: ExtensionHEOperation}, func(f Features) bool { return f.HE },
		func(s *CapabilitySet) **HEOperation { return &s.HEOperation }),
	kind(ElementKey{ID: ElementIDExtension, Extension: ExtensionSpatialReuse}, func(f Features) bool { return f.HE && f.SpatialReuse },
		func(s *CapabilitySet) **SpatialReuse { return &s.SpatialReuse }),
	kind(ElementKey{ID: ElementIDExtension, Extension: ExtensionHE6GHzBandCapabilities}, func(f Features) bool { return f.HE },
		func(s *CapabilitySet) **HE6GHzBandCapabilities { return &s.HE6GHz }),
	kind(ElementKey{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities}, ehtEnabled,
		func(s *CapabilitySet) **EHTCapabilities { return &s.EHT }),
	kind(ElementKey{ID: ElementIDExtension, Extension: ExtensionEHTOperation}, ehtEnabled,
		func(s *CapabilitySet) **EHTOperation { return &s.EHTOperation }),
}

// elementOrder is the order in which elements appear in a frame body or a
// per-STA profile. Kinds not listed sort after Multi-Link and just before
// Vendor Specific.
var elementOrder = []ElementKey{
	{ID: ElementIDSSID},
	{ID: ElementIDSupportedRates},
	{ID: ElementIDBSSLoad},
	{ID: ElementIDHTCapabilities},
	{ID: ElementIDExtendedRates},
	{ID: ElementIDHTOperation},
	{ID: ElementIDExtendedCapabilities},
	{ID: ElementIDVHTCapabilities},
	{ID: ElementIDVHTOperation},
	{ID: ElementIDExtension, Extension: ExtensionHECapabilities},
	{ID: ElementIDExtension, Extension: ExtensionHEOperation},
	{ID: ElementIDExtension, Extension: ExtensionSpatialReuse},
	{ID: ElementIDExtension, Extension: ExtensionHE6GHzBandCapabilities},
	{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities},
	{ID: ElementIDExtension, Extension: ExtensionEHTOperation},
	{ID: ElementIDExtension, Extension: ExtensionMultiLink},
	{ID: ElementIDVendorSpecific},
	{ID: ElementIDExtension, Extension: ExtensionNonInheritance},
}

// orderOf returns the sort rank of kind k. Listed kinds take even ranks so
// that unlisted kinds fit between Multi-Link and Vendor Specific.
func orderOf(k ElementKey) int {
	if i := slices.Index(elementOrder, k); i >= 0 {
		return 2 * i
	}
	return 2*slices.Index(elementOrder, ElementKey{ID: ElementIDVendorSpecific}) - 1
}

// sortElements orders elems for transmission. Elements of the same kind keep
// their relative order.
func sortElements(elems []Element) {
	slices.SortStableFunc(elems, func(a, b Element) int {
		return orderOf(a.Key()) - orderOf(b.Key())
	})
}

// params returns the layout parameters for s.
func (s *CapabilitySet) params(fromAP bool) *Params {
	return &Params{FromAP: fromAP, Widths: WidthsFrom(s.HE, nil)}
}

// Elements encodes s in transmission order. fromAP is set when s describes an
// AP. Any encode failure is returned and no elements are produced.
func (s *CapabilitySet) Elements(fromAP bool) ([]Element, error) {
	return s.elements(fromAP, DefaultFeatures())
}

func (s *CapabilitySet) elements(fromAP bool, f Features) ([]Element, error) {
	var out []Element
	if len(s.Rates) > 0 {
		n := min(len(s.Rates), maxSupportedRates)
		out = append(out, Element{ID: ElementIDSupportedRates, Data: s.Rates[:n]})
		if len(s.Rates) > n {
			out = append(out, Element{ID: ElementIDExtendedRates, Data: s.Rates[n:]})
		}
	}
	if s.ExtendedCapabilities != nil {
		out = append(out, Element{ID: ElementIDExtendedCapabilities, Data: s.ExtendedCapabilities})
	}

	p := s.params(fromAP)
	for _, k := range capabilityKinds {
		c := k.get(s)
		if c == nil || !k.enabled(f) {
			continue
		}

		e, err := Marshal(c, p)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	out = append(out, s.Other...)
	out = append(out, s.Vendor...)
	sortElements(out)

	return out, nil
}

// ParseCapabilities decodes the capability elements in elems, which must
// already be reassembled. fromAP is set when the elements were sent by an AP.
//
// An element that fails to decode leaves its field nil and does not stop the
// decoding of the others; the failures are returned as joined *ElementError
// values alongside the partially filled set.
func ParseCapabilities(elems []Element, fromAP bool) (*CapabilitySet, error) {
	return parseCapabilities(elems, fromAP, DefaultFeatures(), nil)
}

// parseCapabilities implements ParseCapabilities. done is called for every
// decoded kind with the decode result.
func parseCapabilities(elems []Element, fromAP bool, f Features, done func(Element, error)) (*CapabilitySet, error) {
	var (
		s    CapabilitySet
		errs []error
	)

	handled := make(map[ElementKey]bool)
	for _, k := range capabilityKinds {
		if !k.enabled(f) {
			continue
		}
		handled[k.key] = true

		e, ok := findElement(elems, k.key)
		if !ok {
			continue
		}

		err := Unmarshal(e, k.alloc(&s), s.params(fromAP))
		if err != nil {
			// Leave the field unset rather than half decoded.
			k.clear(&s)
			errs = append(errs, err)
		}
		if done != nil {
			done(e, err)
		}
	}

	seen := make(map[ElementKey]bool)
	for _, e := range elems {
		k := e.Key()
		switch {
		case k.ID == ElementIDSupportedRates || k.ID == ElementIDExtendedRates:
			s.Rates = append(s.Rates, e.Data...)
		case k.ID == ElementIDExtendedCapabilities:
			s.ExtendedCapabilities = append([]byte(nil), e.Data...)
		case k.ID == ElementIDVendorSpecific:
			s.Vendor = append(s.Vendor, e)
		case handled[k] && !seen[k]:
			// Decoded above.
		default:
			s.Other = append(s.Other, e)
		}
		seen[k] = true
	}

	return &s, errors.Join(errs...)
}
