package wifi

import (
	"bytes"
	"slices"
)

// NonInheritance is the body of a Non-Inheritance element. It lists the
// element kinds a per-STA profile does not inherit from the reporting link.
type NonInheritance struct {
	ElementIDs   []uint8
	ExtensionIDs []uint8
}

// Empty reports whether n lists no element kinds.
func (n NonInheritance) Empty() bool {
	return len(n.ElementIDs) == 0 && len(n.ExtensionIDs) == 0
}

// Contains reports whether n lists kind k.
func (n NonInheritance) Contains(k ElementKey) bool {
	if k.ID == ElementIDExtension {
		return slices.Contains(n.ExtensionIDs, k.Extension)
	}
	return slices.Contains(n.ElementIDs, k.ID)
}

// add lists kind k, keeping both lists sorted and free of duplicates.
func (n *NonInheritance) add(k ElementKey) {
	ids, v := &n.ElementIDs, k.ID
	if k.ID == ElementIDExtension {
		ids, v = &n.ExtensionIDs, k.Extension
	}

	if i, ok := slices.BinarySearch(*ids, v); !ok {
		*ids = slices.Insert(*ids, i, v)
	}
}

// inheritable reports whether a per-STA profile can inherit kind k from the
// reporting link.
func inheritable(k ElementKey) bool {
	switch k {
	case ElementKey{ID: ElementIDFragment},
		ElementKey{ID: ElementIDExtension},
		ElementKey{ID: ElementIDExtension, Extension: ExtensionNonInheritance},
		ElementKey{ID: ElementIDExtension, Extension: ExtensionMultiLink}:
		return false
	}
	return true
}

// listable reports whether kind k may appear in a Non-Inheritance element.
// Supported Rates is always inherited.
func listable(k ElementKey) bool {
	return inheritable(k) && k != ElementKey{ID: ElementIDSupportedRates}
}

// Key implements Capability.
func (*NonInheritance) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionNonInheritance}
}

func (n *NonInheritance) marshal(_ *Params) ([]byte, error) {
	// Both lists and the extension octet share the element's 255 bytes.
	if l := 3 + len(n.ElementIDs) + len(n.ExtensionIDs); l > maxElementLen {
		return nil, ErrElementTooLong
	}

	b := append([]byte{uint8(len(n.ElementIDs))}, n.ElementIDs...)
	b = append(b, uint8(len(n.ExtensionIDs)))
	return append(b, n.ExtensionIDs...), nil
}

func (n *NonInheritance) unmarshal(b []byte, _ *Params) error {
	*n = NonInheritance{}

	var lists [2][]uint8
	for i := range lists {
		if len(b) < 1 {
			return malformed("NonInheritance: missing list length")
		}
		l := int(b[0])
		if len(b[1:]) < l {
			return malformed("NonInheritance: list length %d exceeds %d remaining bytes", l, len(b[1:]))
		}
		if l > 0 {
			lists[i] = append([]uint8(nil), b[1:1+l]...)
		}
		b = b[1+l:]
	}

	n.ElementIDs, n.ExtensionIDs = lists[0], lists[1]
	return nil
}

// groupElements returns the elements of elems by kind, and the kinds in
// order of first appearance.
func groupElements(elems []Element) (map[ElementKey][]Element, []ElementKey) {
	groups := make(map[ElementKey][]Element)
	var keys []ElementKey
	for _, e := range elems {
		k := e.Key()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}

	return groups, keys
}

// equalElements reports whether a and b hold the same elements in the same
// order, byte for byte.
func equalElements(a, b []Element) bool {
	return slices.EqualFunc(a, b, func(x, y Element) bool {
		return x.Key() == y.Key() && bytes.Equal(x.Data, y.Data)
	})
}

// Diff computes the elements a per-STA profile must carry for a link whose
// elements are link, given the reporting link's elements ref.
//
// Kinds carried identically by both are inherited and not emitted. Kinds the
// link carries differently, or that ref lacks, are emitted. Kinds present in
// ref but absent from link are listed in the returned NonInheritance. Kinds
// with several elements, such as Vendor Specific, are compared as a whole.
// The emitted elements are in transmission order.
func Diff(ref, link []Element) ([]Element, NonInheritance) {
	var (
		emit []Element
		ni   NonInheritance
	)

	refGroups, refKeys := groupElements(ref)
	linkGroups, linkKeys := groupElements(link)

	for _, k := range linkKeys {
		if !equalElements(refGroups[k], linkGroups[k]) {
			emit = append(emit, linkGroups[k]...)
		}
	}
	for _, k := range refKeys {
		if _, ok := linkGroups[k]; !ok && listable(k) {
			ni.add(k)
		}
	}

	sortElements(emit)
	return emit, ni
}

// Inherit returns the effective elements of a link whose per-STA profile
// carries profile and non-inheritance list ni, given the reporting link's
// elements ref. The result is in transmission order.
func Inherit(ref, profile []Element, ni NonInheritance) []Element {
	own, _ := groupElements(profile)

	out := append([]Element(nil), profile...)
	for _, e := range ref {
		k := e.Key()
		if _, ok := own[k]; ok || !inheritable(k) || ni.Contains(k) {
			continue
		}
		out = append(out, e)
	}

	sortElements(out)
	return out
}
