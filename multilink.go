package wifi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// A MultiLinkType is the variant of a Multi-Link element.
type MultiLinkType uint8

// Supported MultiLinkType values.
const (
	MultiLinkBasic        MultiLinkType = 0
	MultiLinkProbeRequest MultiLinkType = 1
)

// String returns the string representation of a MultiLinkType.
func (t MultiLinkType) String() string {
	switch t {
	case MultiLinkBasic:
		return "basic"
	case MultiLinkProbeRequest:
		return "probe request"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// A MultiLinkElement is a Multi-Link element (802.11be-2024, 9.4.2.321).
//
// Optional Common Info fields are nil when not present; their presence bits
// are derived from them. The Probe Request variant carries only APMLDID in its
// Common Info.
type MultiLinkElement struct {
	Type MultiLinkType

	MLDMACAddr           net.HardwareAddr
	LinkID               *uint8
	BSSParamsChangeCount *uint8
	MediumSyncDelay      *uint16
	EML                  *EMLCapabilities
	MLD                  *MLDCapabilities
	APMLDID              *uint8
	ExtMLDCapabilities   *uint16

	Profiles []StaProfile
}

// EMLCapabilities is the EML Capabilities field of a Multi-Link element.
type EMLCapabilities struct {
	EMLSR                bool
	EMLSRPaddingDelay    uint8
	EMLSRTransitionDelay uint8
	EMLMR                bool
	EMLMRDelay           uint8
	TransitionTimeout    uint8
}

var emlCapabilitiesLayout = layout[EMLCapabilities]{
	record: "EMLCapabilities",
	size:   2,
	fields: []field[EMLCapabilities]{
		flagAt("EMLSR", 0, 0, func(c *EMLCapabilities) *bool { return &c.EMLSR }),
		u8At("EMLSRPaddingDelay", 0, 1, 3, func(c *EMLCapabilities) *uint8 { return &c.EMLSRPaddingDelay }),
		u8At("EMLSRTransitionDelay", 0, 4, 3, func(c *EMLCapabilities) *uint8 { return &c.EMLSRTransitionDelay }),
		flagAt("EMLMR", 0, 7, func(c *EMLCapabilities) *bool { return &c.EMLMR }),
		u8At("EMLMRDelay", 1, 0, 3, func(c *EMLCapabilities) *uint8 { return &c.EMLMRDelay }),
		u8At("TransitionTimeout", 1, 3, 4, func(c *EMLCapabilities) *uint8 { return &c.TransitionTimeout }),
	},
}

// MLDCapabilities is the MLD Capabilities And Operations field of a
// Multi-Link element.
type MLDCapabilities struct {
	MaxSimultaneousLinks   uint8
	SRS                    bool
	TIDToLinkMapping       uint8
	FrequencySeparationSTR uint8
	AAR                    bool
}

var mldCapabilitiesLayout = layout[MLDCapabilities]{
	record: "MLDCapabilities",
	size:   2,
	fields: []field[MLDCapabilities]{
		u8At("MaxSimultaneousLinks", 0, 0, 4, func(c *MLDCapabilities) *uint8 { return &c.MaxSimultaneousLinks }),
		flagAt("SRS", 0, 4, func(c *MLDCapabilities) *bool { return &c.SRS }),
		u8At("TIDToLinkMapping", 0, 5, 2, func(c *MLDCapabilities) *uint8 { return &c.TIDToLinkMapping }),
		u8At("FrequencySeparationSTR", 0, 7, 5, func(c *MLDCapabilities) *uint8 { return &c.FrequencySeparationSTR }),
		flagAt("AAR", 1, 4, func(c *MLDCapabilities) *bool { return &c.AAR }),
	},
}

// Presence bits of the Multi-Link Control field, counted from bit 0 of the
// field.
const (
	mlBasicLinkID          = 4
	mlBasicBSSParamsCount  = 5
	mlBasicMediumSyncDelay = 6
	mlBasicEML             = 7
	mlBasicMLD             = 8
	mlBasicAPMLDID         = 9
	mlBasicExtMLD          = 10

	mlProbeAPMLDID = 4
)

// Key returns the element kind of a Multi-Link element.
func (*MultiLinkElement) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionMultiLink}
}

// BuildMultiLink builds the Multi-Link element of a frame of type ft, with the
// Common Info of common and one per-STA profile for each partner link, built
// against ref by BuildProfile.
//
// A partner link without an entry in links is left out, and an error wrapping
// ErrNoPartnerLinkInfo is returned along with the element built from the
// other links. Any other error aborts the build.
func BuildMultiLink(ref *CapabilitySet, common MultiLinkElement, partners []PartnerLink, links LinkMap, ft FrameType) (*MultiLinkElement, error) {
	return buildMultiLink(ref, common, partners, links, ft, DefaultFeatures())
}

// BuildMultiLink is like the package-level BuildMultiLink, but its per-STA
// profiles carry only the element kinds enabled in c's Features.
func (c *Codec) BuildMultiLink(ref *CapabilitySet, common MultiLinkElement, partners []PartnerLink, links LinkMap, ft FrameType) (*MultiLinkElement, error) {
	return buildMultiLink(ref, common, partners, links, ft, c.f)
}

func buildMultiLink(ref *CapabilitySet, common MultiLinkElement, partners []PartnerLink, links LinkMap, ft FrameType, f Features) (*MultiLinkElement, error) {
	m := common
	m.Profiles = nil

	var errs []error
	for _, l := range partners {
		p, err := buildProfile(ref, l, links, ft, f)
		switch {
		case errors.Is(err, ErrNoPartnerLinkInfo):
			errs = append(errs, err)
			continue
		case err != nil:
			return nil, err
		}
		m.Profiles = append(m.Profiles, *p)
	}

	// Check the whole element so that an encode failure surfaces here.
	if _, err := m.body(ft); err != nil {
		return nil, err
	}

	return &m, errors.Join(errs...)
}

// MarshalMultiLink returns m, carried in a frame of type ft, as a primary
// element followed by any Fragment elements it needs.
func MarshalMultiLink(m *MultiLinkElement, ft FrameType) ([]Element, error) {
	e, err := m.element(ft)
	if err != nil {
		return nil, err
	}

	return FragmentElement(e).Elements(), nil
}

// element returns m as a single logical element, which may exceed 255 bytes.
func (m *MultiLinkElement) element(ft FrameType) (Element, error) {
	b, err := m.body(ft)
	if err != nil {
		return Element{}, err
	}

	return Element{ID: ElementIDExtension, Extension: ExtensionMultiLink, Data: b}, nil
}

// body returns the element body following the extension octet.
func (m *MultiLinkElement) body(ft FrameType) ([]byte, error) {
	ctl := make([]byte, 2)
	w := &bitWriter{record: "MultiLinkElement", b: ctl}
	w.write("Type", 3, uint64(m.Type))
	if w.err != nil {
		return nil, w.err
	}

	var (
		info []byte
		err  error
	)
	switch m.Type {
	case MultiLinkBasic:
		info, err = m.basicCommonInfo(ctl)
	case MultiLinkProbeRequest:
		info, err = m.probeCommonInfo(ctl)
	default:
		err = fmt.Errorf("multi-link: unsupported type %s", m.Type)
	}
	if err != nil {
		return nil, err
	}

	b := append(ctl, info...)
	for i := range m.Profiles {
		pb, err := m.Profiles[i].body(m.Type, ft)
		if err != nil {
			return nil, err
		}
		b = appendSubelement(b, subelementIDPerSTAProfile, pb)
	}

	return b, nil
}

func (m *MultiLinkElement) basicCommonInfo(ctl []byte) ([]byte, error) {
	if len(m.MLDMACAddr) != 6 {
		return nil, fmt.Errorf("multi-link: invalid MLD MAC address %v", m.MLDMACAddr)
	}

	info := append([]byte{0}, m.MLDMACAddr...)
	if m.LinkID != nil {
		if *m.LinkID > 0x0f {
			return nil, &FieldOverflowError{Record: "MultiLinkElement", Field: "LinkID", Width: 4, Value: uint64(*m.LinkID)}
		}
		setBit(ctl, mlBasicLinkID)
		info = append(info, *m.LinkID)
	}
	if m.BSSParamsChangeCount != nil {
		setBit(ctl, mlBasicBSSParamsCount)
		info = append(info, *m.BSSParamsChangeCount)
	}
	if m.MediumSyncDelay != nil {
		setBit(ctl, mlBasicMediumSyncDelay)
		info = binary.LittleEndian.AppendUint16(info, *m.MediumSyncDelay)
	}

	var err error
	if m.EML != nil {
		setBit(ctl, mlBasicEML)
		if info, err = appendLayout(info, emlCapabilitiesLayout, m.EML); err != nil {
			return nil, err
		}
	}
	if m.MLD != nil {
		setBit(ctl, mlBasicMLD)
		if info, err = appendLayout(info, mldCapabilitiesLayout, m.MLD); err != nil {
			return nil, err
		}
	}
	if m.APMLDID != nil {
		setBit(ctl, mlBasicAPMLDID)
		info = append(info, *m.APMLDID)
	}
	if m.ExtMLDCapabilities != nil {
		setBit(ctl, mlBasicExtMLD)
		info = binary.LittleEndian.AppendUint16(info, *m.ExtMLDCapabilities)
	}

	info[0] = uint8(len(info))
	return info, nil
}

func (m *MultiLinkElement) probeCommonInfo(ctl []byte) ([]byte, error) {
	if m.MLDMACAddr != nil || m.LinkID != nil || m.BSSParamsChangeCount != nil ||
		m.MediumSyncDelay != nil || m.EML != nil || m.MLD != nil || m.ExtMLDCapabilities != nil {
		return nil, errors.New("multi-link: probe request variant carries only the AP MLD ID")
	}

	info := []byte{0}
	if m.APMLDID != nil {
		setBit(ctl, mlProbeAPMLDID)
		info = append(info, *m.APMLDID)
	}

	info[0] = uint8(len(info))
	return info, nil
}

// UnmarshalMultiLink decodes the body of a reassembled Multi-Link element,
// following its extension octet, carried in a frame of type ft.
//
// Errors in the Common Info fail the decode. Errors in a per-STA profile are
// returned alongside the element: a profile whose STA Control or STA Info
// cannot be decoded is dropped, and a profile with a malformed element keeps
// the elements before it. Subelements other than per-STA profiles are
// ignored.
func UnmarshalMultiLink(b []byte, ft FrameType) (*MultiLinkElement, error) {
	if len(b) < 3 {
		return nil, malformed("Multi-Link element needs 3 bytes, have %d", len(b))
	}

	ctl := b[:2]
	r := &bitReader{b: ctl}
	m := &MultiLinkElement{Type: MultiLinkType(r.read(3))}

	l := int(b[2])
	if l < 1 || len(b[2:]) < l {
		return nil, malformed("Multi-Link Common Info length %d invalid for %d remaining bytes", l, len(b[2:]))
	}

	info := b[3 : 2+l]
	var err error
	switch m.Type {
	case MultiLinkBasic:
		err = m.parseBasicCommonInfo(ctl, info)
	case MultiLinkProbeRequest:
		err = m.parseProbeCommonInfo(ctl, info)
	default:
		err = malformed("unsupported Multi-Link type %s", m.Type)
	}
	if err != nil {
		return nil, err
	}

	subs, serr := parseSubelements(b[2+l:])
	var errs []error
	if serr != nil {
		errs = append(errs, serr)
	}

	for _, s := range subs {
		if s.ID != subelementIDPerSTAProfile {
			continue
		}

		p, err := UnmarshalProfile(s.Data, m.Type, ft)
		if err != nil {
			errs = append(errs, err)
		}
		if p != nil {
			m.Profiles = append(m.Profiles, *p)
		}
	}

	return m, errors.Join(errs...)
}

// commonInfoReader reads the fixed-size Common Info fields in order.
type commonInfoReader struct {
	b   []byte
	err error
}

func (r *commonInfoReader) take(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b) < n {
		r.err = malformed("Multi-Link Common Info too short for %s", field)
		return nil
	}

	v := r.b[:n]
	r.b = r.b[n:]
	return v
}

func (r *commonInfoReader) u8(field string) *uint8 {
	v := r.take(field, 1)
	if v == nil {
		return nil
	}
	u := v[0]
	return &u
}

func (r *commonInfoReader) u16(field string) *uint16 {
	v := r.take(field, 2)
	if v == nil {
		return nil
	}
	u := binary.LittleEndian.Uint16(v)
	return &u
}

func (m *MultiLinkElement) parseBasicCommonInfo(ctl, info []byte) error {
	r := &commonInfoReader{b: info}
	if mac := r.take("MLD MAC address", 6); mac != nil {
		m.MLDMACAddr = net.HardwareAddr(append([]byte(nil), mac...))
	}
	if bitSet(ctl, mlBasicLinkID) {
		if m.LinkID = r.u8("link ID info"); m.LinkID != nil {
			*m.LinkID &= 0x0f
		}
	}
	if bitSet(ctl, mlBasicBSSParamsCount) {
		m.BSSParamsChangeCount = r.u8("BSS parameters change count")
	}
	if bitSet(ctl, mlBasicMediumSyncDelay) {
		m.MediumSyncDelay = r.u16("medium synchronization delay")
	}
	if bitSet(ctl, mlBasicEML) {
		if v := r.take("EML capabilities", emlCapabilitiesLayout.size); v != nil {
			m.EML, _, r.err = takeLayout(v, emlCapabilitiesLayout)
		}
	}
	if bitSet(ctl, mlBasicMLD) {
		if v := r.take("MLD capabilities", mldCapabilitiesLayout.size); v != nil {
			m.MLD, _, r.err = takeLayout(v, mldCapabilitiesLayout)
		}
	}
	if bitSet(ctl, mlBasicAPMLDID) {
		m.APMLDID = r.u8("AP MLD ID")
	}
	if bitSet(ctl, mlBasicExtMLD) {
		m.ExtMLDCapabilities = r.u16("extended MLD capabilities")
	}

	return r.err
}

func (m *MultiLinkElement) parseProbeCommonInfo(ctl, info []byte) error {
	r := &commonInfoReader{b: info}
	if bitSet(ctl, mlProbeAPMLDID) {
		m.APMLDID = r.u8("AP MLD ID")
	}

	return r.err
}
