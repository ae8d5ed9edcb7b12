package wifi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// A FrameType is the kind of management frame an element set is carried in.
// It decides whether elements are sent by an AP and which fixed fields a
// complete per-STA profile carries.
type FrameType int

// Possible FrameType values.
const (
	FrameBeacon FrameType = iota
	FrameProbeRequest
	FrameProbeResponse
	FrameAssocRequest
	FrameAssocResponse
	FrameReassocRequest
	FrameReassocResponse
	FrameAuthentication
)

// String returns the string representation of a FrameType.
func (t FrameType) String() string {
	switch t {
	case FrameBeacon:
		return "beacon"
	case FrameProbeRequest:
		return "probe request"
	case FrameProbeResponse:
		return "probe response"
	case FrameAssocRequest:
		return "association request"
	case FrameAssocResponse:
		return "association response"
	case FrameReassocRequest:
		return "reassociation request"
	case FrameReassocResponse:
		return "reassociation response"
	case FrameAuthentication:
		return "authentication"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// FromAP reports whether frames of type t are sent by an AP. Authentication
// frames are sent by both; they are treated as sent by a non-AP station.
func (t FrameType) FromAP() bool {
	switch t {
	case FrameBeacon, FrameProbeResponse, FrameAssocResponse, FrameReassocResponse:
		return true
	default:
		return false
	}
}

// hasStatus reports whether a complete per-STA profile in frames of type t
// carries a Status Code field.
func (t FrameType) hasStatus() bool {
	return t == FrameAssocResponse || t == FrameReassocResponse
}

// A LinkChannel is the operating channel of a link.
type LinkChannel struct {
	Band    Band
	Channel uint8
	OpClass uint8
}

// A LinkMap maps link IDs to their operating channels.
type LinkMap map[uint8]LinkChannel

// DTIMInfo is the DTIM Info field of a per-STA profile.
type DTIMInfo struct {
	Count  uint8
	Period uint8
}

// A PartnerLink describes a link of an MLD other than the one a frame is sent
// on.
type PartnerLink struct {
	LinkID  uint8
	MACAddr net.HardwareAddr

	// Optional STA Info fields.
	BeaconInterval       *uint16
	TSFOffset            *int64
	DTIM                 *DTIMInfo
	NSTRBitmap           []byte
	BSSParamsChangeCount *uint8

	// Fixed fields of a complete profile. StatusCode is only sent in
	// (re)association responses.
	Complete       bool
	CapabilityInfo uint16
	StatusCode     uint16

	// Capabilities are the elements the link would advertise on its own.
	Capabilities CapabilitySet
}

// A StaProfile is a Per-STA Profile subelement of a Multi-Link element.
type StaProfile struct {
	LinkID   uint8
	Complete bool

	// STA Info fields, each nil when not present.
	MACAddr              net.HardwareAddr
	BeaconInterval       *uint16
	TSFOffset            *int64
	DTIM                 *DTIMInfo
	NSTRBitmap           []byte
	BSSParamsChangeCount *uint8

	// Fixed fields, present only in complete profiles.
	CapabilityInfo *uint16
	StatusCode     *uint16

	// Elements are the link's own elements, in transmission order, and
	// NonInheritance lists the reporting link's elements the link does not
	// inherit.
	Elements       []Element
	NonInheritance *NonInheritance
}

// Capabilities returns the effective capabilities of the profile's link,
// inheriting from ref, the elements of the frame that carried the profile.
func (p *StaProfile) Capabilities(ref []Element, fromAP bool) (*CapabilitySet, error) {
	var ni NonInheritance
	if p.NonInheritance != nil {
		ni = *p.NonInheritance
	}

	return ParseCapabilities(Inherit(ref, p.Elements, ni), fromAP)
}

// applicable returns a copy of s without the elements that have no meaning
// on band b.
func applicable(s CapabilitySet, b Band) CapabilitySet {
	switch b {
	case Band6GHz:
		s.HT, s.HTOperation = nil, nil
		s.VHT, s.VHTOperation = nil, nil
	case Band2GHz:
		s.VHT, s.VHTOperation = nil, nil
		s.HE6GHz = nil
	default:
		s.HE6GHz = nil
	}

	return s
}

// BuildProfile builds the per-STA profile of partner link l for a frame of
// type ft whose own elements are those of ref.
//
// Elements the link shares with ref are inherited and left out. Elements of
// ref that the link does not have, including those that do not apply to the
// link's band, are listed in the profile's Non-Inheritance element. It
// returns ErrNoPartnerLinkInfo if l.LinkID has no entry in links.
//
// Every element kind is encoded. Use Codec.BuildProfile to leave out the
// kinds its Features disable.
func BuildProfile(ref *CapabilitySet, l PartnerLink, links LinkMap, ft FrameType) (*StaProfile, error) {
	return buildProfile(ref, l, links, ft, DefaultFeatures())
}

// BuildProfile is like the package-level BuildProfile, but encodes only the
// element kinds enabled in c's Features.
func (c *Codec) BuildProfile(ref *CapabilitySet, l PartnerLink, links LinkMap, ft FrameType) (*StaProfile, error) {
	return buildProfile(ref, l, links, ft, c.f)
}

func buildProfile(ref *CapabilitySet, l PartnerLink, links LinkMap, ft FrameType, f Features) (*StaProfile, error) {
	ch, ok := links[l.LinkID]
	if !ok {
		return nil, fmt.Errorf("link %d: %w", l.LinkID, ErrNoPartnerLinkInfo)
	}

	var refElems []Element
	if ref != nil {
		var err error
		if refElems, err = ref.elements(ft.FromAP(), f); err != nil {
			return nil, err
		}
	}

	link := applicable(l.Capabilities, ch.Band)
	linkElems, err := link.elements(ft.FromAP(), f)
	if err != nil {
		return nil, err
	}

	emit, ni := Diff(refElems, linkElems)

	p := &StaProfile{
		LinkID:               l.LinkID,
		Complete:             l.Complete,
		MACAddr:              l.MACAddr,
		BeaconInterval:       l.BeaconInterval,
		TSFOffset:            l.TSFOffset,
		DTIM:                 l.DTIM,
		NSTRBitmap:           l.NSTRBitmap,
		BSSParamsChangeCount: l.BSSParamsChangeCount,
		Elements:             emit,
	}
	if !ni.Empty() {
		p.NonInheritance = &ni
	}
	if l.Complete {
		ci := l.CapabilityInfo
		p.CapabilityInfo = &ci
		if ft.hasStatus() {
			sc := l.StatusCode
			p.StatusCode = &sc
		}
	}

	// Validate now so that a bad link fails here rather than when the
	// Multi-Link element is marshaled.
	if _, err := p.body(MultiLinkBasic, ft); err != nil {
		return nil, err
	}

	return p, nil
}

// Subelement IDs of the Multi-Link element Link Info field.
const (
	subelementIDPerSTAProfile  = 0
	subelementIDVendorSpecific = 221
)

// Bits of the STA Control field.
const (
	staCtlComplete       = 4
	staCtlMACAddr        = 5
	staCtlBeaconInterval = 6
	staCtlTSFOffset      = 7
	staCtlDTIM           = 8
	staCtlNSTRLinkPair   = 9
	staCtlNSTRBitmapSize = 10
	staCtlBSSParamsCount = 11
)

// MarshalProfile returns the wire form of p as a Per-STA Profile subelement
// of a Multi-Link element of type t, carried in a frame of type ft. Profiles
// longer than 255 bytes are continued in Fragment subelements.
func MarshalProfile(p *StaProfile, t MultiLinkType, ft FrameType) ([]byte, error) {
	body, err := p.body(t, ft)
	if err != nil {
		return nil, err
	}

	return appendSubelement(nil, subelementIDPerSTAProfile, body), nil
}

// body returns the Per-STA Profile subelement body.
func (p *StaProfile) body(t MultiLinkType, ft FrameType) ([]byte, error) {
	const record = "StaProfile"

	ctl := make([]byte, 2)
	w := &bitWriter{record: record, b: ctl}
	w.write("LinkID", 4, uint64(p.LinkID))
	if w.err != nil {
		return nil, w.err
	}
	if p.Complete {
		setBit(ctl, staCtlComplete)
	}

	b := ctl
	if t == MultiLinkBasic {
		info, err := p.staInfo(ctl)
		if err != nil {
			return nil, err
		}
		b = append(b, info...)

		if p.Complete {
			if p.CapabilityInfo == nil || (ft.hasStatus() && p.StatusCode == nil) {
				return nil, fmt.Errorf("link %d: complete profile for %s without its fixed fields", p.LinkID, ft)
			}
			b = binary.LittleEndian.AppendUint16(b, *p.CapabilityInfo)
			if ft.hasStatus() {
				b = binary.LittleEndian.AppendUint16(b, *p.StatusCode)
			}
		}
	}

	elems := p.Elements
	if p.NonInheritance != nil && !p.NonInheritance.Empty() {
		e, err := Marshal(p.NonInheritance, nil)
		if err != nil {
			return nil, err
		}
		elems = append(append([]Element(nil), elems...), e)
	}

	var frag []Element
	for _, e := range elems {
		frag = append(frag, FragmentElement(e).Elements()...)
	}

	return AppendElements(b, frag...)
}

// staInfo returns the STA Info field of p and sets its presence bits in ctl.
func (p *StaProfile) staInfo(ctl []byte) ([]byte, error) {
	info := []byte{0}
	if p.MACAddr != nil {
		if len(p.MACAddr) != 6 {
			return nil, fmt.Errorf("link %d: invalid MAC address %v", p.LinkID, p.MACAddr)
		}
		setBit(ctl, staCtlMACAddr)
		info = append(info, p.MACAddr...)
	}
	if p.BeaconInterval != nil {
		setBit(ctl, staCtlBeaconInterval)
		info = binary.LittleEndian.AppendUint16(info, *p.BeaconInterval)
	}
	if p.TSFOffset != nil {
		setBit(ctl, staCtlTSFOffset)
		info = binary.LittleEndian.AppendUint64(info, uint64(*p.TSFOffset))
	}
	if p.DTIM != nil {
		setBit(ctl, staCtlDTIM)
		info = append(info, p.DTIM.Count, p.DTIM.Period)
	}
	if p.NSTRBitmap != nil {
		switch len(p.NSTRBitmap) {
		case 1:
		case 2:
			setBit(ctl, staCtlNSTRBitmapSize)
		default:
			return nil, fmt.Errorf("link %d: NSTR bitmap must be 1 or 2 bytes, have %d", p.LinkID, len(p.NSTRBitmap))
		}
		setBit(ctl, staCtlNSTRLinkPair)
		info = append(info, p.NSTRBitmap...)
	}
	if p.BSSParamsChangeCount != nil {
		setBit(ctl, staCtlBSSParamsCount)
		info = append(info, *p.BSSParamsChangeCount)
	}

	info[0] = uint8(len(info))
	return info, nil
}

// UnmarshalProfile decodes the body of a reassembled Per-STA Profile
// subelement of a Multi-Link element of type t, carried in a frame of type ft.
//
// A malformed element inside the profile does not discard the profile: the
// elements before it are kept and the error is returned with the profile.
func UnmarshalProfile(b []byte, t MultiLinkType, ft FrameType) (*StaProfile, error) {
	if len(b) < 2 {
		return nil, malformed("STA Control needs 2 bytes, have %d", len(b))
	}

	ctl := b[:2]
	r := &bitReader{b: ctl}
	p := &StaProfile{
		LinkID:   uint8(r.read(4)),
		Complete: bitSet(ctl, staCtlComplete),
	}
	rest := b[2:]

	if t == MultiLinkBasic {
		var err error
		if rest, err = p.parseSTAInfo(ctl, rest); err != nil {
			return nil, err
		}

		if p.Complete {
			n := 2
			if ft.hasStatus() {
				n = 4
			}
			if len(rest) < n {
				return nil, malformed("link %d: complete profile needs %d fixed bytes, have %d", p.LinkID, n, len(rest))
			}
			ci := binary.LittleEndian.Uint16(rest)
			p.CapabilityInfo = &ci
			if ft.hasStatus() {
				sc := binary.LittleEndian.Uint16(rest[2:])
				p.StatusCode = &sc
			}
			rest = rest[n:]
		}
	}

	elems, perr := ParseElements(rest)
	var errs []error
	if perr != nil {
		errs = append(errs, perr)
	}

	for _, e := range Reassemble(elems) {
		if e.Key() != (ElementKey{ID: ElementIDExtension, Extension: ExtensionNonInheritance}) {
			p.Elements = append(p.Elements, e)
			continue
		}

		ni := new(NonInheritance)
		if err := Unmarshal(e, ni, nil); err != nil {
			errs = append(errs, err)
			continue
		}
		p.NonInheritance = ni
	}

	if len(errs) > 0 {
		return p, fmt.Errorf("link %d: %w", p.LinkID, errors.Join(errs...))
	}

	return p, nil
}

// parseSTAInfo decodes the STA Info field at the front of b into p.
func (p *StaProfile) parseSTAInfo(ctl, b []byte) ([]byte, error) {
	if len(b) < 1 {
		return nil, malformed("link %d: missing STA Info", p.LinkID)
	}
	l := int(b[0])
	if l < 1 || len(b) < l {
		return nil, malformed("link %d: STA Info length %d invalid for %d remaining bytes", p.LinkID, l, len(b))
	}

	info := b[1:l]
	take := func(n int) ([]byte, bool) {
		if len(info) < n {
			return nil, false
		}
		v := info[:n]
		info = info[n:]
		return v, true
	}

	short := func(field string) error {
		return malformed("link %d: STA Info length %d too short for %s", p.LinkID, l, field)
	}

	if bitSet(ctl, staCtlMACAddr) {
		v, ok := take(6)
		if !ok {
			return nil, short("MAC address")
		}
		p.MACAddr = net.HardwareAddr(append([]byte(nil), v...))
	}
	if bitSet(ctl, staCtlBeaconInterval) {
		v, ok := take(2)
		if !ok {
			return nil, short("beacon interval")
		}
		bi := binary.LittleEndian.Uint16(v)
		p.BeaconInterval = &bi
	}
	if bitSet(ctl, staCtlTSFOffset) {
		v, ok := take(8)
		if !ok {
			return nil, short("TSF offset")
		}
		tsf := int64(binary.LittleEndian.Uint64(v))
		p.TSFOffset = &tsf
	}
	if bitSet(ctl, staCtlDTIM) {
		v, ok := take(2)
		if !ok {
			return nil, short("DTIM info")
		}
		p.DTIM = &DTIMInfo{Count: v[0], Period: v[1]}
	}
	if bitSet(ctl, staCtlNSTRLinkPair) {
		n := 1
		if bitSet(ctl, staCtlNSTRBitmapSize) {
			n = 2
		}
		v, ok := take(n)
		if !ok {
			return nil, short("NSTR bitmap")
		}
		p.NSTRBitmap = append([]byte(nil), v...)
	}
	if bitSet(ctl, staCtlBSSParamsCount) {
		v, ok := take(1)
		if !ok {
			return nil, short("BSS parameters change count")
		}
		c := v[0]
		p.BSSParamsChangeCount = &c
	}

	return b[l:], nil
}
