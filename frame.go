package wifi

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// errNotManagement is returned when a frame is not a management frame whose
// body carries elements.
var errNotManagement = errors.New("not a management frame with information elements")

// fcsLen is the length of the 802.11 frame check sequence.
const fcsLen = 4

// A Frame is a management frame split into its header fields, fixed body
// fields and elements.
type Frame struct {
	Type FrameType

	// Receiver, transmitter and BSSID addresses.
	Addr1 net.HardwareAddr
	Addr2 net.HardwareAddr
	Addr3 net.HardwareAddr

	// Frequency is the channel frequency in MHz reported by a radiotap
	// header, or 0.
	Frequency int

	// Fixed holds the fixed fields that precede the elements.
	Fixed []byte

	// Elements holds the elements of the frame body, as passed to
	// Codec.Decode.
	Elements []byte
}

// mgmtFrameTypes maps the management subtypes that carry elements to their
// FrameType and the length of the fixed fields before the elements.
var mgmtFrameTypes = map[layers.Dot11Type]struct {
	t     FrameType
	fixed int
}{
	layers.Dot11TypeMgmtBeacon:            {FrameBeacon, 12},
	layers.Dot11TypeMgmtProbeReq:          {FrameProbeRequest, 0},
	layers.Dot11TypeMgmtProbeResp:         {FrameProbeResponse, 12},
	layers.Dot11TypeMgmtAssociationReq:    {FrameAssocRequest, 4},
	layers.Dot11TypeMgmtAssociationResp:   {FrameAssocResponse, 6},
	layers.Dot11TypeMgmtReassociationReq:  {FrameReassocRequest, 10},
	layers.Dot11TypeMgmtReassociationResp: {FrameReassocResponse, 6},
	layers.Dot11TypeMgmtAuthentication:    {FrameAuthentication, 6},
}

// DecodeFrame decodes a management frame captured with link type lt, which
// must be layers.LinkTypeIEEE802_11 or layers.LinkTypeIEEE80211Radio. The
// returned Frame may share memory with data.
//
// With a radiotap header, the FCS flag says whether the frame ends in a frame
// check sequence. Without one, the FCS is assumed present only when it
// matches the frame.
func DecodeFrame(data []byte, lt layers.LinkType) (*Frame, error) {
	var f Frame
	switch lt {
	case layers.LinkTypeIEEE80211Radio:
		var rt layers.RadioTap
		if err := rt.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return nil, fmt.Errorf("radiotap: %w", err)
		}
		f.Frequency = int(rt.ChannelFrequency)
		// RadioTap appends a computed FCS when the frame has none, but not
		// every gopacket release does.
		if err := f.decode(rt.LayerPayload(), true); err != nil {
			if rt.Flags.FCS() {
				return nil, err
			}
			if err := f.decode(rt.LayerPayload(), false); err != nil {
				return nil, err
			}
		}
	case layers.LinkTypeIEEE802_11:
		// Try with an FCS first, and fall back when it does not match.
		if err := f.decode(data, true); err != nil {
			if err := f.decode(data, false); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported link type %s", lt)
	}

	return &f, nil
}

// decode fills f from an 802.11 frame. If fcs is set, data must end in a
// valid frame check sequence.
func (f *Frame) decode(data []byte, fcs bool) error {
	// Dot11 always treats the last four bytes as the FCS.
	frame := data
	if !fcs {
		frame = append(append([]byte(nil), data...), make([]byte, fcsLen)...)
	}

	var d layers.Dot11
	if err := d.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return fmt.Errorf("802.11: %w", err)
	}
	if fcs && !d.ChecksumValid() {
		return errors.New("802.11: frame check sequence mismatch")
	}

	mt, ok := mgmtFrameTypes[d.Type]
	if !ok {
		return fmt.Errorf("802.11 %s: %w", d.Type, errNotManagement)
	}

	body := d.Payload
	if len(body) < mt.fixed {
		return fmt.Errorf("%s body has %d bytes, need %d fixed: %w", mt.t, len(body), mt.fixed, ErrMalformedElement)
	}

	*f = Frame{
		Type:      mt.t,
		Addr1:     d.Address1,
		Addr2:     d.Address2,
		Addr3:     d.Address3,
		Frequency: f.Frequency,
		Fixed:     body[:mt.fixed],
		Elements:  body[mt.fixed:],
	}

	return nil
}
