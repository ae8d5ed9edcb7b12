package wifi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket/layers"
)

var (
	testBSSID = net.HardwareAddr{0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0x01}
	testSTA   = net.HardwareAddr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}
)

// mgmtFrame builds an 802.11 frame with frame control octet fc, sent by the
// BSS, optionally followed by its frame check sequence.
func mgmtFrame(fc byte, body []byte, fcs bool) []byte {
	b := []byte{fc, 0x00, 0x00, 0x00}
	b = append(b, testSTA...)
	b = append(b, testBSSID...)
	b = append(b, testBSSID...)
	b = append(b, 0x10, 0x00)
	b = append(b, body...)
	if fcs {
		b = binary.LittleEndian.AppendUint32(b, crc32.ChecksumIEEE(b))
	}

	return b
}

// radiotap prepends a radiotap header with the Flags and Channel fields to
// frame.
func radiotap(frame []byte, freq uint16, fcs bool) []byte {
	var flags byte
	if fcs {
		flags = 0x10
	}

	b := []byte{
		0x00, 0x00, 14, 0x00,
		0x0a, 0x00, 0x00, 0x00,
		flags, 0x00,
	}
	b = binary.LittleEndian.AppendUint16(b, freq)
	b = binary.LittleEndian.AppendUint16(b, 0x0140)

	return append(b, frame...)
}

func TestDecodeFrame(t *testing.T) {
	fixed := []byte{1, 2, 3, 4, 5, 6, 7, 8, 0x64, 0x00, 0x11, 0x04}
	elems := []byte{ElementIDSSID, 3, 'l', 'a', 'b', ElementIDSupportedRates, 1, 0x8c}
	beacon := append(append([]byte(nil), fixed...), elems...)

	tests := []struct {
		name string
		data []byte
		lt   layers.LinkType
		f    *Frame
	}{
		{
			name: "beacon with FCS",
			data: mgmtFrame(0x80, beacon, true),
			lt:   layers.LinkTypeIEEE802_11,
			f: &Frame{
				Type:     FrameBeacon,
				Addr1:    testSTA,
				Addr2:    testBSSID,
				Addr3:    testBSSID,
				Fixed:    fixed,
				Elements: elems,
			},
		},
		{
			name: "beacon without FCS",
			data: mgmtFrame(0x80, beacon, false),
			lt:   layers.LinkTypeIEEE802_11,
			f: &Frame{
				Type:     FrameBeacon,
				Addr1:    testSTA,
				Addr2:    testBSSID,
				Addr3:    testBSSID,
				Fixed:    fixed,
				Elements: elems,
			},
		},
		{
			name: "probe request with radiotap",
			data: radiotap(mgmtFrame(0x40, elems, true), 5180, true),
			lt:   layers.LinkTypeIEEE80211Radio,
			f: &Frame{
				Type:      FrameProbeRequest,
				Addr1:     testSTA,
				Addr2:     testBSSID,
				Addr3:     testBSSID,
				Frequency: 5180,
				Fixed:     []byte{},
				Elements:  elems,
			},
		},
		{
			name: "association response with radiotap and no FCS",
			data: radiotap(mgmtFrame(0x10, append([]byte{0x11, 0x04, 0x00, 0x00, 0x01, 0xc0}, elems...), false), 2437, false),
			lt:   layers.LinkTypeIEEE80211Radio,
			f: &Frame{
				Type:      FrameAssocResponse,
				Addr1:     testSTA,
				Addr2:     testBSSID,
				Addr3:     testBSSID,
				Frequency: 2437,
				Fixed:     []byte{0x11, 0x04, 0x00, 0x00, 0x01, 0xc0},
				Elements:  elems,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame(tt.data, tt.lt)
			if err != nil {
				t.Fatalf("failed to decode frame: %v", err)
			}

			if diff := cmp.Diff(tt.f, f); diff != "" {
				t.Fatalf("unexpected frame (-want +got):\n%s", diff)
			}

			fe, err := NewCodec(nil).Decode(f.Elements, f.Type)
			if err != nil {
				t.Fatalf("failed to decode elements: %v", err)
			}
			if fe.SSID != "lab" || !bytes.Equal(fe.Capabilities.Rates, []byte{0x8c}) {
				t.Fatalf("unexpected elements: %+v", fe)
			}
		})
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		lt   layers.LinkType
		err  error
	}{
		{
			name: "data frame",
			data: mgmtFrame(0x08, []byte{0xaa, 0xaa, 0x03}, true),
			lt:   layers.LinkTypeIEEE802_11,
			err:  errNotManagement,
		},
		{
			name: "short beacon body",
			data: mgmtFrame(0x80, []byte{1, 2, 3, 4, 5}, false),
			lt:   layers.LinkTypeIEEE802_11,
			err:  ErrMalformedElement,
		},
		{
			name: "short header",
			data: []byte{0x80, 0x00, 0x00},
			lt:   layers.LinkTypeIEEE802_11,
		},
		{
			name: "bad FCS with radiotap",
			data: radiotap(append(mgmtFrame(0x40, nil, false), 0, 0, 0, 0), 5180, true),
			lt:   layers.LinkTypeIEEE80211Radio,
		},
		{
			name: "unsupported link type",
			data: mgmtFrame(0x80, make([]byte, 12), true),
			lt:   layers.LinkTypeEthernet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame(tt.data, tt.lt)
			if err == nil {
				t.Fatal("expected an error, but none occurred")
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("unexpected error:\n- want: %v\n-  got: %v", tt.err, err)
			}
		})
	}
}
