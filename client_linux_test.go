//go:build linux
// +build linux

package wifi

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/genetlink/genltest"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

func TestLinux_clientInterfacesOK(t *testing.T) {
	want := []*Interface{
		{
			Index:        1,
			Name:         "wlan0",
			HardwareAddr: net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0xde, 0xad},
			PHY:          0,
			Device:       1,
			Type:         InterfaceTypeStation,
			Frequency:    2412,
		},
		{
			HardwareAddr: net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0xde, 0xae},
			PHY:          0,
			Device:       2,
			Type:         InterfaceTypeP2PDevice,
		},
	}

	const flags = netlink.Request | netlink.Dump

	c := testClient(t, genltest.CheckRequest(familyID, unix.NL80211_CMD_GET_INTERFACE, flags,
		mustMessages(t, unix.NL80211_CMD_NEW_INTERFACE, want),
	))

	got, err := c.Interfaces()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected interfaces (-want +got):\n%s", diff)
	}
}

func TestLinux_clientBSSMissingBSSAttributeIsNotExist(t *testing.T) {
	c := testClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		// One message without BSS attribute
		return []genetlink.Message{{
			Header: genetlink.Header{
				Command: unix.NL80211_CMD_NEW_SCAN_RESULTS,
			},
			Data: mustMarshalAttributes([]netlink.Attribute{{
				Type: unix.NL80211_ATTR_IFINDEX,
				Data: nlenc.Uint32Bytes(1),
			}}),
		}}, nil
	})

	_, err := c.BSS(&Interface{
		Index:        1,
		HardwareAddr: net.HardwareAddr{0xe, 0xad, 0xbe, 0xef, 0xde, 0xad},
	})
	if !os.IsNotExist(err) {
		t.Fatalf("expected is not exist, got: %v", err)
	}
}

func TestLinux_clientBSSMissingBSSStatusAttributeIsNotExist(t *testing.T) {
	c := testClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		return []genetlink.Message{{
			Header: genetlink.Header{
				Command: unix.NL80211_CMD_NEW_SCAN_RESULTS,
			},
			// BSS attribute, but no nested status attribute for the "active" BSS
			Data: mustMarshalAttributes([]netlink.Attribute{{
				Type: unix.NL80211_ATTR_BSS,
				Data: mustMarshalAttributes([]netlink.Attribute{{
					Type: unix.NL80211_BSS_BSSID,
					Data: net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
				}}),
			}}),
		}}, nil
	})

	_, err := c.BSS(&Interface{
		Index:        1,
		HardwareAddr: net.HardwareAddr{0xe, 0xad, 0xbe, 0xef, 0xde, 0xad},
	})
	if !os.IsNotExist(err) {
		t.Fatalf("expected is not exist, got: %v", err)
	}
}

func TestLinux_clientBSSNoMessagesIsNotExist(t *testing.T) {
	c := testClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		// No messages about the BSS at the generic netlink level.
		// Caller will interpret this as no BSS.
		return nil, io.EOF
	})

	_, err := c.BSS(&Interface{
		Index:        1,
		HardwareAddr: net.HardwareAddr{0xe, 0xad, 0xbe, 0xef, 0xde, 0xad},
	})
	if !os.IsNotExist(err) {
		t.Fatalf("expected is not exist, got: %v", err)
	}
}

func TestLinux_clientBSSOKSkipMissingStatus(t *testing.T) {
	want := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

	c := testClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		return []genetlink.Message{
			// Multiple messages, but only second one has BSS status, so the
			// others should be ignored
			{
				Header: genetlink.Header{
					Command: unix.NL80211_CMD_NEW_SCAN_RESULTS,
				},
				Data: mustMarshalAttributes([]netlink.Attribute{{
					Type: unix.NL80211_ATTR_BSS,
					// Does not contain BSS information and status
					Data: mustMarshalAttributes([]netlink.Attribute{{
						Type: unix.NL80211_BSS_BSSID,
						Data: net.HardwareAddr{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa},
					}}),
				}}),
			},
			{
				Header: genetlink.Header{
					Command: unix.NL80211_CMD_NEW_SCAN_RESULTS,
				},
				Data: mustMarshalAttributes([]netlink.Attribute{{
					Type: unix.NL80211_ATTR_BSS,
					// Contains BSS information and status
					Data: mustMarshalAttributes([]netlink.Attribute{
						{
							Type: unix.NL80211_BSS_BSSID,
							Data: want,
						},
						{
							Type: unix.NL80211_BSS_STATUS,
							Data: nlenc.Uint32Bytes(uint32(BSSStatusAssociated)),
						},
					}),
				}}),
			},
		}, nil
	})

	bss, err := c.BSS(&Interface{
		Index:        1,
		HardwareAddr: net.HardwareAddr{0xe, 0xad, 0xbe, 0xef, 0xde, 0xad},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := bss.BSSID; !bytes.Equal(want, got) {
		t.Fatalf("unexpected BSS BSSID:\n- want: %#v\n-  got: %#v",
			want, got)
	}
}

func TestLinux_clientBSSOK(t *testing.T) {
	load := &BSSLoad{
		Version:                    2,
		StationCount:               3,
		ChannelUtilization:         40,
		AvailableAdmissionCapacity: 1000,
	}

	want := &BSS{
		SSID:           "Hello, 世界",
		BSSID:          net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		Frequency:      2492,
		BeaconInterval: 100 * 1024 * time.Microsecond,
		LastSeen:       10 * time.Second,
		Status:         BSSStatusAssociated,
		Load:           load,
		Capabilities: &CapabilitySet{
			Rates: []byte{0x82, 0x84, 0x8b, 0x96},
			Load:  load,
			HT: &HTCapabilities{
				RxLDPC:       true,
				CW40:         true,
				SGI20:        true,
				RxMCSBitmask: [10]byte{0xff, 0xff},
			},
		},
	}

	ifi := &Interface{
		Index:        1,
		HardwareAddr: net.HardwareAddr{0xe, 0xad, 0xbe, 0xef, 0xde, 0xad},
	}

	const flags = netlink.Request | netlink.Dump

	msgsFn := mustMessages(t, unix.NL80211_CMD_NEW_SCAN_RESULTS, want)

	c := testClient(t, genltest.CheckRequest(familyID, unix.NL80211_CMD_GET_SCAN, flags,
		func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
			// Also verify that the correct interface attributes are
			// present in the request.
			attrs, err := netlink.UnmarshalAttributes(greq.Data)
			if err != nil {
				t.Fatalf("failed to unmarshal attributes: %v", err)
			}

			if diff := diffNetlinkAttributes(ifi.idAttrs(), attrs); diff != "" {
				t.Fatalf("unexpected request netlink attributes (-want +got):\n%s", diff)
			}

			return msgsFn(greq, nreq)
		},
	))

	got, err := c.BSS(ifi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected BSS (-want +got):\n%s", diff)
	}
}

func TestLinux_clientAccessPointsOK(t *testing.T) {
	want := []*BSS{
		{
			SSID:         "mld",
			BSSID:        net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
			Frequency:    5180,
			Status:       BSSStatusNotAssociated,
			Capabilities: &CapabilitySet{},
			FrameType:    FrameProbeResponse,
			MultiLink: &MultiLinkElement{
				Type:                 MultiLinkBasic,
				MLDMACAddr:           net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x10},
				LinkID:               ptr[uint8](1),
				BSSParamsChangeCount: ptr[uint8](0),
				MLD: &MLDCapabilities{
					MaxSimultaneousLinks: 1,
				},
			},
		},
		{
			SSID:         "legacy",
			BSSID:        net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
			Frequency:    2412,
			Status:       BSSStatusNotAssociated,
			Capabilities: &CapabilitySet{},
		},
	}

	var msgs []genetlink.Message
	for _, b := range want {
		// Drop the status attribute; scan results are not associated.
		attrs := b.attributes()
		nattrs, err := netlink.UnmarshalAttributes(attrs[0].Data)
		if err != nil {
			t.Fatalf("failed to unmarshal attributes: %v", err)
		}
		var keep []netlink.Attribute
		for _, a := range nattrs {
			if a.Type != unix.NL80211_BSS_STATUS {
				keep = append(keep, netlink.Attribute{Type: a.Type, Data: a.Data})
			}
		}
		attrs[0].Data = mustMarshalAttributes(keep)

		msgs = append(msgs, genetlink.Message{
			Header: genetlink.Header{Command: unix.NL80211_CMD_NEW_SCAN_RESULTS},
			Data:   mustMarshalAttributes(attrs),
		})
	}

	c := testClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		return msgs, nil
	})

	got, err := c.AccessPoints(&Interface{Index: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected access points (-want +got):\n%s", diff)
	}
}

func TestLinux_clientBSSMalformedElementSkipped(t *testing.T) {
	ies, err := MarshalElements(
		Element{ID: ElementIDSSID, Data: []byte("broken")},
		// HT Capabilities is 26 bytes long.
		Element{ID: ElementIDHTCapabilities, Data: []byte{0x01, 0x02, 0x03}},
	)
	if err != nil {
		t.Fatalf("failed to marshal elements: %v", err)
	}

	c := testClient(t, func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		return []genetlink.Message{{
			Header: genetlink.Header{Command: unix.NL80211_CMD_NEW_SCAN_RESULTS},
			Data: mustMarshalAttributes([]netlink.Attribute{{
				Type: unix.NL80211_ATTR_BSS,
				Data: mustMarshalAttributes([]netlink.Attribute{
					{Type: unix.NL80211_BSS_STATUS, Data: nlenc.Uint32Bytes(uint32(BSSStatusAssociated))},
					{Type: unix.NL80211_BSS_INFORMATION_ELEMENTS, Data: ies},
				}),
			}}),
		}}, nil
	})

	bss, err := c.BSS(&Interface{Index: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want, got := "broken", bss.SSID; want != got {
		t.Fatalf("unexpected SSID:\n- want: %q\n-  got: %q", want, got)
	}
	if bss.Capabilities == nil || bss.Capabilities.HT != nil {
		t.Fatalf("malformed HT Capabilities should be dropped, got: %#v", bss.Capabilities)
	}
}

func TestLinux_clientBSSFrameType(t *testing.T) {
	mustElements := func(ssid string) []byte {
		b, err := MarshalElements(Element{ID: ElementIDSSID, Data: []byte(ssid)})
		if err != nil {
			t.Fatalf("failed to marshal elements: %v", err)
		}
		return b
	}

	var (
		beacon = mustElements("beacon")
		probe  = mustElements("probe")
	)

	tests := []struct {
		name  string
		attrs []netlink.Attribute
		ssid  string
		ft    FrameType
	}{
		{
			name: "beacon",
			attrs: []netlink.Attribute{
				{Type: unix.NL80211_BSS_INFORMATION_ELEMENTS, Data: beacon},
			},
			ssid: "beacon",
			ft:   FrameBeacon,
		},
		{
			name: "probe response data flag",
			attrs: []netlink.Attribute{
				{Type: unix.NL80211_BSS_INFORMATION_ELEMENTS, Data: probe},
				{Type: unix.NL80211_BSS_PRESP_DATA},
			},
			ssid: "probe",
			ft:   FrameProbeResponse,
		},
		{
			name: "probe response and beacon",
			attrs: []netlink.Attribute{
				{Type: unix.NL80211_BSS_BEACON_IES, Data: beacon},
				{Type: unix.NL80211_BSS_INFORMATION_ELEMENTS, Data: probe},
			},
			ssid: "probe",
			ft:   FrameProbeResponse,
		},
		{
			name: "same beacon",
			attrs: []netlink.Attribute{
				{Type: unix.NL80211_BSS_INFORMATION_ELEMENTS, Data: beacon},
				{Type: unix.NL80211_BSS_BEACON_IES, Data: beacon},
			},
			ssid: "beacon",
			ft:   FrameBeacon,
		},
		{
			name: "beacon elements only",
			attrs: []netlink.Attribute{
				{Type: unix.NL80211_BSS_BEACON_IES, Data: beacon},
			},
			ssid: "beacon",
			ft:   FrameBeacon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BSS
			if err := b.parseAttributes(tt.attrs, NewCodec(nil)); err != nil {
				t.Fatalf("failed to parse attributes: %v", err)
			}

			if want, got := tt.ssid, b.SSID; want != got {
				t.Fatalf("unexpected SSID:\n- want: %q\n-  got: %q", want, got)
			}
			if want, got := tt.ft, b.FrameType; want != got {
				t.Fatalf("unexpected frame type:\n- want: %v\n-  got: %v", want, got)
			}
		})
	}
}

func TestLinux_initClientErrorCloseConn(t *testing.T) {
	c := genltest.Dial(func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		// Assume that nl80211 does not exist on this system.
		// The genetlink Conn should be closed to avoid leaking file descriptors.
		return nil, genltest.Error(int(syscall.ENOENT))
	})

	if _, err := initClient(c, NewCodec(nil)); err == nil {
		t.Fatal("no error occurred, but expected one")
	}
}

const familyID = 26

func testClient(t *testing.T, fn genltest.Func) *client {
	family := genetlink.Family{
		ID:      familyID,
		Name:    unix.NL80211_GENL_NAME,
		Version: 1,
	}

	c := genltest.Dial(genltest.ServeFamily(family, func(greq genetlink.Message, nreq netlink.Message) ([]genetlink.Message, error) {
		// If this function is invoked, we are calling a nl80211 function.
		if diff := cmp.Diff(int(family.ID), int(nreq.Header.Type)); diff != "" {
			t.Fatalf("unexpected generic netlink family ID (-want +got):\n%s", diff)
		}

		if diff := cmp.Diff(family.Version, greq.Header.Version); diff != "" {
			t.Fatalf("unexpected generic netlink family version (-want +got):\n%s", diff)
		}

		msgs, err := fn(greq, nreq)
		if err != nil {
			return nil, err
		}

		// Do a favor for the caller by planting the correct version in each message
		// header, as long as no version is supplied.
		for i := range msgs {
			if msgs[i].Header.Version == 0 {
				msgs[i].Header.Version = family.Version
			}
		}

		return msgs, nil
	}))

	client, err := initClient(c, NewCodec(nil))
	if err != nil {
		t.Fatalf("failed to initialize test client: %v", err)
	}

	return client
}

// diffNetlinkAttributes compares two []netlink.Attributes after zeroing their
// length fields that make equality checks in testing difficult.
func diffNetlinkAttributes(want, got []netlink.Attribute) string {
	// If different lengths, diff immediately for better error output.
	if len(want) != len(got) {
		return cmp.Diff(want, got)
	}

	for i := range want {
		want[i].Length = 0
		got[i].Length = 0
	}

	return cmp.Diff(want, got)
}

// Helper functions for converting types back into their raw attribute formats

func mustMarshalAttributes(attrs []netlink.Attribute) []byte {
	b, err := netlink.MarshalAttributes(attrs)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal attributes: %v", err))
	}

	return b
}

type attributeser interface {
	attributes() []netlink.Attribute
}

var (
	_ attributeser = &Interface{}
	_ attributeser = &BSS{}
)

// idAttrs returns the netlink attributes a request carries to identify ifi.
func (ifi *Interface) idAttrs() []netlink.Attribute {
	return []netlink.Attribute{
		{
			Type: unix.NL80211_ATTR_IFINDEX,
			Data: nlenc.Uint32Bytes(uint32(ifi.Index)),
		},
		{
			Type: unix.NL80211_ATTR_MAC,
			Data: ifi.HardwareAddr,
		},
	}
}

func (ifi *Interface) attributes() []netlink.Attribute {
	return []netlink.Attribute{
		{Type: unix.NL80211_ATTR_IFINDEX, Data: nlenc.Uint32Bytes(uint32(ifi.Index))},
		{Type: unix.NL80211_ATTR_IFNAME, Data: nlenc.Bytes(ifi.Name)},
		{Type: unix.NL80211_ATTR_MAC, Data: ifi.HardwareAddr},
		{Type: unix.NL80211_ATTR_WIPHY, Data: nlenc.Uint32Bytes(uint32(ifi.PHY))},
		{Type: unix.NL80211_ATTR_IFTYPE, Data: nlenc.Uint32Bytes(uint32(ifi.Type))},
		{Type: unix.NL80211_ATTR_WDEV, Data: nlenc.Uint64Bytes(uint64(ifi.Device))},
		{Type: unix.NL80211_ATTR_WIPHY_FREQ, Data: nlenc.Uint32Bytes(uint32(ifi.Frequency))},
	}
}

func (b *BSS) attributes() []netlink.Attribute {
	fe := &FrameElements{SSID: b.SSID, MultiLink: b.MultiLink}
	if b.Capabilities != nil {
		fe.Capabilities = *b.Capabilities
	}

	ies, err := NewCodec(nil).Encode(fe, b.FrameType)
	if err != nil {
		panic(fmt.Sprintf("failed to encode elements: %v", err))
	}

	attrs := []netlink.Attribute{
		{Type: unix.NL80211_BSS_BSSID, Data: b.BSSID},
		{Type: unix.NL80211_BSS_FREQUENCY, Data: nlenc.Uint32Bytes(uint32(b.Frequency))},
		{Type: unix.NL80211_BSS_BEACON_INTERVAL, Data: nlenc.Uint16Bytes(uint16(b.BeaconInterval / 1024 / time.Microsecond))},
		{Type: unix.NL80211_BSS_SEEN_MS_AGO, Data: nlenc.Uint32Bytes(uint32(b.LastSeen / time.Millisecond))},
		{Type: unix.NL80211_BSS_STATUS, Data: nlenc.Uint32Bytes(uint32(b.Status))},
		{Type: unix.NL80211_BSS_INFORMATION_ELEMENTS, Data: ies},
	}
	if b.FrameType == FrameProbeResponse {
		attrs = append(attrs, netlink.Attribute{Type: unix.NL80211_BSS_PRESP_DATA})
	}

	return []netlink.Attribute{{
		Type: unix.NL80211_ATTR_BSS,
		Data: mustMarshalAttributes(attrs),
	}}
}

func mustMessages(t *testing.T, command uint8, want interface{}) genltest.Func {
	var as []attributeser

	switch xs := want.(type) {
	case []*Interface:
		for _, x := range xs {
			as = append(as, x)
		}
	case *BSS:
		as = append(as, xs)
	default:
		t.Fatalf("cannot make messages for type: %T", xs)
	}

	msgs := make([]genetlink.Message, 0, len(as))
	for _, a := range as {
		msgs = append(msgs, genetlink.Message{
			Header: genetlink.Header{
				Command: command,
			},
			Data: mustMarshalAttributes(a.attributes()),
		})
	}

	return func(_ genetlink.Message, _ netlink.Message) ([]genetlink.Message, error) {
		return msgs, nil
	}
}
