package main

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"
	"github.com/wlancodec/wifi"
	"go.uber.org/zap"
)

func TestParseFrameType(t *testing.T) {
	tests := []struct {
		s  string
		ft wifi.FrameType
		ok bool
	}{
		{s: "beacon", ft: wifi.FrameBeacon, ok: true},
		{s: "probe-response", ft: wifi.FrameProbeResponse, ok: true},
		{s: "reassociation-request", ft: wifi.FrameReassocRequest, ok: true},
		{s: "probe response"},
		{s: "action"},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			ft, err := parseFrameType(tt.s)
			if tt.ok && err != nil {
				t.Fatalf("failed to parse frame type: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected an error, but none occurred")
				}
				return
			}

			if want, got := tt.ft, ft; want != got {
				t.Fatalf("unexpected frame type:\n- want: %v\n-  got: %v", want, got)
			}
		})
	}
}

func TestKinds(t *testing.T) {
	fe := &wifi.FrameElements{
		Capabilities: wifi.CapabilitySet{
			Rates: []byte{0x8c, 0x12},
			HT:    &wifi.HTCapabilities{},
		},
		MultiLink: &wifi.MultiLinkElement{
			Profiles: []wifi.StaProfile{{LinkID: 1}, {LinkID: 2}},
		},
	}

	want := []string{"supported_rates", "ht_capabilities", "multi_link(basic, 2 profiles)"}
	if diff := cmp.Diff(want, kinds(fe, wifi.FrameBeacon)); diff != "" {
		t.Fatalf("unexpected kinds (-want +got):\n%s", diff)
	}
}

// beacon returns an 802.11 beacon with a valid FCS carrying elems.
func beacon(elems []byte) []byte {
	b := []byte{0x80, 0x00, 0x00, 0x00}
	b = append(b, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	b = append(b, 0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0x01)
	b = append(b, 0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0x01)
	b = append(b, 0x10, 0x00)
	b = append(b, make([]byte, 12)...)
	b = append(b, elems...)

	return binary.LittleEndian.AppendUint32(b, crc32.ChecksumIEEE(b))
}

func TestDecodePcap(t *testing.T) {
	log = zap.NewNop()
	codec = wifi.NewCodec(nil)

	path := filepath.Join(t.TempDir(), "beacons.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create capture: %v", err)
	}

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeIEEE802_11); err != nil {
		t.Fatalf("failed to write file header: %v", err)
	}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, data := range [][]byte{
		beacon([]byte{0x00, 0x03, 'l', 'a', 'b', 0x01, 0x01, 0x8c}),
		// Not a management frame.
		{0x08, 0x00, 0x00},
		beacon([]byte{0x00, 0x00}),
	} {
		ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(data), Length: len(data)}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("failed to write packet: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close capture: %v", err)
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.Flags().Bool("json", false, "")
	cmd.Flags().Int("count", 1, "")
	cmd.SetOut(&out)

	if err := decodePcap(cmd, []string{path}); err != nil {
		t.Fatalf("failed to decode capture: %v", err)
	}

	want := strings.Join([]string{
		"2024-05-01T12:00:00Z beacon from 02:aa:bb:cc:dd:01:",
		`  ssid: "lab"`,
		"  elements: supported_rates",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}
