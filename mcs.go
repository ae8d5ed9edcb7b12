package wifi

import (
	"encoding/binary"
	"fmt"

	"github.com/wlancodec/wifi/internal/bitfield"
)

// ChannelWidths are the channel width capability flags that decide which
// MCS/NSS maps an HE or EHT Capabilities element carries.
type ChannelWidths struct {
	FortyIn2G        bool
	FortyEightyIn5G  bool
	OneSixtyIn5G     bool
	EightyEightyIn5G bool
	ThreeTwentyIn6G  bool
}

// WidthsFrom returns the channel widths advertised by he and eht. Either may
// be nil.
func WidthsFrom(he *HECapabilities, eht *EHTCapabilities) ChannelWidths {
	var w ChannelWidths
	if he != nil {
		w = he.widths()
	}
	if eht != nil {
		w.ThreeTwentyIn6G = eht.Support320MHzIn6G
	}

	return w
}

// An MCSTier is a bandwidth tier of the EHT-MCS and NSS set.
type MCSTier int

// Possible MCSTier values, in the order they appear in an element.
const (
	MCSTier20Only MCSTier = iota
	MCSTier80
	MCSTier160
	MCSTier320
)

// Buckets returns the number of MCS range buckets in the tier. The 20 MHz-only
// tier splits MCS 0-9 into 0-7 and 8-9, so it has one more bucket than the
// others.
func (t MCSTier) Buckets() int {
	if t == MCSTier20Only {
		return 4
	}
	return 3
}

// String returns the string representation of an MCSTier.
func (t MCSTier) String() string {
	switch t {
	case MCSTier20Only:
		return "20 MHz-only"
	case MCSTier80:
		return "<=80 MHz"
	case MCSTier160:
		return "160 MHz"
	case MCSTier320:
		return "320 MHz"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// EHTMCSTiers returns the EHT-MCS map tiers carried for w, in element order.
// The 20 MHz-only tier is used by non-AP stations that support no channel
// wider than 20 MHz; every other device carries the <=80 MHz tier.
func EHTMCSTiers(w ChannelWidths, fromAP bool) []MCSTier {
	var ts []MCSTier
	if !fromAP && !w.FortyIn2G && !w.FortyEightyIn5G && !w.OneSixtyIn5G && !w.EightyEightyIn5G {
		ts = append(ts, MCSTier20Only)
	} else {
		ts = append(ts, MCSTier80)
	}
	if w.OneSixtyIn5G {
		ts = append(ts, MCSTier160)
	}
	if w.ThreeTwentyIn6G {
		ts = append(ts, MCSTier320)
	}

	return ts
}

// An HEMCSTier is a bandwidth tier of the HE-MCS and NSS set.
type HEMCSTier int

// Possible HEMCSTier values, in the order they appear in an element.
const (
	HEMCSTier80 HEMCSTier = iota
	HEMCSTier160
	HEMCSTier8080
)

// String returns the string representation of an HEMCSTier.
func (t HEMCSTier) String() string {
	switch t {
	case HEMCSTier80:
		return "<=80 MHz"
	case HEMCSTier160:
		return "160 MHz"
	case HEMCSTier8080:
		return "80+80 MHz"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// HEMCSTiers returns the HE-MCS map tiers carried for w, in element order.
func HEMCSTiers(w ChannelWidths) []HEMCSTier {
	ts := []HEMCSTier{HEMCSTier80}
	if w.OneSixtyIn5G {
		ts = append(ts, HEMCSTier160)
	}
	if w.EightyEightyIn5G {
		ts = append(ts, HEMCSTier8080)
	}

	return ts
}

// An NSSPair holds the maximum number of spatial streams supported for one
// MCS range, for reception and transmission. Both values are 4 bits wide.
type NSSPair struct {
	Rx uint8
	Tx uint8
}

// An HEMCSMap holds the HE-MCS maps of one bandwidth tier, two bits per
// spatial stream with stream 1 in the least significant bits.
type HEMCSMap struct {
	Rx uint16
	Tx uint16
}

// appendNSSPairs appends one octet per pair to b.
func appendNSSPairs(b []byte, record, name string, ps []NSSPair) ([]byte, error) {
	for i, p := range ps {
		var o [1]byte
		for j, v := range [...]uint8{p.Rx, p.Tx} {
			if !bitfield.Fits(uint64(v), 4) {
				return nil, &FieldOverflowError{
					Record: record,
					Field:  fmt.Sprintf("%s[%d]", name, i),
					Width:  4,
					Value:  uint64(v),
				}
			}
			if err := bitfield.Set(o[:], j*4, 4, uint16(v)); err != nil {
				return nil, err
			}
		}
		b = append(b, o[0])
	}

	return b, nil
}

// readNSSPairs fills ps from the front of b and returns the rest of b. name
// labels the map in errors.
func readNSSPairs(b []byte, ps []NSSPair, name string) ([]byte, error) {
	if len(b) < len(ps) {
		return b, truncated("%s map needs %d bytes, have %d", name, len(ps), len(b))
	}

	for i := range ps {
		ps[i] = NSSPair{Rx: b[i] & 0x0f, Tx: b[i] >> 4}
	}

	return b[len(ps):], nil
}

// appendHEMCSMap appends m as two little-endian 16-bit maps.
func appendHEMCSMap(b []byte, m HEMCSMap) []byte {
	b = binary.LittleEndian.AppendUint16(b, m.Rx)
	return binary.LittleEndian.AppendUint16(b, m.Tx)
}

// readHEMCSMap reads one tier's maps from the front of b.
func readHEMCSMap(b []byte, tier HEMCSTier) (HEMCSMap, []byte, error) {
	if len(b) < 4 {
		return HEMCSMap{}, b, truncated("%s map needs 4 bytes, have %d", tier, len(b))
	}

	m := HEMCSMap{
		Rx: binary.LittleEndian.Uint16(b[0:2]),
		Tx: binary.LittleEndian.Uint16(b[2:4]),
	}

	return m, b[4:], nil
}
