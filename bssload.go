package wifi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// errInvalidBSSLoad is returned when BSSLoad IE has wrong length.
var errInvalidBSSLoad = errors.New("802.11 information element BSSLoad has wrong length")

// BSSLoad is an Information Element containing measurements of the load on the BSS.
type BSSLoad struct {
	// Version: Indicates the version of the BSS Load Element. Can be 1 or 2.
	Version int

	// StationCount: total number of STA currently associated with this BSS.
	StationCount uint16

	// ChannelUtilization: Percentage of time (linearly scaled 0 to 255) that the AP sensed the medium was busy. Calculated only for the primary channel.
	ChannelUtilization uint8

	// AvailableAdmissionCapacity: remaining amount of medium time available via explicit admission control in units of 32 us/s.
	// Version 1 elements carry only 8 bits.
	AvailableAdmissionCapacity uint16
}

// String returns the string representation of a BSSLoad.
func (l BSSLoad) String() string {
	switch l.Version {
	case 1:
		return fmt.Sprintf("BSSLoad Version: %d    stationCount: %d    channelUtilization: %d/255     availableAdmissionCapacity: %d\n",
			l.Version, l.StationCount, l.ChannelUtilization, l.AvailableAdmissionCapacity,
		)
	case 2:
		return fmt.Sprintf("BSSLoad Version: %d    stationCount: %d    channelUtilization: %d/255     availableAdmissionCapacity: %d [*32us/s]\n",
			l.Version, l.StationCount, l.ChannelUtilization, l.AvailableAdmissionCapacity,
		)
	default:
		return fmt.Sprintf("invalid BSSLoad Version: %d", l.Version)
	}
}

// Key implements Capability.
func (*BSSLoad) Key() ElementKey { return ElementKey{ID: ElementIDBSSLoad} }

func (l *BSSLoad) marshal(_ *Params) ([]byte, error) {
	b := binary.LittleEndian.AppendUint16(nil, l.StationCount)
	b = append(b, l.ChannelUtilization)

	switch l.Version {
	case 1:
		if l.AvailableAdmissionCapacity > 0xff {
			return nil, &FieldOverflowError{
				Record: "BSSLoad",
				Field:  "AvailableAdmissionCapacity",
				Width:  8,
				Value:  uint64(l.AvailableAdmissionCapacity),
			}
		}
		return append(b, uint8(l.AvailableAdmissionCapacity)), nil
	case 2:
		return binary.LittleEndian.AppendUint16(b, l.AvailableAdmissionCapacity), nil
	default:
		return nil, fmt.Errorf("BSSLoad: unknown version %d", l.Version)
	}
}

// unmarshal decodes the BSSLoad IE. Supports Version 1 and Version 2
// values according to https://raw.githubusercontent.com/wireshark/wireshark/master/epan/dissectors/packet-ieee80211.c
// See also source code of iw (v5.19) scan.c Line 1634ff
// BSS Load ELement (with length 5) is defined by chapter 9.4.2.27 (page 1066) of the current IEEE 802.11-2020
func (l *BSSLoad) unmarshal(b []byte, _ *Params) error {
	switch len(b) {
	case 5:
		// Wireshark calls this "802.11e CCA Version"
		// This is the version defined in IEEE 802.11 (Versions 2007, 2012, 2016 and 2020)
		*l = BSSLoad{
			Version:                    2,
			StationCount:               binary.LittleEndian.Uint16(b[0:2]),
			ChannelUtilization:         b[2],
			AvailableAdmissionCapacity: binary.LittleEndian.Uint16(b[3:5]),
		}
	case 4:
		// Wireshark calls this "Cisco QBSS Version 1 - non CCA"
		*l = BSSLoad{
			Version:                    1,
			StationCount:               binary.LittleEndian.Uint16(b[0:2]),
			ChannelUtilization:         b[2],
			AvailableAdmissionCapacity: uint16(b[3]),
		}
	default:
		return fmt.Errorf("%w: %w", ErrMalformedElement, errInvalidBSSLoad)
	}

	return nil
}
