package wifi

import (
	"fmt"
	"net"
	"time"
)

// An InterfaceType is the operating mode of an Interface.
type InterfaceType int

const (
	// InterfaceTypeUnspecified indicates that an interface's type is unspecified
	// and the driver determines its function.
	InterfaceTypeUnspecified InterfaceType = iota

	// InterfaceTypeAdHoc indicates that an interface is part of an independent
	// basic service set (BSS) of client devices without a controlling access
	// point.
	InterfaceTypeAdHoc

	// InterfaceTypeStation indicates that an interface is part of a managed
	// basic service set (BSS) of client devices with a controlling access point.
	InterfaceTypeStation

	// InterfaceTypeAP indicates that an interface is an access point.
	InterfaceTypeAP

	// InterfaceTypeAPVLAN indicates that an interface is a VLAN interface
	// associated with an access point.
	InterfaceTypeAPVLAN

	// InterfaceTypeWDS indicates that an interface is a wireless distribution
	// interface, used as part of a network of multiple access points.
	InterfaceTypeWDS

	// InterfaceTypeMonitor indicates that an interface is a monitor interface,
	// receiving all frames from all clients in a given network.
	InterfaceTypeMonitor

	// InterfaceTypeMeshPoint indicates that an interface is part of a wireless
	// mesh network.
	InterfaceTypeMeshPoint

	// InterfaceTypeP2PClient indicates that an interface is a client within
	// a peer-to-peer network.
	InterfaceTypeP2PClient

	// InterfaceTypeP2PGroupOwner indicates that an interface is the group
	// owner within a peer-to-peer network.
	InterfaceTypeP2PGroupOwner

	// InterfaceTypeP2PDevice indicates that an interface is a device within
	// a peer-to-peer client network.
	InterfaceTypeP2PDevice

	// InterfaceTypeOCB indicates that an interface is outside the context
	// of a basic service set (BSS).
	InterfaceTypeOCB

	// InterfaceTypeNAN indicates that an interface is part of a near-me
	// area network (NAN).
	InterfaceTypeNAN
)

// String returns the string representation of an InterfaceType.
func (t InterfaceType) String() string {
	switch t {
	case InterfaceTypeUnspecified:
		return "unspecified"
	case InterfaceTypeAdHoc:
		return "ad-hoc"
	case InterfaceTypeStation:
		return "station"
	case InterfaceTypeAP:
		return "access point"
	case InterfaceTypeAPVLAN:
		return "access point/VLAN"
	case InterfaceTypeWDS:
		return "wireless distribution"
	case InterfaceTypeMonitor:
		return "monitor"
	case InterfaceTypeMeshPoint:
		return "mesh point"
	case InterfaceTypeP2PClient:
		return "P2P client"
	case InterfaceTypeP2PGroupOwner:
		return "P2P group owner"
	case InterfaceTypeP2PDevice:
		return "P2P device"
	case InterfaceTypeOCB:
		return "outside context of BSS"
	case InterfaceTypeNAN:
		return "near-me area network"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// An Interface is a WiFi network interface.
type Interface struct {
	// The index of the interface.
	Index int

	// The name of the interface.
	Name string

	// The hardware address of the interface.
	HardwareAddr net.HardwareAddr

	// The physical device that this interface belongs to.
	PHY int

	// The virtual device number of this interface within a PHY.
	Device int

	// The operating mode of the interface.
	Type InterfaceType

	// The interface's wireless frequency in MHz.
	Frequency int
}

// A BSS is an 802.11 basic service set.  It contains information about a wireless
// network associated with an Interface.
type BSS struct {
	// The service set identifier, or "network name" of the BSS.
	SSID string

	// BSSID: The BSS service set identifier.  In infrastructure mode, this is the
	// hardware address of the wireless access point that a client is associated
	// with.
	BSSID net.HardwareAddr

	// Frequency: The frequency used by the BSS, in MHz.
	Frequency int

	// BeaconInterval: The time interval between beacon transmissions for this BSS.
	BeaconInterval time.Duration

	// LastSeen: The time since the client last scanned this BSS's information.
	LastSeen time.Duration

	// Status: The status of the client within the BSS.
	Status BSSStatus

	// Load: The load element of the BSS, or nil if the BSS does not send one.
	Load *BSSLoad

	// Capabilities: The capability and operation elements advertised by the BSS.
	Capabilities *CapabilitySet

	// MultiLink: The Multi-Link element of an AP affiliated with an AP MLD, or nil.
	MultiLink *MultiLinkElement

	// FrameType: The type of frame the elements above were taken from,
	// FrameBeacon or FrameProbeResponse.
	FrameType FrameType
}

// Link returns the channel of the BSS in the form used by a LinkMap.
func (b *BSS) Link() LinkChannel {
	return LinkChannel{
		Band:    FrequencyToBand(b.Frequency),
		Channel: uint8(FrequencyToChannel(b.Frequency)),
	}
}

// A BSSStatus indicates the current status of client within a BSS.
type BSSStatus int

const (
	// BSSStatusAuthenticated indicates that a client is authenticated with a BSS.
	BSSStatusAuthenticated BSSStatus = iota

	// BSSStatusAssociated indicates that a client is associated with a BSS.
	BSSStatusAssociated

	// BSSStatusIBSSJoined indicates that a client has joined an independent BSS.
	BSSStatusIBSSJoined

	// BSSStatusNotAssociated indicates that a client is not associated with
	// a BSS, for example a BSS found by a scan.
	BSSStatusNotAssociated
)

// String returns the string representation of a BSSStatus.
func (s BSSStatus) String() string {
	switch s {
	case BSSStatusAuthenticated:
		return "authenticated"
	case BSSStatusAssociated:
		return "associated"
	case BSSStatusIBSSJoined:
		return "IBSS joined"
	case BSSStatusNotAssociated:
		return "unassociated"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// A Band is a WiFi frequency band. Values match nl80211's band numbering.
type Band int

// Constants representing the standard WiFi frequency bands.
const (
	Band2GHz Band = iota
	Band5GHz
	Band60GHz
	Band6GHz
)

// String returns the string representation of a Band.
func (b Band) String() string {
	switch b {
	case Band2GHz:
		return "2.4GHz"
	case Band5GHz:
		return "5GHz"
	case Band60GHz:
		return "60GHz"
	case Band6GHz:
		return "6GHz"
	default:
		return fmt.Sprintf("unknown(%d)", int(b))
	}
}

// FrequencyToBand returns the band of a frequency in MHz.
func FrequencyToBand(freq int) Band {
	switch {
	case freq <= 2484:
		return Band2GHz
	case freq >= 5925 && freq <= 7125:
		return Band6GHz
	case freq >= 58320:
		return Band60GHz
	default:
		return Band5GHz
	}
}

// FrequencyToChannel returns the channel number given the frequency in MHz, as
// defined by IEEE802.11-2007, 17.3.8.3.2 and Annex J, and by IEEE802.11ax-2021
// Annex E for the 6GHz band.
func FrequencyToChannel(freq int) int {
	if freq == 2484 {
		return 14
	} else if freq < 2484 {
		return (freq - 2407) / 5
	} else if freq >= 4910 && freq <= 4980 {
		return (freq - 4000) / 5
	} else if freq == 5935 {
		return 2
	} else if freq >= 5955 && freq <= 7115 {
		return (freq - 5950) / 5
	} else if freq <= 45000 {
		return (freq - 5000) / 5
	} else if freq >= 58320 && freq <= 64800 {
		return (freq - 56160) / 2160
	} else {
		return 0
	}
}

// ChannelToFrequency returns the frequency given the channel number and the
// band, as there are overlapping channel numbers between bands.
func ChannelToFrequency(channel int, band Band) int {
	if channel <= 0 {
		return 0
	}

	switch band {
	case Band2GHz:
		if channel == 14 {
			return 2484
		} else if channel < 14 {
			return 2407 + channel*5
		}
	case Band5GHz:
		if channel >= 182 && channel <= 196 {
			return 4000 + channel*5
		}
		return 5000 + channel*5
	case Band6GHz:
		if channel == 2 {
			return 5935
		} else if channel <= 233 {
			return 5950 + channel*5
		}
	case Band60GHz:
		if channel < 5 {
			return 56160 + channel*2160
		}
	}
	return 0
}
