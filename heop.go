package wifi

// HEOperation represents the HE Operation element (802.11ax-2021, 9.4.2.249).
//
// The VHT Operation Information, Max Co-Hosted BSSID Indicator and 6 GHz
// Operation Information fields are optional; their presence bits are set from
// the corresponding fields being non-nil.
type HEOperation struct {
	// HE Operation Parameters.
	DefaultPEDuration        uint8
	TWTRequired              bool
	TXOPDurationRTSThreshold uint16
	ERSUDisable              bool

	// BSS Color Information.
	BSSColor         uint8
	PartialBSSColor  bool
	BSSColorDisabled bool

	// Basic HE-MCS And NSS Set, two bits per spatial stream.
	BasicMCSMap uint16

	VHTOperation     *VHTOperationInfo
	MaxCoHostedBSSID *uint8
	SixGHz           *SixGHzOperation
}

// VHTOperationInfo is the VHT Operation Information field carried by an HE
// Operation element of a 5 GHz BSS.
type VHTOperationInfo struct {
	ChannelWidth uint8
	CCFS0        uint8
	CCFS1        uint8
}

// SixGHzOperation is the 6 GHz Operation Information field of an HE Operation
// element.
type SixGHzOperation struct {
	PrimaryChannel  uint8
	ChannelWidth    uint8
	DuplicateBeacon bool
	RegulatoryInfo  uint8
	CCFS0           uint8
	CCFS1           uint8
	MinimumRate     uint8
}

// Presence bits of the HE Operation Parameters field.
const (
	heOpVHTInfoPresent = 14
	heOpCoHostedBSS    = 15
	heOpSixGHzPresent  = 17
)

var heOperationLayout = layout[HEOperation]{
	record: "HEOperation",
	size:   6,
	fields: []field[HEOperation]{
		u8At("DefaultPEDuration", 0, 0, 3, func(o *HEOperation) *uint8 { return &o.DefaultPEDuration }),
		flagAt("TWTRequired", 0, 3, func(o *HEOperation) *bool { return &o.TWTRequired }),
		u16At("TXOPDurationRTSThreshold", 0, 4, 10, func(o *HEOperation) *uint16 { return &o.TXOPDurationRTSThreshold }),
		flagAt("ERSUDisable", 2, 0, func(o *HEOperation) *bool { return &o.ERSUDisable }),

		u8At("BSSColor", 3, 0, 6, func(o *HEOperation) *uint8 { return &o.BSSColor }),
		flagAt("PartialBSSColor", 3, 6, func(o *HEOperation) *bool { return &o.PartialBSSColor }),
		flagAt("BSSColorDisabled", 3, 7, func(o *HEOperation) *bool { return &o.BSSColorDisabled }),

		u16At("BasicMCSMap", 4, 0, 16, func(o *HEOperation) *uint16 { return &o.BasicMCSMap }),
	},
}

var vhtOperationInfoLayout = layout[VHTOperationInfo]{
	record: "HEOperation.VHTOperation",
	size:   3,
	fields: []field[VHTOperationInfo]{
		u8At("ChannelWidth", 0, 0, 8, func(v *VHTOperationInfo) *uint8 { return &v.ChannelWidth }),
		u8At("CCFS0", 1, 0, 8, func(v *VHTOperationInfo) *uint8 { return &v.CCFS0 }),
		u8At("CCFS1", 2, 0, 8, func(v *VHTOperationInfo) *uint8 { return &v.CCFS1 }),
	},
}

var sixGHzOperationLayout = layout[SixGHzOperation]{
	record: "HEOperation.SixGHz",
	size:   5,
	fields: []field[SixGHzOperation]{
		u8At("PrimaryChannel", 0, 0, 8, func(s *SixGHzOperation) *uint8 { return &s.PrimaryChannel }),
		u8At("ChannelWidth", 1, 0, 2, func(s *SixGHzOperation) *uint8 { return &s.ChannelWidth }),
		flagAt("DuplicateBeacon", 1, 2, func(s *SixGHzOperation) *bool { return &s.DuplicateBeacon }),
		u8At("RegulatoryInfo", 1, 3, 3, func(s *SixGHzOperation) *uint8 { return &s.RegulatoryInfo }),
		u8At("CCFS0", 2, 0, 8, func(s *SixGHzOperation) *uint8 { return &s.CCFS0 }),
		u8At("CCFS1", 3, 0, 8, func(s *SixGHzOperation) *uint8 { return &s.CCFS1 }),
		u8At("MinimumRate", 4, 0, 8, func(s *SixGHzOperation) *uint8 { return &s.MinimumRate }),
	},
}

// Key implements Capability.
func (*HEOperation) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionHEOperation}
}

func (o *HEOperation) marshal(_ *Params) ([]byte, error) {
	b := make([]byte, heOperationLayout.size)
	if err := heOperationLayout.pack(b, o); err != nil {
		return nil, err
	}

	var err error
	if o.VHTOperation != nil {
		setBit(b, heOpVHTInfoPresent)
		if b, err = appendLayout(b, vhtOperationInfoLayout, o.VHTOperation); err != nil {
			return nil, err
		}
	}
	if o.MaxCoHostedBSSID != nil {
		setBit(b, heOpCoHostedBSS)
		b = append(b, *o.MaxCoHostedBSSID)
	}
	if o.SixGHz != nil {
		setBit(b, heOpSixGHzPresent)
		if b, err = appendLayout(b, sixGHzOperationLayout, o.SixGHz); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (o *HEOperation) unmarshal(b []byte, _ *Params) error {
	*o = HEOperation{}
	if err := heOperationLayout.unpack(b, o); err != nil {
		return err
	}

	rest := b[heOperationLayout.size:]
	var err error
	if bitSet(b, heOpVHTInfoPresent) {
		if o.VHTOperation, rest, err = takeLayout(rest, vhtOperationInfoLayout); err != nil {
			return err
		}
	}
	if bitSet(b, heOpCoHostedBSS) {
		if len(rest) < 1 {
			return malformed("HEOperation: missing Max Co-Hosted BSSID Indicator")
		}
		v := rest[0]
		o.MaxCoHostedBSSID, rest = &v, rest[1:]
	}
	if bitSet(b, heOpSixGHzPresent) {
		if o.SixGHz, _, err = takeLayout(rest, sixGHzOperationLayout); err != nil {
			return err
		}
	}

	return nil
}

// HE6GHzBandCapabilities represents the HE 6 GHz Band Capabilities element
// (802.11ax-2021, 9.4.2.263), which takes the place of HT Capabilities on
// 6 GHz links.
type HE6GHzBandCapabilities struct {
	MinMPDUStartSpacing    uint8
	MaxAMPDULengthExponent uint8
	MaxMPDULength          uint8
	SMPowerSave            uint8
	RDResponder            bool
	RxAntennaPattern       bool
	TxAntennaPattern       bool
}

var he6GHzBandCapabilitiesLayout = layout[HE6GHzBandCapabilities]{
	record: "HE6GHzBandCapabilities",
	size:   2,
	fields: []field[HE6GHzBandCapabilities]{
		u8At("MinMPDUStartSpacing", 0, 0, 3, func(c *HE6GHzBandCapabilities) *uint8 { return &c.MinMPDUStartSpacing }),
		u8At("MaxAMPDULengthExponent", 0, 3, 3, func(c *HE6GHzBandCapabilities) *uint8 { return &c.MaxAMPDULengthExponent }),
		u8At("MaxMPDULength", 0, 6, 2, func(c *HE6GHzBandCapabilities) *uint8 { return &c.MaxMPDULength }),
		u8At("SMPowerSave", 1, 1, 2, func(c *HE6GHzBandCapabilities) *uint8 { return &c.SMPowerSave }),
		flagAt("RDResponder", 1, 3, func(c *HE6GHzBandCapabilities) *bool { return &c.RDResponder }),
		flagAt("RxAntennaPattern", 1, 4, func(c *HE6GHzBandCapabilities) *bool { return &c.RxAntennaPattern }),
		flagAt("TxAntennaPattern", 1, 5, func(c *HE6GHzBandCapabilities) *bool { return &c.TxAntennaPattern }),
	},
}

// Key implements Capability.
func (*HE6GHzBandCapabilities) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionHE6GHzBandCapabilities}
}

func (c *HE6GHzBandCapabilities) marshal(_ *Params) ([]byte, error) {
	return appendLayout(nil, he6GHzBandCapabilitiesLayout, c)
}

func (c *HE6GHzBandCapabilities) unmarshal(b []byte, _ *Params) error {
	return he6GHzBandCapabilitiesLayout.unpack(b, c)
}
