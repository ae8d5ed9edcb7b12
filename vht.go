package wifi

// VHTCapabilities represents 802.11ac (Very High Throughput) capabilities.
//
// The fields represent those in the VHT Capabilities element (802.11-2020,
// 9.4.2.157).
type VHTCapabilities struct {
	// Maximum MPDU length supported by the device: 0 (3895), 1 (7991) or
	// 2 (11454 octets).
	MaxMPDULength uint8

	// Supported Channel Width Set: 1 for 160MHz, 2 for 160MHz and 80+80MHz.
	SupportedChannelWidthSet uint8

	// Device supports receiving Low Density Parity Check codes.
	RXLDPC bool

	// Device supports short guard intervals in 80MHz channels.
	ShortGI80 bool

	// Device supports short guard intervals in 160MHz and 80+80MHz channels.
	ShortGI160 bool

	// Device supports transmission of at least 2x1 Space-Time Block Coding transmission.
	TXSTBC bool

	// Number of STBC receive streams supported by the device. Valid values are 0-4.
	RXSTBC uint8

	// Device supports SU (Single User) Beamforming as a transmitter.
	SuBeamFormer bool

	// Device supports SU (Single User) Beamforming as a receiver.
	SuBeamFormee bool

	// Number of sounding antennas supported by the device for SU Beamforming transmission.
	BFAntenna uint8

	// Maximum sounding dimensions supported by the device for SU Beamforming.
	SoundingDimension uint8

	// Device supports MU (Multi-User) Beamforming as a transmitter.
	MuBeamformer bool

	// Device supports MU (Multi-User) Beamforming as a receiver.
	MuBeamformee bool

	// Device supports VHT TXOP power save mode.
	VHTTXOPPS bool

	// Device supports HT Control field when operating in VHT mode.
	HTCVHT bool

	// Maximum A-MPDU length exponent: 2^(13+n)-1 octets.
	MaxAMPDU uint8

	// Device supports VHT Link Adaptation capabilities. Valid values
	// specify the type of link adaptation supported (e.g., no feedback,
	// unsolicited feedback, or both).
	VHTLinkAdapt uint8

	// Device supports receive antenna pattern consistency.
	RXAntennaPattern bool

	// Device supports transmit antenna pattern consistency.
	TXAntennaPattern bool

	// Indicates whether the STA is capable of interpreting the Extended NSS BW
	// Support subfield of the VHT Capabilities Information field.
	ExtendedNSSBW uint8

	// Supported VHT-MCS and NSS Set. The maps hold two bits per spatial
	// stream, stream 1 in the least significant bits.
	RxMCSMap             uint16
	RxHighestLongGIRate  uint16
	MaxNSTSTotal         uint8
	TxMCSMap             uint16
	TxHighestLongGIRate  uint16
	ExtendedNSSBWCapable bool
}

var vhtCapabilitiesLayout = layout[VHTCapabilities]{
	record: "VHTCapabilities",
	size:   12,
	fields: []field[VHTCapabilities]{
		u8At("MaxMPDULength", 0, 0, 2, func(c *VHTCapabilities) *uint8 { return &c.MaxMPDULength }),
		u8At("SupportedChannelWidthSet", 0, 2, 2, func(c *VHTCapabilities) *uint8 { return &c.SupportedChannelWidthSet }),
		flagAt("RXLDPC", 0, 4, func(c *VHTCapabilities) *bool { return &c.RXLDPC }),
		flagAt("ShortGI80", 0, 5, func(c *VHTCapabilities) *bool { return &c.ShortGI80 }),
		flagAt("ShortGI160", 0, 6, func(c *VHTCapabilities) *bool { return &c.ShortGI160 }),
		flagAt("TXSTBC", 0, 7, func(c *VHTCapabilities) *bool { return &c.TXSTBC }),
		u8At("RXSTBC", 1, 0, 3, func(c *VHTCapabilities) *uint8 { return &c.RXSTBC }),
		flagAt("SuBeamFormer", 1, 3, func(c *VHTCapabilities) *bool { return &c.SuBeamFormer }),
		flagAt("SuBeamFormee", 1, 4, func(c *VHTCapabilities) *bool { return &c.SuBeamFormee }),
		u8At("BFAntenna", 1, 5, 3, func(c *VHTCapabilities) *uint8 { return &c.BFAntenna }),
		u8At("SoundingDimension", 2, 0, 3, func(c *VHTCapabilities) *uint8 { return &c.SoundingDimension }),
		flagAt("MuBeamformer", 2, 3, func(c *VHTCapabilities) *bool { return &c.MuBeamformer }),
		flagAt("MuBeamformee", 2, 4, func(c *VHTCapabilities) *bool { return &c.MuBeamformee }),
		flagAt("VHTTXOPPS", 2, 5, func(c *VHTCapabilities) *bool { return &c.VHTTXOPPS }),
		flagAt("HTCVHT", 2, 6, func(c *VHTCapabilities) *bool { return &c.HTCVHT }),
		u8At("MaxAMPDU", 2, 7, 3, func(c *VHTCapabilities) *uint8 { return &c.MaxAMPDU }),
		u8At("VHTLinkAdapt", 3, 2, 2, func(c *VHTCapabilities) *uint8 { return &c.VHTLinkAdapt }),
		flagAt("RXAntennaPattern", 3, 4, func(c *VHTCapabilities) *bool { return &c.RXAntennaPattern }),
		flagAt("TXAntennaPattern", 3, 5, func(c *VHTCapabilities) *bool { return &c.TXAntennaPattern }),
		u8At("ExtendedNSSBW", 3, 6, 2, func(c *VHTCapabilities) *uint8 { return &c.ExtendedNSSBW }),

		u16At("RxMCSMap", 4, 0, 16, func(c *VHTCapabilities) *uint16 { return &c.RxMCSMap }),
		u16At("RxHighestLongGIRate", 6, 0, 13, func(c *VHTCapabilities) *uint16 { return &c.RxHighestLongGIRate }),
		u8At("MaxNSTSTotal", 7, 5, 3, func(c *VHTCapabilities) *uint8 { return &c.MaxNSTSTotal }),
		u16At("TxMCSMap", 8, 0, 16, func(c *VHTCapabilities) *uint16 { return &c.TxMCSMap }),
		u16At("TxHighestLongGIRate", 10, 0, 13, func(c *VHTCapabilities) *uint16 { return &c.TxHighestLongGIRate }),
		flagAt("ExtendedNSSBWCapable", 11, 5, func(c *VHTCapabilities) *bool { return &c.ExtendedNSSBWCapable }),
	},
}

// Key implements Capability.
func (*VHTCapabilities) Key() ElementKey { return ElementKey{ID: ElementIDVHTCapabilities} }

func (c *VHTCapabilities) marshal(_ *Params) ([]byte, error) {
	b := make([]byte, vhtCapabilitiesLayout.size)
	if err := vhtCapabilitiesLayout.pack(b, c); err != nil {
		return nil, err
	}

	return b, nil
}

func (c *VHTCapabilities) unmarshal(b []byte, _ *Params) error {
	return vhtCapabilitiesLayout.unpack(b, c)
}

// VHTOperation represents the VHT Operation element (802.11-2020, 9.4.2.158).
type VHTOperation struct {
	// Channel width: 0 for 20 or 40MHz, 1 for 80, 160 or 80+80MHz.
	ChannelWidth uint8

	// Channel center frequency segments 0 and 1.
	CCFS0 uint8
	CCFS1 uint8

	// Basic VHT-MCS and NSS Set, two bits per spatial stream.
	BasicMCSMap uint16
}

var vhtOperationLayout = layout[VHTOperation]{
	record: "VHTOperation",
	size:   5,
	fields: []field[VHTOperation]{
		u8At("ChannelWidth", 0, 0, 8, func(o *VHTOperation) *uint8 { return &o.ChannelWidth }),
		u8At("CCFS0", 1, 0, 8, func(o *VHTOperation) *uint8 { return &o.CCFS0 }),
		u8At("CCFS1", 2, 0, 8, func(o *VHTOperation) *uint8 { return &o.CCFS1 }),
		u16At("BasicMCSMap", 3, 0, 16, func(o *VHTOperation) *uint16 { return &o.BasicMCSMap }),
	},
}

// Key implements Capability.
func (*VHTOperation) Key() ElementKey { return ElementKey{ID: ElementIDVHTOperation} }

func (o *VHTOperation) marshal(_ *Params) ([]byte, error) {
	b := make([]byte, vhtOperationLayout.size)
	if err := vhtOperationLayout.pack(b, o); err != nil {
		return nil, err
	}

	return b, nil
}

func (o *VHTOperation) unmarshal(b []byte, _ *Params) error {
	return vhtOperationLayout.unpack(b, o)
}
