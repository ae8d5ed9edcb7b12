package wifi

// HTCapabilities represents 802.11n (High Throughput) capabilities.
//
// The fields represent those in the HT Capabilities element (802.11-2020,
// 9.4.2.55).
type HTCapabilities struct {
	// Device supports Low Density Parity Check codes.
	RxLDPC bool

	// Device supports 40MHz channels (in addition to 20MHz channels).
	CW40 bool

	// Spatial Multiplexing Power Save mode: 0 static, 1 dynamic, 3 disabled.
	SMPowerSave uint8

	// Device supports HT Greenfield (802.11n-only) mode, in which a/b/g
	// frames will be ignored.
	HTGreenfield bool

	// Device supports short guard intervals in 20MHz channels.
	SGI20 bool

	// Device supports short guard intervals in 40MHz channels.
	SGI40 bool

	// Device supports Space-Time Block Coding transmission.
	TxSTBC bool

	// Number of STBC receive streams supported by the device.  Valid values
	// are 0-3.
	RxSTBCStreams uint8

	// Device supports delayed Block Ack frames when acknowledging an
	// A-MPDU.
	HTDelayedBlockAck bool

	// Device supports long (7935 bytes) maximum A-MSDU length, compared to
	// standard 3839 bytes.
	LongMaxAMSDULength bool

	// Device supports DSSS/CCK in 40MHz channels.
	DSSSCCKHT40 bool

	// (2.4GHz) Band cannot tolerate 40MHz channels because someone has
	// requested it support 20MHz channels.
	FortyMhzIntolerant bool

	// Device supports L-SIG (non-HT) Transmit Oppportunity protection.
	LSIGTxOPProtection bool

	// Maximum receivable A-MPDU length as an exponent: 2^(13+n)-1 octets.
	MaxAMPDULengthExponent uint8

	// Minimum MPDU start spacing, encoded 0 (no restriction) to 7 (16us).
	MinMPDUStartSpacing uint8

	// Supported MCS Set: Rx MCS bitmask (MCS 0-76), highest supported Rx
	// data rate in Mb/s and the Tx MCS set description.
	RxMCSBitmask        [10]byte
	RxHighestDataRate   uint16
	TxMCSSetDefined     bool
	TxRxMCSSetNotEqual  bool
	TxMaxNSS            uint8
	TxUnequalModulation bool

	// HT Extended Capabilities.
	PCO               bool
	PCOTransitionTime uint8
	MCSFeedback       uint8
	HTCSupport        bool
	RDResponder       bool

	// Transmit Beamforming Capabilities.
	ImplicitTxBFReceiving       bool
	RxStaggeredSounding         bool
	TxStaggeredSounding         bool
	RxNDP                       bool
	TxNDP                       bool
	ImplicitTxBF                bool
	Calibration                 uint8
	ExplicitCSITxBF             bool
	ExplicitNoncompressedSteer  bool
	ExplicitCompressedSteer     bool
	ExplicitTxBFCSIFeedback     uint8
	ExplicitNoncompressedBFFb   uint8
	ExplicitCompressedBFFb      uint8
	MinimalGrouping             uint8
	CSIBFAntennas               uint8
	NoncompressedSteerAntennas  uint8
	CompressedSteerAntennas     uint8
	CSIMaxRowsBeamformer        uint8
	ChannelEstimationCapability uint8

	// ASEL Capabilities.
	ASEL                         bool
	ExplicitCSIFeedbackTxASEL    bool
	AntennaIndicesFeedbackTxASEL bool
	ExplicitCSIFeedback          bool
	AntennaIndicesFeedback       bool
	RxASEL                       bool
	TxSoundingPPDUs              bool
}

var htCapabilitiesLayout = layout[HTCapabilities]{
	record: "HTCapabilities",
	size:   26,
	fields: []field[HTCapabilities]{
		flagAt("RxLDPC", 0, 0, func(c *HTCapabilities) *bool { return &c.RxLDPC }),
		flagAt("CW40", 0, 1, func(c *HTCapabilities) *bool { return &c.CW40 }),
		u8At("SMPowerSave", 0, 2, 2, func(c *HTCapabilities) *uint8 { return &c.SMPowerSave }),
		flagAt("HTGreenfield", 0, 4, func(c *HTCapabilities) *bool { return &c.HTGreenfield }),
		flagAt("SGI20", 0, 5, func(c *HTCapabilities) *bool { return &c.SGI20 }),
		flagAt("SGI40", 0, 6, func(c *HTCapabilities) *bool { return &c.SGI40 }),
		flagAt("TxSTBC", 0, 7, func(c *HTCapabilities) *bool { return &c.TxSTBC }),
		u8At("RxSTBCStreams", 1, 0, 2, func(c *HTCapabilities) *uint8 { return &c.RxSTBCStreams }),
		flagAt("HTDelayedBlockAck", 1, 2, func(c *HTCapabilities) *bool { return &c.HTDelayedBlockAck }),
		flagAt("LongMaxAMSDULength", 1, 3, func(c *HTCapabilities) *bool { return &c.LongMaxAMSDULength }),
		flagAt("DSSSCCKHT40", 1, 4, func(c *HTCapabilities) *bool { return &c.DSSSCCKHT40 }),
		flagAt("FortyMhzIntolerant", 1, 6, func(c *HTCapabilities) *bool { return &c.FortyMhzIntolerant }),
		flagAt("LSIGTxOPProtection", 1, 7, func(c *HTCapabilities) *bool { return &c.LSIGTxOPProtection }),

		u8At("MaxAMPDULengthExponent", 2, 0, 2, func(c *HTCapabilities) *uint8 { return &c.MaxAMPDULengthExponent }),
		u8At("MinMPDUStartSpacing", 2, 2, 3, func(c *HTCapabilities) *uint8 { return &c.MinMPDUStartSpacing }),

		bytesAt("RxMCSBitmask", 3, 10, func(c *HTCapabilities) []byte { return c.RxMCSBitmask[:] }),
		u16At("RxHighestDataRate", 13, 0, 10, func(c *HTCapabilities) *uint16 { return &c.RxHighestDataRate }),
		flagAt("TxMCSSetDefined", 15, 0, func(c *HTCapabilities) *bool { return &c.TxMCSSetDefined }),
		flagAt("TxRxMCSSetNotEqual", 15, 1, func(c *HTCapabilities) *bool { return &c.TxRxMCSSetNotEqual }),
		u8At("TxMaxNSS", 15, 2, 2, func(c *HTCapabilities) *uint8 { return &c.TxMaxNSS }),
		flagAt("TxUnequalModulation", 15, 4, func(c *HTCapabilities) *bool { return &c.TxUnequalModulation }),

		flagAt("PCO", 19, 0, func(c *HTCapabilities) *bool { return &c.PCO }),
		u8At("PCOTransitionTime", 19, 1, 2, func(c *HTCapabilities) *uint8 { return &c.PCOTransitionTime }),
		u8At("MCSFeedback", 20, 0, 2, func(c *HTCapabilities) *uint8 { return &c.MCSFeedback }),
		flagAt("HTCSupport", 20, 2, func(c *HTCapabilities) *bool { return &c.HTCSupport }),
		flagAt("RDResponder", 20, 3, func(c *HTCapabilities) *bool { return &c.RDResponder }),

		flagAt("ImplicitTxBFReceiving", 21, 0, func(c *HTCapabilities) *bool { return &c.ImplicitTxBFReceiving }),
		flagAt("RxStaggeredSounding", 21, 1, func(c *HTCapabilities) *bool { return &c.RxStaggeredSounding }),
		flagAt("TxStaggeredSounding", 21, 2, func(c *HTCapabilities) *bool { return &c.TxStaggeredSounding }),
		flagAt("RxNDP", 21, 3, func(c *HTCapabilities) *bool { return &c.RxNDP }),
		flagAt("TxNDP", 21, 4, func(c *HTCapabilities) *bool { return &c.TxNDP }),
		flagAt("ImplicitTxBF", 21, 5, func(c *HTCapabilities) *bool { return &c.ImplicitTxBF }),
		u8At("Calibration", 21, 6, 2, func(c *HTCapabilities) *uint8 { return &c.Calibration }),
		flagAt("ExplicitCSITxBF", 22, 0, func(c *HTCapabilities) *bool { return &c.ExplicitCSITxBF }),
		flagAt("ExplicitNoncompressedSteer", 22, 1, func(c *HTCapabilities) *bool { return &c.ExplicitNoncompressedSteer }),
		flagAt("ExplicitCompressedSteer", 22, 2, func(c *HTCapabilities) *bool { return &c.ExplicitCompressedSteer }),
		u8At("ExplicitTxBFCSIFeedback", 22, 3, 2, func(c *HTCapabilities) *uint8 { return &c.ExplicitTxBFCSIFeedback }),
		u8At("ExplicitNoncompressedBFFb", 22, 5, 2, func(c *HTCapabilities) *uint8 { return &c.ExplicitNoncompressedBFFb }),
		u8At("ExplicitCompressedBFFb", 22, 7, 2, func(c *HTCapabilities) *uint8 { return &c.ExplicitCompressedBFFb }),
		u8At("MinimalGrouping", 23, 1, 2, func(c *HTCapabilities) *uint8 { return &c.MinimalGrouping }),
		u8At("CSIBFAntennas", 23, 3, 2, func(c *HTCapabilities) *uint8 { return &c.CSIBFAntennas }),
		u8At("NoncompressedSteerAntennas", 23, 5, 2, func(c *HTCapabilities) *uint8 { return &c.NoncompressedSteerAntennas }),
		u8At("CompressedSteerAntennas", 23, 7, 2, func(c *HTCapabilities) *uint8 { return &c.CompressedSteerAntennas }),
		u8At("CSIMaxRowsBeamformer", 24, 1, 2, func(c *HTCapabilities) *uint8 { return &c.CSIMaxRowsBeamformer }),
		u8At("ChannelEstimationCapability", 24, 3, 2, func(c *HTCapabilities) *uint8 { return &c.ChannelEstimationCapability }),

		flagAt("ASEL", 25, 0, func(c *HTCapabilities) *bool { return &c.ASEL }),
		flagAt("ExplicitCSIFeedbackTxASEL", 25, 1, func(c *HTCapabilities) *bool { return &c.ExplicitCSIFeedbackTxASEL }),
		flagAt("AntennaIndicesFeedbackTxASEL", 25, 2, func(c *HTCapabilities) *bool { return &c.AntennaIndicesFeedbackTxASEL }),
		flagAt("ExplicitCSIFeedback", 25, 3, func(c *HTCapabilities) *bool { return &c.ExplicitCSIFeedback }),
		flagAt("AntennaIndicesFeedback", 25, 4, func(c *HTCapabilities) *bool { return &c.AntennaIndicesFeedback }),
		flagAt("RxASEL", 25, 5, func(c *HTCapabilities) *bool { return &c.RxASEL }),
		flagAt("TxSoundingPPDUs", 25, 6, func(c *HTCapabilities) *bool { return &c.TxSoundingPPDUs }),
	},
}

// Key implements Capability.
func (*HTCapabilities) Key() ElementKey { return ElementKey{ID: ElementIDHTCapabilities} }

func (c *HTCapabilities) marshal(_ *Params) ([]byte, error) {
	// Only MCS 0-76 are defined; the top three bits of the bitmask are
	// reserved.
	if hi := c.RxMCSBitmask[9]; hi > 0x1f {
		return nil, &FieldOverflowError{Record: "HTCapabilities", Field: "RxMCSBitmask", Width: 77, Value: uint64(hi) << 72}
	}

	b := make([]byte, htCapabilitiesLayout.size)
	if err := htCapabilitiesLayout.pack(b, c); err != nil {
		return nil, err
	}

	return b, nil
}

func (c *HTCapabilities) unmarshal(b []byte, _ *Params) error {
	if err := htCapabilitiesLayout.unpack(b, c); err != nil {
		return err
	}
	c.RxMCSBitmask[9] &= 0x1f

	return nil
}

// HTOperation represents the HT Operation element (802.11-2020, 9.4.2.56).
type HTOperation struct {
	PrimaryChannel         uint8
	SecondaryChannelOffset uint8
	STAChannelWidth        bool
	RIFSMode               bool
	HTProtection           uint8
	NonGreenfieldPresent   bool
	OBSSNonHTPresent       bool
	CCFS2                  uint8
	DualBeacon             bool
	DualCTSProtection      bool
	STBCBeacon             bool
	BasicMCSSet            [16]byte
}

var htOperationLayout = layout[HTOperation]{
	record: "HTOperation",
	size:   22,
	fields: []field[HTOperation]{
		u8At("PrimaryChannel", 0, 0, 8, func(o *HTOperation) *uint8 { return &o.PrimaryChannel }),
		u8At("SecondaryChannelOffset", 1, 0, 2, func(o *HTOperation) *uint8 { return &o.SecondaryChannelOffset }),
		flagAt("STAChannelWidth", 1, 2, func(o *HTOperation) *bool { return &o.STAChannelWidth }),
		flagAt("RIFSMode", 1, 3, func(o *HTOperation) *bool { return &o.RIFSMode }),
		u8At("HTProtection", 2, 0, 2, func(o *HTOperation) *uint8 { return &o.HTProtection }),
		flagAt("NonGreenfieldPresent", 2, 2, func(o *HTOperation) *bool { return &o.NonGreenfieldPresent }),
		flagAt("OBSSNonHTPresent", 2, 4, func(o *HTOperation) *bool { return &o.OBSSNonHTPresent }),
		u8At("CCFS2", 2, 5, 8, func(o *HTOperation) *uint8 { return &o.CCFS2 }),
		flagAt("DualBeacon", 4, 6, func(o *HTOperation) *bool { return &o.DualBeacon }),
		flagAt("DualCTSProtection", 4, 7, func(o *HTOperation) *bool { return &o.DualCTSProtection }),
		flagAt("STBCBeacon", 5, 0, func(o *HTOperation) *bool { return &o.STBCBeacon }),
		bytesAt("BasicMCSSet", 6, 16, func(o *HTOperation) []byte { return o.BasicMCSSet[:] }),
	},
}

// Key implements Capability.
func (*HTOperation) Key() ElementKey { return ElementKey{ID: ElementIDHTOperation} }

func (o *HTOperation) marshal(_ *Params) ([]byte, error) {
	b := make([]byte, htOperationLayout.size)
	if err := htOperationLayout.pack(b, o); err != nil {
		return nil, err
	}

	return b, nil
}

func (o *HTOperation) unmarshal(b []byte, _ *Params) error {
	return htOperationLayout.unpack(b, o)
}
