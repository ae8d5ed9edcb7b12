package wifi

// HECapabilities represents 802.11ax (High Efficiency) capabilities.
//
// The fields represent those in the HE Capabilities element (802.11ax-2021,
// 9.4.2.248). Field names follow the subfields of the HE MAC and HE PHY
// Capabilities Information fields.
type HECapabilities struct {
	// HE MAC Capabilities Information.
	HTCHESupport                     bool
	TWTRequester                     bool
	TWTResponder                     bool
	DynamicFragmentation             uint8
	MaxFragmentedMSDUsExponent       uint8
	MinFragmentSize                  uint8
	TriggerFrameMACPadding           uint8
	MultiTIDAggregationRx            uint8
	HELinkAdaptation                 uint8
	AllAck                           bool
	TRS                              bool
	BSR                              bool
	BroadcastTWT                     bool
	BA32BitBitmap                    bool
	MUCascading                      bool
	AckEnabledAggregation            bool
	OMControl                        bool
	OFDMARA                          bool
	MaxAMPDULengthExponentExt        uint8
	AMSDUFragmentation               bool
	FlexibleTWTSchedule              bool
	RxControlFrameToMultiBSS         bool
	BSRPBQRPAMPDUAggregation         bool
	QTP                              bool
	BQR                              bool
	PSRResponder                     bool
	NDPFeedbackReport                bool
	OPS                              bool
	AMSDUNotUnderBAInAckEnabledAMPDU bool
	MultiTIDAggregationTx            uint8
	SubchannelSelectiveTransmission  bool
	UL2x996ToneRU                    bool
	OMControlULMUDataDisableRx       bool
	DynamicSMPowerSave               bool
	PuncturedSounding                bool
	HTAndVHTTriggerFrameRx           bool

	// HE PHY Capabilities Information. The Supported Channel Width Set flags
	// gate the HE-MCS maps and, through ChannelWidths, the EHT-MCS maps.
	ChannelWidth40In2G      bool
	ChannelWidth40And80In5G bool
	ChannelWidth160In5G     bool
	ChannelWidth8080In5G    bool
	ChannelWidth242RUIn2G   bool
	ChannelWidth242RUIn5G   bool

	PuncturedPreambleRx                     uint8
	DeviceClassA                            bool
	LDPCCodingInPayload                     bool
	SUPPDU1xLTF08usGI                       bool
	MidambleTxRxMaxNSTS                     uint8
	NDP4xLTF32usGI                          bool
	STBCTxLE80                              bool
	STBCRxLE80                              bool
	DopplerTx                               bool
	DopplerRx                               bool
	FullBandwidthULMUMIMO                   bool
	PartialBandwidthULMUMIMO                bool
	DCMMaxConstellationTx                   uint8
	DCMMaxNSSTx                             bool
	DCMMaxConstellationRx                   uint8
	DCMMaxNSSRx                             bool
	RxPartialBWSUIn20MHzMUPPDU              bool
	SUBeamformer                            bool
	SUBeamformee                            bool
	MUBeamformer                            bool
	BeamformeeSTSLE80                       uint8
	BeamformeeSTSGT80                       uint8
	SoundingDimensionsLE80                  uint8
	SoundingDimensionsGT80                  uint8
	Ng16SUFeedback                          bool
	Ng16MUFeedback                          bool
	Codebook42SUFeedback                    bool
	Codebook75MUFeedback                    bool
	TriggeredSUBeamformingFeedback          bool
	TriggeredMUBeamformingPartialBWFeedback bool
	TriggeredCQIFeedback                    bool
	PartialBandwidthExtendedRange           bool
	PartialBandwidthDLMUMIMO                bool

	// Bit 55 (PPE Thresholds Present) is set when PPE is not nil.
	PSRBasedSR                  bool
	PowerBoostFactor            bool
	SUAndMUPPDU4xLTF08usGI      bool
	MaxNc                       uint8
	STBCTxGT80                  bool
	STBCRxGT80                  bool
	ERSUPPDU4xLTF08usGI         bool
	TwentyIn40PPDUIn2G          bool
	TwentyIn160PPDU             bool
	EightyIn160PPDU             bool
	ERSUPPDU1xLTF08usGI         bool
	MidambleTxRx2xAnd1xLTF      bool
	DCMMaxRU                    uint8
	LongerThan16SIGBSymbols     bool
	NonTriggeredCQIFeedback     bool
	Tx1024QAMLT242ToneRU        bool
	Rx1024QAMLT242ToneRU        bool
	RxFullBWSUCompressedSIGB    bool
	RxFullBWSUNonCompressedSIGB bool
	NominalPacketPadding        uint8
	MUPPDUMoreThanOneRURxMaxLTF bool

	// Supported HE-MCS And NSS Set. MCS160 and MCS8080 are carried only when
	// ChannelWidth160In5G and ChannelWidth8080In5G are set.
	MCS80   HEMCSMap
	MCS160  HEMCSMap
	MCS8080 HEMCSMap

	// PPE Thresholds, or nil if not present.
	PPE *PPEThresholds
}

const (
	heMACSize = 6
	hePHYSize = 11

	// hePPEPresent is PHY capability bit 55.
	hePPEPresent = (heMACSize+55/8)*8 + 55%8
)

var heCapabilitiesLayout = layout[HECapabilities]{
	record: "HECapabilities",
	size:   heMACSize + hePHYSize,
	fields: []field[HECapabilities]{
		flagAt("HTCHESupport", 0, 0, func(c *HECapabilities) *bool { return &c.HTCHESupport }),
		flagAt("TWTRequester", 0, 1, func(c *HECapabilities) *bool { return &c.TWTRequester }),
		flagAt("TWTResponder", 0, 2, func(c *HECapabilities) *bool { return &c.TWTResponder }),
		u8At("DynamicFragmentation", 0, 3, 2, func(c *HECapabilities) *uint8 { return &c.DynamicFragmentation }),
		u8At("MaxFragmentedMSDUsExponent", 0, 5, 3, func(c *HECapabilities) *uint8 { return &c.MaxFragmentedMSDUsExponent }),
		u8At("MinFragmentSize", 1, 0, 2, func(c *HECapabilities) *uint8 { return &c.MinFragmentSize }),
		u8At("TriggerFrameMACPadding", 1, 2, 2, func(c *HECapabilities) *uint8 { return &c.TriggerFrameMACPadding }),
		u8At("MultiTIDAggregationRx", 1, 4, 3, func(c *HECapabilities) *uint8 { return &c.MultiTIDAggregationRx }),
		u8At("HELinkAdaptation", 1, 7, 2, func(c *HECapabilities) *uint8 { return &c.HELinkAdaptation }),
		flagAt("AllAck", 2, 1, func(c *HECapabilities) *bool { return &c.AllAck }),
		flagAt("TRS", 2, 2, func(c *HECapabilities) *bool { return &c.TRS }),
		flagAt("BSR", 2, 3, func(c *HECapabilities) *bool { return &c.BSR }),
		flagAt("BroadcastTWT", 2, 4, func(c *HECapabilities) *bool { return &c.BroadcastTWT }),
		flagAt("BA32BitBitmap", 2, 5, func(c *HECapabilities) *bool { return &c.BA32BitBitmap }),
		flagAt("MUCascading", 2, 6, func(c *HECapabilities) *bool { return &c.MUCascading }),
		flagAt("AckEnabledAggregation", 2, 7, func(c *HECapabilities) *bool { return &c.AckEnabledAggregation }),
		flagAt("OMControl", 3, 1, func(c *HECapabilities) *bool { return &c.OMControl }),
		flagAt("OFDMARA", 3, 2, func(c *HECapabilities) *bool { return &c.OFDMARA }),
		u8At("MaxAMPDULengthExponentExt", 3, 3, 2, func(c *HECapabilities) *uint8 { return &c.MaxAMPDULengthExponentExt }),
		flagAt("AMSDUFragmentation", 3, 5, func(c *HECapabilities) *bool { return &c.AMSDUFragmentation }),
		flagAt("FlexibleTWTSchedule", 3, 6, func(c *HECapabilities) *bool { return &c.FlexibleTWTSchedule }),
		flagAt("RxControlFrameToMultiBSS", 3, 7, func(c *HECapabilities) *bool { return &c.RxControlFrameToMultiBSS }),
		flagAt("BSRPBQRPAMPDUAggregation", 4, 0, func(c *HECapabilities) *bool { return &c.BSRPBQRPAMPDUAggregation }),
		flagAt("QTP", 4, 1, func(c *HECapabilities) *bool { return &c.QTP }),
		flagAt("BQR", 4, 2, func(c *HECapabilities) *bool { return &c.BQR }),
		flagAt("PSRResponder", 4, 3, func(c *HECapabilities) *bool { return &c.PSRResponder }),
		flagAt("NDPFeedbackReport", 4, 4, func(c *HECapabilities) *bool { return &c.NDPFeedbackReport }),
		flagAt("OPS", 4, 5, func(c *HECapabilities) *bool { return &c.OPS }),
		flagAt("AMSDUNotUnderBAInAckEnabledAMPDU", 4, 6, func(c *HECapabilities) *bool { return &c.AMSDUNotUnderBAInAckEnabledAMPDU }),
		u8At("MultiTIDAggregationTx", 4, 7, 3, func(c *HECapabilities) *uint8 { return &c.MultiTIDAggregationTx }),
		flagAt("SubchannelSelectiveTransmission", 5, 2, func(c *HECapabilities) *bool { return &c.SubchannelSelectiveTransmission }),
		flagAt("UL2x996ToneRU", 5, 3, func(c *HECapabilities) *bool { return &c.UL2x996ToneRU }),
		flagAt("OMControlULMUDataDisableRx", 5, 4, func(c *HECapabilities) *bool { return &c.OMControlULMUDataDisableRx }),
		flagAt("DynamicSMPowerSave", 5, 5, func(c *HECapabilities) *bool { return &c.DynamicSMPowerSave }),
		flagAt("PuncturedSounding", 5, 6, func(c *HECapabilities) *bool { return &c.PuncturedSounding }),
		flagAt("HTAndVHTTriggerFrameRx", 5, 7, func(c *HECapabilities) *bool { return &c.HTAndVHTTriggerFrameRx }),

		flagAt("ChannelWidth40In2G", 6, 1, func(c *HECapabilities) *bool { return &c.ChannelWidth40In2G }),
		flagAt("ChannelWidth40And80In5G", 6, 2, func(c *HECapabilities) *bool { return &c.ChannelWidth40And80In5G }),
		flagAt("ChannelWidth160In5G", 6, 3, func(c *HECapabilities) *bool { return &c.ChannelWidth160In5G }),
		flagAt("ChannelWidth8080In5G", 6, 4, func(c *HECapabilities) *bool { return &c.ChannelWidth8080In5G }),
		flagAt("ChannelWidth242RUIn2G", 6, 5, func(c *HECapabilities) *bool { return &c.ChannelWidth242RUIn2G }),
		flagAt("ChannelWidth242RUIn5G", 6, 6, func(c *HECapabilities) *bool { return &c.ChannelWidth242RUIn5G }),

		u8At("PuncturedPreambleRx", 7, 0, 4, func(c *HECapabilities) *uint8 { return &c.PuncturedPreambleRx }),
		flagAt("DeviceClassA", 7, 4, func(c *HECapabilities) *bool { return &c.DeviceClassA }),
		flagAt("LDPCCodingInPayload", 7, 5, func(c *HECapabilities) *bool { return &c.LDPCCodingInPayload }),
		flagAt("SUPPDU1xLTF08usGI", 7, 6, func(c *HECapabilities) *bool { return &c.SUPPDU1xLTF08usGI }),
		u8At("MidambleTxRxMaxNSTS", 7, 7, 2, func(c *HECapabilities) *uint8 { return &c.MidambleTxRxMaxNSTS }),
		flagAt("NDP4xLTF32usGI", 8, 1, func(c *HECapabilities) *bool { return &c.NDP4xLTF32usGI }),
		flagAt("STBCTxLE80", 8, 2, func(c *HECapabilities) *bool { return &c.STBCTxLE80 }),
		flagAt("STBCRxLE80", 8, 3, func(c *HECapabilities) *bool { return &c.STBCRxLE80 }),
		flagAt("DopplerTx", 8, 4, func(c *HECapabilities) *bool { return &c.DopplerTx }),
		flagAt("DopplerRx", 8, 5, func(c *HECapabilities) *bool { return &c.DopplerRx }),
		flagAt("FullBandwidthULMUMIMO", 8, 6, func(c *HECapabilities) *bool { return &c.FullBandwidthULMUMIMO }),
		flagAt("PartialBandwidthULMUMIMO", 8, 7, func(c *HECapabilities) *bool { return &c.PartialBandwidthULMUMIMO }),
		u8At("DCMMaxConstellationTx", 9, 0, 2, func(c *HECapabilities) *uint8 { return &c.DCMMaxConstellationTx }),
		flagAt("DCMMaxNSSTx", 9, 2, func(c *HECapabilities) *bool { return &c.DCMMaxNSSTx }),
		u8At("DCMMaxConstellationRx", 9, 3, 2, func(c *HECapabilities) *uint8 { return &c.DCMMaxConstellationRx }),
		flagAt("DCMMaxNSSRx", 9, 5, func(c *HECapabilities) *bool { return &c.DCMMaxNSSRx }),
		flagAt("RxPartialBWSUIn20MHzMUPPDU", 9, 6, func(c *HECapabilities) *bool { return &c.RxPartialBWSUIn20MHzMUPPDU }),
		flagAt("SUBeamformer", 9, 7, func(c *HECapabilities) *bool { return &c.SUBeamformer }),
		flagAt("SUBeamformee", 10, 0, func(c *HECapabilities) *bool { return &c.SUBeamformee }),
		flagAt("MUBeamformer", 10, 1, func(c *HECapabilities) *bool { return &c.MUBeamformer }),
		u8At("BeamformeeSTSLE80", 10, 2, 3, func(c *HECapabilities) *uint8 { return &c.BeamformeeSTSLE80 }),
		u8At("BeamformeeSTSGT80", 10, 5, 3, func(c *HECapabilities) *uint8 { return &c.BeamformeeSTSGT80 }),
		u8At("SoundingDimensionsLE80", 11, 0, 3, func(c *HECapabilities) *uint8 { return &c.SoundingDimensionsLE80 }),
		u8At("SoundingDimensionsGT80", 11, 3, 3, func(c *HECapabilities) *uint8 { return &c.SoundingDimensionsGT80 }),
		flagAt("Ng16SUFeedback", 11, 6, func(c *HECapabilities) *bool { return &c.Ng16SUFeedback }),
		flagAt("Ng16MUFeedback", 11, 7, func(c *HECapabilities) *bool { return &c.Ng16MUFeedback }),
		flagAt("Codebook42SUFeedback", 12, 0, func(c *HECapabilities) *bool { return &c.Codebook42SUFeedback }),
		flagAt("Codebook75MUFeedback", 12, 1, func(c *HECapabilities) *bool { return &c.Codebook75MUFeedback }),
		flagAt("TriggeredSUBeamformingFeedback", 12, 2, func(c *HECapabilities) *bool { return &c.TriggeredSUBeamformingFeedback }),
		flagAt("TriggeredMUBeamformingPartialBWFeedback", 12, 3, func(c *HECapabilities) *bool { return &c.TriggeredMUBeamformingPartialBWFeedback }),
		flagAt("TriggeredCQIFeedback", 12, 4, func(c *HECapabilities) *bool { return &c.TriggeredCQIFeedback }),
		flagAt("PartialBandwidthExtendedRange", 12, 5, func(c *HECapabilities) *bool { return &c.PartialBandwidthExtendedRange }),
		flagAt("PartialBandwidthDLMUMIMO", 12, 6, func(c *HECapabilities) *bool { return &c.PartialBandwidthDLMUMIMO }),

		flagAt("PSRBasedSR", 13, 0, func(c *HECapabilities) *bool { return &c.PSRBasedSR }),
		flagAt("PowerBoostFactor", 13, 1, func(c *HECapabilities) *bool { return &c.PowerBoostFactor }),
		flagAt("SUAndMUPPDU4xLTF08usGI", 13, 2, func(c *HECapabilities) *bool { return &c.SUAndMUPPDU4xLTF08usGI }),
		u8At("MaxNc", 13, 3, 3, func(c *HECapabilities) *uint8 { return &c.MaxNc }),
		flagAt("STBCTxGT80", 13, 6, func(c *HECapabilities) *bool { return &c.STBCTxGT80 }),
		flagAt("STBCRxGT80", 13, 7, func(c *HECapabilities) *bool { return &c.STBCRxGT80 }),
		flagAt("ERSUPPDU4xLTF08usGI", 14, 0, func(c *HECapabilities) *bool { return &c.ERSUPPDU4xLTF08usGI }),
		flagAt("TwentyIn40PPDUIn2G", 14, 1, func(c *HECapabilities) *bool { return &c.TwentyIn40PPDUIn2G }),
		flagAt("TwentyIn160PPDU", 14, 2, func(c *HECapabilities) *bool { return &c.TwentyIn160PPDU }),
		flagAt("EightyIn160PPDU", 14, 3, func(c *HECapabilities) *bool { return &c.EightyIn160PPDU }),
		flagAt("ERSUPPDU1xLTF08usGI", 14, 4, func(c *HECapabilities) *bool { return &c.ERSUPPDU1xLTF08usGI }),
		flagAt("MidambleTxRx2xAnd1xLTF", 14, 5, func(c *HECapabilities) *bool { return &c.MidambleTxRx2xAnd1xLTF }),
		u8At("DCMMaxRU", 14, 6, 2, func(c *HECapabilities) *uint8 { return &c.DCMMaxRU }),
		flagAt("LongerThan16SIGBSymbols", 15, 0, func(c *HECapabilities) *bool { return &c.LongerThan16SIGBSymbols }),
		flagAt("NonTriggeredCQIFeedback", 15, 1, func(c *HECapabilities) *bool { return &c.NonTriggeredCQIFeedback }),
		flagAt("Tx1024QAMLT242ToneRU", 15, 2, func(c *HECapabilities) *bool { return &c.Tx1024QAMLT242ToneRU }),
		flagAt("Rx1024QAMLT242ToneRU", 15, 3, func(c *HECapabilities) *bool { return &c.Rx1024QAMLT242ToneRU }),
		flagAt("RxFullBWSUCompressedSIGB", 15, 4, func(c *HECapabilities) *bool { return &c.RxFullBWSUCompressedSIGB }),
		flagAt("RxFullBWSUNonCompressedSIGB", 15, 5, func(c *HECapabilities) *bool { return &c.RxFullBWSUNonCompressedSIGB }),
		u8At("NominalPacketPadding", 15, 6, 2, func(c *HECapabilities) *uint8 { return &c.NominalPacketPadding }),
		flagAt("MUPPDUMoreThanOneRURxMaxLTF", 16, 0, func(c *HECapabilities) *bool { return &c.MUPPDUMoreThanOneRURxMaxLTF }),
	},
}

// widths returns the channel widths in c's Supported Channel Width Set.
func (c *HECapabilities) widths() ChannelWidths {
	return ChannelWidths{
		FortyIn2G:        c.ChannelWidth40In2G,
		FortyEightyIn5G:  c.ChannelWidth40And80In5G,
		OneSixtyIn5G:     c.ChannelWidth160In5G,
		EightyEightyIn5G: c.ChannelWidth8080In5G,
	}
}

// mcsMap returns the maps of one tier.
func (c *HECapabilities) mcsMap(t HEMCSTier) *HEMCSMap {
	switch t {
	case HEMCSTier160:
		return &c.MCS160
	case HEMCSTier8080:
		return &c.MCS8080
	default:
		return &c.MCS80
	}
}

// Key implements Capability.
func (*HECapabilities) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionHECapabilities}
}

func (c *HECapabilities) marshal(_ *Params) ([]byte, error) {
	b := make([]byte, heCapabilitiesLayout.size)
	if err := heCapabilitiesLayout.pack(b, c); err != nil {
		return nil, err
	}

	for _, t := range HEMCSTiers(c.widths()) {
		b = appendHEMCSMap(b, *c.mcsMap(t))
	}

	if c.PPE == nil {
		return b, nil
	}

	setBit(b, hePPEPresent)
	return hePPE.append(b, c.PPE)
}

func (c *HECapabilities) unmarshal(b []byte, _ *Params) error {
	*c = HECapabilities{}
	if err := heCapabilitiesLayout.unpack(b, c); err != nil {
		return err
	}

	rest := b[heCapabilitiesLayout.size:]
	for _, t := range HEMCSTiers(c.widths()) {
		m, r, err := readHEMCSMap(rest, t)
		if err != nil {
			return err
		}
		*c.mcsMap(t), rest = m, r
	}

	if !bitSet(b, hePPEPresent) {
		return nil
	}

	ppe, _, err := hePPE.read(rest)
	if err != nil {
		return err
	}
	c.PPE = ppe

	return nil
}
