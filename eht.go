package wifi

import "encoding/binary"

// EHTCapabilities represents 802.11be (Extremely High Throughput)
// capabilities.
//
// The fields represent those in the EHT Capabilities element (802.11be-2024,
// 9.4.2.323).
type EHTCapabilities struct {
	// EHT MAC Capabilities Information.
	EPCSPriorityAccess        bool
	OMControl                 bool
	TriggeredTXOPSharingMode1 bool
	TriggeredTXOPSharingMode2 bool
	RestrictedTWT             bool
	SCSTrafficDescription     bool
	MaxMPDULength             uint8
	MaxAMPDULengthExponentExt bool
	TRS                       bool
	TXOPReturnInSharingMode2  bool
	TwoBQRs                   bool
	LinkAdaptation            uint8
	UnsolicitedEPCSUpdate     bool

	// EHT PHY Capabilities Information. Support320MHzIn6G gates the 320 MHz
	// EHT-MCS map.
	Support320MHzIn6G                       bool
	Support242ToneRUWiderThan20MHz          bool
	NDP4xLTF32usGI                          bool
	PartialBandwidthULMUMIMO                bool
	SUBeamformer                            bool
	SUBeamformee                            bool
	BeamformeeSSLE80                        uint8
	BeamformeeSS160                         uint8
	BeamformeeSS320                         uint8
	SoundingDimensionsLE80                  uint8
	SoundingDimensions160                   uint8
	SoundingDimensions320                   uint8
	Ng16SUFeedback                          bool
	Ng16MUFeedback                          bool
	Codebook42SUFeedback                    bool
	Codebook75MUFeedback                    bool
	TriggeredSUBeamformingFeedback          bool
	TriggeredMUBeamformingPartialBWFeedback bool
	TriggeredCQIFeedback                    bool
	PartialBandwidthDLMUMIMO                bool
	PSRBasedSR                              bool
	PowerBoostFactor                        bool
	MUPPDU4xLTF08usGI                       bool
	MaxNc                                   uint8
	NonTriggeredCQIFeedback                 bool
	Tx1024And4096QAMLT242ToneRU             bool
	Rx1024And4096QAMLT242ToneRU             bool

	// Bit 43 (PPE Thresholds Present) is set when PPE is not nil.
	CommonNominalPacketPadding          uint8
	MaxEHTLTFs                          uint8
	MCS15                               uint8
	EHTDUPIn6G                          bool
	TwentyMHzSTANDPWiderBW              bool
	NonOFDMAULMUMIMOLE80                bool
	NonOFDMAULMUMIMO160                 bool
	NonOFDMAULMUMIMO320                 bool
	MUBeamformerLE80                    bool
	MUBeamformer160                     bool
	MUBeamformer320                     bool
	TBSoundingFeedbackRateLimit         bool
	Rx1024QAMWiderBWDLOFDMA             bool
	Rx4096QAMWiderBWDLOFDMA             bool
	TwentyMHzOnlyLimitedCapabilities    bool
	TwentyMHzOnlyTriggeredMUBeamforming bool
	TwentyMHzOnlyMRU                    bool

	// Supported EHT-MCS And NSS Set. Which tiers are carried depends on the
	// channel widths of the HE Capabilities element sent alongside, on
	// Support320MHzIn6G and on whether the sender is an AP (see EHTMCSTiers).
	// Tiers that are not carried decode as zero.
	MCS20Only [4]NSSPair
	MCS80     [3]NSSPair
	MCS160    [3]NSSPair
	MCS320    [3]NSSPair

	// PPE Thresholds, or nil if not present.
	PPE *PPEThresholds
}

const (
	ehtMACSize = 2
	ehtPHYSize = 9

	// ehtPPEPresent is PHY capability bit 43.
	ehtPPEPresent = (ehtMACSize+43/8)*8 + 43%8
)

var ehtCapabilitiesLayout = layout[EHTCapabilities]{
	record: "EHTCapabilities",
	size:   ehtMACSize + ehtPHYSize,
	fields: []field[EHTCapabilities]{
		flagAt("EPCSPriorityAccess", 0, 0, func(c *EHTCapabilities) *bool { return &c.EPCSPriorityAccess }),
		flagAt("OMControl", 0, 1, func(c *EHTCapabilities) *bool { return &c.OMControl }),
		flagAt("TriggeredTXOPSharingMode1", 0, 2, func(c *EHTCapabilities) *bool { return &c.TriggeredTXOPSharingMode1 }),
		flagAt("TriggeredTXOPSharingMode2", 0, 3, func(c *EHTCapabilities) *bool { return &c.TriggeredTXOPSharingMode2 }),
		flagAt("RestrictedTWT", 0, 4, func(c *EHTCapabilities) *bool { return &c.RestrictedTWT }),
		flagAt("SCSTrafficDescription", 0, 5, func(c *EHTCapabilities) *bool { return &c.SCSTrafficDescription }),
		u8At("MaxMPDULength", 0, 6, 2, func(c *EHTCapabilities) *uint8 { return &c.MaxMPDULength }),
		flagAt("MaxAMPDULengthExponentExt", 1, 0, func(c *EHTCapabilities) *bool { return &c.MaxAMPDULengthExponentExt }),
		flagAt("TRS", 1, 1, func(c *EHTCapabilities) *bool { return &c.TRS }),
		flagAt("TXOPReturnInSharingMode2", 1, 2, func(c *EHTCapabilities) *bool { return &c.TXOPReturnInSharingMode2 }),
		flagAt("TwoBQRs", 1, 3, func(c *EHTCapabilities) *bool { return &c.TwoBQRs }),
		u8At("LinkAdaptation", 1, 4, 2, func(c *EHTCapabilities) *uint8 { return &c.LinkAdaptation }),
		flagAt("UnsolicitedEPCSUpdate", 1, 6, func(c *EHTCapabilities) *bool { return &c.UnsolicitedEPCSUpdate }),

		flagAt("Support320MHzIn6G", 2, 1, func(c *EHTCapabilities) *bool { return &c.Support320MHzIn6G }),
		flagAt("Support242ToneRUWiderThan20MHz", 2, 2, func(c *EHTCapabilities) *bool { return &c.Support242ToneRUWiderThan20MHz }),
		flagAt("NDP4xLTF32usGI", 2, 3, func(c *EHTCapabilities) *bool { return &c.NDP4xLTF32usGI }),
		flagAt("PartialBandwidthULMUMIMO", 2, 4, func(c *EHTCapabilities) *bool { return &c.PartialBandwidthULMUMIMO }),
		flagAt("SUBeamformer", 2, 5, func(c *EHTCapabilities) *bool { return &c.SUBeamformer }),
		flagAt("SUBeamformee", 2, 6, func(c *EHTCapabilities) *bool { return &c.SUBeamformee }),
		u8At("BeamformeeSSLE80", 2, 7, 3, func(c *EHTCapabilities) *uint8 { return &c.BeamformeeSSLE80 }),
		u8At("BeamformeeSS160", 3, 2, 3, func(c *EHTCapabilities) *uint8 { return &c.BeamformeeSS160 }),
		u8At("BeamformeeSS320", 3, 5, 3, func(c *EHTCapabilities) *uint8 { return &c.BeamformeeSS320 }),
		u8At("SoundingDimensionsLE80", 4, 0, 3, func(c *EHTCapabilities) *uint8 { return &c.SoundingDimensionsLE80 }),
		u8At("SoundingDimensions160", 4, 3, 3, func(c *EHTCapabilities) *uint8 { return &c.SoundingDimensions160 }),
		u8At("SoundingDimensions320", 4, 6, 3, func(c *EHTCapabilities) *uint8 { return &c.SoundingDimensions320 }),
		flagAt("Ng16SUFeedback", 5, 1, func(c *EHTCapabilities) *bool { return &c.Ng16SUFeedback }),
		flagAt("Ng16MUFeedback", 5, 2, func(c *EHTCapabilities) *bool { return &c.Ng16MUFeedback }),
		flagAt("Codebook42SUFeedback", 5, 3, func(c *EHTCapabilities) *bool { return &c.Codebook42SUFeedback }),
		flagAt("Codebook75MUFeedback", 5, 4, func(c *EHTCapabilities) *bool { return &c.Codebook75MUFeedback }),
		flagAt("TriggeredSUBeamformingFeedback", 5, 5, func(c *EHTCapabilities) *bool { return &c.TriggeredSUBeamformingFeedback }),
		flagAt("TriggeredMUBeamformingPartialBWFeedback", 5, 6, func(c *EHTCapabilities) *bool { return &c.TriggeredMUBeamformingPartialBWFeedback }),
		flagAt("TriggeredCQIFeedback", 5, 7, func(c *EHTCapabilities) *bool { return &c.TriggeredCQIFeedback }),
		flagAt("PartialBandwidthDLMUMIMO", 6, 0, func(c *EHTCapabilities) *bool { return &c.PartialBandwidthDLMUMIMO }),
		flagAt("PSRBasedSR", 6, 1, func(c *EHTCapabilities) *bool { return &c.PSRBasedSR }),
		flagAt("PowerBoostFactor", 6, 2, func(c *EHTCapabilities) *bool { return &c.PowerBoostFactor }),
		flagAt("MUPPDU4xLTF08usGI", 6, 3, func(c *EHTCapabilities) *bool { return &c.MUPPDU4xLTF08usGI }),
		u8At("MaxNc", 6, 4, 4, func(c *EHTCapabilities) *uint8 { return &c.MaxNc }),
		flagAt("NonTriggeredCQIFeedback", 7, 0, func(c *EHTCapabilities) *bool { return &c.NonTriggeredCQIFeedback }),
		flagAt("Tx1024And4096QAMLT242ToneRU", 7, 1, func(c *EHTCapabilities) *bool { return &c.Tx1024And4096QAMLT242ToneRU }),
		flagAt("Rx1024And4096QAMLT242ToneRU", 7, 2, func(c *EHTCapabilities) *bool { return &c.Rx1024And4096QAMLT242ToneRU }),

		u8At("CommonNominalPacketPadding", 7, 4, 2, func(c *EHTCapabilities) *uint8 { return &c.CommonNominalPacketPadding }),
		u8At("MaxEHTLTFs", 7, 6, 5, func(c *EHTCapabilities) *uint8 { return &c.MaxEHTLTFs }),
		u8At("MCS15", 8, 3, 4, func(c *EHTCapabilities) *uint8 { return &c.MCS15 }),
		flagAt("EHTDUPIn6G", 8, 7, func(c *EHTCapabilities) *bool { return &c.EHTDUPIn6G }),
		flagAt("TwentyMHzSTANDPWiderBW", 9, 0, func(c *EHTCapabilities) *bool { return &c.TwentyMHzSTANDPWiderBW }),
		flagAt("NonOFDMAULMUMIMOLE80", 9, 1, func(c *EHTCapabilities) *bool { return &c.NonOFDMAULMUMIMOLE80 }),
		flagAt("NonOFDMAULMUMIMO160", 9, 2, func(c *EHTCapabilities) *bool { return &c.NonOFDMAULMUMIMO160 }),
		flagAt("NonOFDMAULMUMIMO320", 9, 3, func(c *EHTCapabilities) *bool { return &c.NonOFDMAULMUMIMO320 }),
		flagAt("MUBeamformerLE80", 9, 4, func(c *EHTCapabilities) *bool { return &c.MUBeamformerLE80 }),
		flagAt("MUBeamformer160", 9, 5, func(c *EHTCapabilities) *bool { return &c.MUBeamformer160 }),
		flagAt("MUBeamformer320", 9, 6, func(c *EHTCapabilities) *bool { return &c.MUBeamformer320 }),
		flagAt("TBSoundingFeedbackRateLimit", 9, 7, func(c *EHTCapabilities) *bool { return &c.TBSoundingFeedbackRateLimit }),
		flagAt("Rx1024QAMWiderBWDLOFDMA", 10, 0, func(c *EHTCapabilities) *bool { return &c.Rx1024QAMWiderBWDLOFDMA }),
		flagAt("Rx4096QAMWiderBWDLOFDMA", 10, 1, func(c *EHTCapabilities) *bool { return &c.Rx4096QAMWiderBWDLOFDMA }),
		flagAt("TwentyMHzOnlyLimitedCapabilities", 10, 2, func(c *EHTCapabilities) *bool { return &c.TwentyMHzOnlyLimitedCapabilities }),
		flagAt("TwentyMHzOnlyTriggeredMUBeamforming", 10, 3, func(c *EHTCapabilities) *bool { return &c.TwentyMHzOnlyTriggeredMUBeamforming }),
		flagAt("TwentyMHzOnlyMRU", 10, 4, func(c *EHTCapabilities) *bool { return &c.TwentyMHzOnlyMRU }),
	},
}

// widths combines the HE channel widths in p with c's 320 MHz support.
func (c *EHTCapabilities) widths(p *Params) ChannelWidths {
	w := p.Widths
	w.ThreeTwentyIn6G = c.Support320MHzIn6G
	return w
}

// mcsTier returns the field name and buckets of one tier.
func (c *EHTCapabilities) mcsTier(t MCSTier) (string, []NSSPair) {
	switch t {
	case MCSTier20Only:
		return "MCS20Only", c.MCS20Only[:]
	case MCSTier160:
		return "MCS160", c.MCS160[:]
	case MCSTier320:
		return "MCS320", c.MCS320[:]
	default:
		return "MCS80", c.MCS80[:]
	}
}

// Key implements Capability.
func (*EHTCapabilities) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionEHTCapabilities}
}

func (c *EHTCapabilities) marshal(p *Params) ([]byte, error) {
	b := make([]byte, ehtCapabilitiesLayout.size)
	if err := ehtCapabilitiesLayout.pack(b, c); err != nil {
		return nil, err
	}

	var err error
	for _, t := range EHTMCSTiers(c.widths(p), p.FromAP) {
		name, pairs := c.mcsTier(t)
		if b, err = appendNSSPairs(b, ehtCapabilitiesLayout.record, name, pairs); err != nil {
			return nil, err
		}
	}

	if c.PPE == nil {
		return b, nil
	}

	setBit(b, ehtPPEPresent)
	return ehtPPE.append(b, c.PPE)
}

func (c *EHTCapabilities) unmarshal(b []byte, p *Params) error {
	*c = EHTCapabilities{}
	if err := ehtCapabilitiesLayout.unpack(b, c); err != nil {
		return err
	}

	rest := b[ehtCapabilitiesLayout.size:]
	for _, t := range EHTMCSTiers(c.widths(p), p.FromAP) {
		_, pairs := c.mcsTier(t)

		var err error
		if rest, err = readNSSPairs(rest, pairs, t.String()); err != nil {
			return err
		}
	}

	if !bitSet(b, ehtPPEPresent) {
		return nil
	}

	ppe, _, err := ehtPPE.read(rest)
	if err != nil {
		return err
	}
	c.PPE = ppe

	return nil
}

// EHTOperation represents the EHT Operation element (802.11be-2024,
// 9.4.2.324).
type EHTOperation struct {
	// EHT Operation Parameters.
	DefaultPEDuration                  bool
	GroupAddressedBUIndicationLimit    bool
	GroupAddressedBUIndicationExponent uint8

	// Basic EHT-MCS And NSS Set, one pair per MCS 0-7, 8-9, 10-11 and 12-13.
	BasicMCS [4]NSSPair

	// EHT Operation Information, or nil if not present.
	Info *EHTOperationInfo
}

// EHTOperationInfo describes the operating channel of an EHT BSS.
type EHTOperationInfo struct {
	// Channel width: 0 (20), 1 (40), 2 (80), 3 (160) or 4 (320 MHz).
	ChannelWidth uint8
	CCFS0        uint8
	CCFS1        uint8

	// Disabled subchannels, one bit per 20 MHz subchannel, or nil if none
	// are disabled.
	DisabledSubchannelBitmap *uint16
}

// Bits of the EHT Operation Parameters field.
const (
	ehtOpInfoPresent     = 0
	ehtOpDisabledPresent = 1
)

var ehtOperationLayout = layout[EHTOperation]{
	record: "EHTOperation",
	size:   1,
	fields: []field[EHTOperation]{
		flagAt("DefaultPEDuration", 0, 2, func(o *EHTOperation) *bool { return &o.DefaultPEDuration }),
		flagAt("GroupAddressedBUIndicationLimit", 0, 3, func(o *EHTOperation) *bool { return &o.GroupAddressedBUIndicationLimit }),
		u8At("GroupAddressedBUIndicationExponent", 0, 4, 2, func(o *EHTOperation) *uint8 { return &o.GroupAddressedBUIndicationExponent }),
	},
}

var ehtOperationInfoLayout = layout[EHTOperationInfo]{
	record: "EHTOperation.Info",
	size:   3,
	fields: []field[EHTOperationInfo]{
		u8At("ChannelWidth", 0, 0, 3, func(i *EHTOperationInfo) *uint8 { return &i.ChannelWidth }),
		u8At("CCFS0", 1, 0, 8, func(i *EHTOperationInfo) *uint8 { return &i.CCFS0 }),
		u8At("CCFS1", 2, 0, 8, func(i *EHTOperationInfo) *uint8 { return &i.CCFS1 }),
	},
}

// Key implements Capability.
func (*EHTOperation) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionEHTOperation}
}

func (o *EHTOperation) marshal(_ *Params) ([]byte, error) {
	b, err := appendLayout(nil, ehtOperationLayout, o)
	if err != nil {
		return nil, err
	}
	if b, err = appendNSSPairs(b, ehtOperationLayout.record, "BasicMCS", o.BasicMCS[:]); err != nil {
		return nil, err
	}

	if o.Info == nil {
		return b, nil
	}

	setBit(b, ehtOpInfoPresent)
	if b, err = appendLayout(b, ehtOperationInfoLayout, o.Info); err != nil {
		return nil, err
	}
	if o.Info.DisabledSubchannelBitmap != nil {
		setBit(b, ehtOpDisabledPresent)
		b = binary.LittleEndian.AppendUint16(b, *o.Info.DisabledSubchannelBitmap)
	}

	return b, nil
}

func (o *EHTOperation) unmarshal(b []byte, _ *Params) error {
	*o = EHTOperation{}
	if err := ehtOperationLayout.unpack(b, o); err != nil {
		return err
	}

	rest, err := readNSSPairs(b[1:], o.BasicMCS[:], "Basic EHT-MCS")
	if err != nil {
		return err
	}

	if !bitSet(b, ehtOpInfoPresent) {
		return nil
	}

	if o.Info, rest, err = takeLayout(rest, ehtOperationInfoLayout); err != nil {
		return err
	}
	if bitSet(b, ehtOpDisabledPresent) {
		if len(rest) < 2 {
			return malformed("EHTOperation: missing Disabled Subchannel Bitmap")
		}
		v := binary.LittleEndian.Uint16(rest)
		o.Info.DisabledSubchannelBitmap = &v
	}

	return nil
}
