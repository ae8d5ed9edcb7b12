package wifi

// SpatialReuse represents the Spatial Reuse Parameter Set element
// (802.11ax-2021, 9.4.2.252).
type SpatialReuse struct {
	PSRDisallowed                    bool
	NonSRGOBSSPDSRDisallowed         bool
	HESIGASpatialReuseValue15Allowed bool

	// Non-SRG OBSS PD Max Offset, or nil if not present.
	NonSRGOBSSPDMaxOffset *uint8

	// SRG parameters, or nil if not present.
	SRG *SRGInfo
}

// SRGInfo holds the spatial reuse group fields of a Spatial Reuse Parameter
// Set element.
type SRGInfo struct {
	OBSSPDMinOffset    uint8
	OBSSPDMaxOffset    uint8
	BSSColorBitmap     [8]byte
	PartialBSSIDBitmap [8]byte
}

// Bits of the SR Control field.
const (
	srNonSRGOffsetPresent = 2
	srSRGInfoPresent      = 3
)

var spatialReuseLayout = layout[SpatialReuse]{
	record: "SpatialReuse",
	size:   1,
	fields: []field[SpatialReuse]{
		flagAt("PSRDisallowed", 0, 0, func(s *SpatialReuse) *bool { return &s.PSRDisallowed }),
		flagAt("NonSRGOBSSPDSRDisallowed", 0, 1, func(s *SpatialReuse) *bool { return &s.NonSRGOBSSPDSRDisallowed }),
		flagAt("HESIGASpatialReuseValue15Allowed", 0, 4, func(s *SpatialReuse) *bool { return &s.HESIGASpatialReuseValue15Allowed }),
	},
}

var srgInfoLayout = layout[SRGInfo]{
	record: "SpatialReuse.SRG",
	size:   18,
	fields: []field[SRGInfo]{
		u8At("OBSSPDMinOffset", 0, 0, 8, func(s *SRGInfo) *uint8 { return &s.OBSSPDMinOffset }),
		u8At("OBSSPDMaxOffset", 1, 0, 8, func(s *SRGInfo) *uint8 { return &s.OBSSPDMaxOffset }),
		bytesAt("BSSColorBitmap", 2, 8, func(s *SRGInfo) []byte { return s.BSSColorBitmap[:] }),
		bytesAt("PartialBSSIDBitmap", 10, 8, func(s *SRGInfo) []byte { return s.PartialBSSIDBitmap[:] }),
	},
}

// Key implements Capability.
func (*SpatialReuse) Key() ElementKey {
	return ElementKey{ID: ElementIDExtension, Extension: ExtensionSpatialReuse}
}

func (s *SpatialReuse) marshal(_ *Params) ([]byte, error) {
	b, err := appendLayout(nil, spatialReuseLayout, s)
	if err != nil {
		return nil, err
	}

	if s.NonSRGOBSSPDMaxOffset != nil {
		setBit(b, srNonSRGOffsetPresent)
		b = append(b, *s.NonSRGOBSSPDMaxOffset)
	}
	if s.SRG != nil {
		setBit(b, srSRGInfoPresent)
		return appendLayout(b, srgInfoLayout, s.SRG)
	}

	return b, nil
}

func (s *SpatialReuse) unmarshal(b []byte, _ *Params) error {
	*s = SpatialReuse{}
	if err := spatialReuseLayout.unpack(b, s); err != nil {
		return err
	}

	rest := b[spatialReuseLayout.size:]
	if bitSet(b, srNonSRGOffsetPresent) {
		if len(rest) < 1 {
			return malformed("SpatialReuse: missing Non-SRG OBSS PD Max Offset")
		}
		v := rest[0]
		s.NonSRGOBSSPDMaxOffset, rest = &v, rest[1:]
	}
	if bitSet(b, srSRGInfoPresent) {
		srg, _, err := takeLayout(rest, srgInfoLayout)
		if err != nil {
			return err
		}
		s.SRG = srg
	}

	return nil
}
