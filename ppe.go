package wifi

import (
	"fmt"
	"math/bits"
)

// PPEThresholds is the PPE Thresholds field of an HE or EHT Capabilities
// element.
type PPEThresholds struct {
	// NSS is the number of spatial streams described, minus one.
	NSS uint8

	// RUMask has one bit set for each RU allocation size described.
	RUMask uint8

	// Thresholds holds one entry for each spatial stream and each RU size
	// in RUMask, ordered by spatial stream and then by RU size.
	Thresholds []PPEThreshold
}

// A PPEThreshold is a pair of 3-bit constellation indices. For EHT, PPET16
// carries PPETmax.
type PPEThreshold struct {
	PPET16 uint8
	PPET8  uint8
}

// A ppeFormat is the header layout of a PPE Thresholds field.
type ppeFormat struct {
	record   string
	nssWidth int
	ruWidth  int
}

var (
	hePPE  = ppeFormat{record: "HECapabilities.PPE", nssWidth: 3, ruWidth: 4}
	ehtPPE = ppeFormat{record: "EHTCapabilities.PPE", nssWidth: 4, ruWidth: 5}
)

// count returns the number of thresholds described by p's header.
func (f ppeFormat) count(p *PPEThresholds) int {
	return (int(p.NSS) + 1) * bits.OnesCount8(p.RUMask)
}

// size returns the padded length in bytes of a field holding n thresholds.
func (f ppeFormat) size(n int) int {
	return (f.nssWidth + f.ruWidth + n*6 + 7) / 8
}

func (f ppeFormat) append(b []byte, p *PPEThresholds) ([]byte, error) {
	w := &bitWriter{record: f.record, b: make([]byte, f.size(len(p.Thresholds)))}
	w.write("NSS", f.nssWidth, uint64(p.NSS))
	w.write("RUMask", f.ruWidth, uint64(p.RUMask))
	if w.err != nil {
		return nil, w.err
	}

	if n := f.count(p); len(p.Thresholds) != n {
		return nil, fmt.Errorf("%s: have %d thresholds, NSS and RUMask describe %d",
			f.record, len(p.Thresholds), n)
	}

	for i, t := range p.Thresholds {
		w.write(fmt.Sprintf("Thresholds[%d].PPET16", i), 3, uint64(t.PPET16))
		w.write(fmt.Sprintf("Thresholds[%d].PPET8", i), 3, uint64(t.PPET8))
	}
	if w.err != nil {
		return nil, w.err
	}

	return append(b, w.b...), nil
}

func (f ppeFormat) read(b []byte) (*PPEThresholds, []byte, error) {
	if len(b) < f.size(0) {
		return nil, b, malformed("%s needs at least %d bytes, have %d", f.record, f.size(0), len(b))
	}

	r := &bitReader{b: b}
	p := &PPEThresholds{
		NSS:    uint8(r.read(f.nssWidth)),
		RUMask: uint8(r.read(f.ruWidth)),
	}

	n := f.count(p)
	if len(b) < f.size(n) {
		return nil, b, malformed("%s with %d thresholds needs %d bytes, have %d",
			f.record, n, f.size(n), len(b))
	}

	for i := 0; i < n; i++ {
		p.Thresholds = append(p.Thresholds, PPEThreshold{
			PPET16: uint8(r.read(3)),
			PPET8:  uint8(r.read(3)),
		})
	}
	if r.err != nil {
		return nil, b, r.err
	}

	return p, b[f.size(n):], nil
}
