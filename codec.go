package wifi

import (
	"errors"

	"go.uber.org/zap"
)

// Features selects the element kinds a Codec encodes and decodes. Elements of
// a disabled kind are passed through undecoded in CapabilitySet.Other. EHT
// takes effect only along with HE, whose channel widths size the EHT MCS maps.
type Features struct {
	HT           bool
	VHT          bool
	HE           bool
	EHT          bool
	MLO          bool
	SpatialReuse bool
}

// DefaultFeatures returns a Features with every kind enabled.
func DefaultFeatures() Features {
	return Features{
		HT:           true,
		VHT:          true,
		HE:           true,
		EHT:          true,
		MLO:          true,
		SpatialReuse: true,
	}
}

// Config configures a Codec.
type Config struct {
	// Features selects the decoded element kinds. If nil, DefaultFeatures
	// is used.
	Features *Features

	// Logger receives per-element decode failures at debug level. If nil,
	// nothing is logged.
	Logger *zap.Logger

	// Metrics, if set, is updated for every decoded element.
	Metrics *Metrics
}

// A Codec encodes and decodes the information elements of management frame
// bodies. A Codec is safe for concurrent use.
type Codec struct {
	f   Features
	log *zap.Logger
	m   *Metrics
}

// NewCodec creates a Codec. A nil cfg uses the defaults of every Config field.
func NewCodec(cfg *Config) *Codec {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Codec{
		f:   DefaultFeatures(),
		log: cfg.Logger,
		m:   cfg.Metrics,
	}
	if cfg.Features != nil {
		c.f = *cfg.Features
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}

	return c
}

// FrameElements are the elements of a management frame body.
type FrameElements struct {
	// SSID is the SSID element of frame types that carry one. An empty
	// SSID is the wildcard or hidden SSID.
	SSID string

	Capabilities CapabilitySet

	// MultiLink is the frame's Multi-Link element, or nil.
	MultiLink *MultiLinkElement
}

// carriesSSID reports whether frames of type t carry an SSID element.
func (t FrameType) carriesSSID() bool {
	switch t {
	case FrameBeacon, FrameProbeRequest, FrameProbeResponse, FrameAssocRequest, FrameReassocRequest:
		return true
	default:
		return false
	}
}

// Encode returns the element portion of a frame of type ft carrying fe, in
// transmission order. Elements longer than 255 bytes are fragmented.
func (c *Codec) Encode(fe *FrameElements, ft FrameType) ([]byte, error) {
	elems, err := fe.Capabilities.elements(ft.FromAP(), c.f)
	if err != nil {
		return nil, err
	}

	if ft.carriesSSID() {
		if len(fe.SSID) > 32 {
			return nil, &FieldOverflowError{Record: "FrameElements", Field: "SSID", Width: 32 * 8, Value: uint64(len(fe.SSID))}
		}
		elems = append(elems, Element{ID: ElementIDSSID, Data: []byte(fe.SSID)})
	}
	if fe.MultiLink != nil && c.f.MLO {
		e, err := fe.MultiLink.element(ft)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	sortElements(elems)

	var out []Element
	for _, e := range elems {
		chain := FragmentElement(e)
		c.m.fragments("tx", len(chain.Continuations))
		out = append(out, chain.Elements()...)
	}

	return AppendElements(nil, out...)
}

// Decode decodes the element portion of a frame of type ft.
//
// Decoding is tolerant: an element that fails to decode is logged, counted
// and left out, and the failures are returned joined together alongside the
// rest of the frame's elements. Decode returns a nil *FrameElements only if
// no element at all could be parsed from b.
func (c *Codec) Decode(b []byte, ft FrameType) (*FrameElements, error) {
	raw, err := ParseElements(b)
	c.report(err)
	if len(raw) == 0 && err != nil {
		return nil, err
	}
	errs := []error{err}

	n := 0
	for _, e := range raw {
		if e.ID == ElementIDFragment {
			n++
		}
	}
	c.m.fragments("rx", n)

	var (
		fe   FrameElements
		rest []Element
		ml   bool
	)
	for _, e := range Reassemble(raw) {
		switch k := e.Key(); {
		case k == (ElementKey{ID: ElementIDSSID}):
			fe.SSID = string(e.Data)
		case k == (ElementKey{ID: ElementIDExtension, Extension: ExtensionMultiLink}) && c.f.MLO && !ml:
			ml = true
			m, err := UnmarshalMultiLink(e.Data, ft)
			if err != nil {
				err = &ElementError{ID: e.ID, Extension: e.Extension, Length: e.Len(), Err: err}
				errs = append(errs, err)
			}
			c.done(e, err)
			fe.MultiLink = m
		default:
			rest = append(rest, e)
		}
	}

	s, err := parseCapabilities(rest, ft.FromAP(), c.f, c.done)
	fe.Capabilities = *s
	errs = append(errs, err)

	return &fe, errors.Join(errs...)
}

// done records the decode result of element e.
func (c *Codec) done(e Element, err error) {
	if err == nil {
		c.m.decoded(e.Key())
		return
	}

	c.m.failed(e.Key(), err)
	c.log.Debug("failed to decode element",
		zap.Uint8("element_id", e.ID),
		zap.Uint8("element_ext", e.Extension),
		zap.Int("length", e.Len()),
		zap.Error(err),
	)
}

// report records the framing errors returned by ParseElements.
func (c *Codec) report(err error) {
	if err == nil {
		return
	}

	errs := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	}

	for _, err := range errs {
		var ee *ElementError
		if !errors.As(err, &ee) {
			continue
		}

		k := ElementKey{ID: ee.ID}
		if ee.ID == ElementIDExtension {
			k.Extension = ee.Extension
		}
		c.m.failed(k, err)
		c.log.Debug("failed to parse element",
			zap.Uint8("element_id", ee.ID),
			zap.Uint8("element_ext", ee.Extension),
			zap.Int("length", ee.Length),
			zap.Error(ee.Err),
		)
	}
}
