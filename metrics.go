package wifi

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters updated by a Codec. A nil *Metrics disables
// them.
type Metrics struct {
	// ElementsDecoded counts elements decoded into records, by element kind.
	ElementsDecoded *prometheus.CounterVec

	// ElementErrors counts elements that failed to decode, by element kind
	// and reason.
	ElementErrors *prometheus.CounterVec

	// Fragments counts Fragment elements, by direction ("rx" or "tx").
	Fragments *prometheus.CounterVec
}

// NewMetrics creates the codec counters and registers them with reg. If reg is
// nil the counters are created but not registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ElementsDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wlancodec",
				Name:      "elements_decoded_total",
				Help:      "Total number of information elements decoded",
			},
			[]string{"element"},
		),
		ElementErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wlancodec",
				Name:      "element_errors_total",
				Help:      "Total number of information elements that failed to decode",
			},
			[]string{"element", "reason"},
		),
		Fragments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wlancodec",
				Name:      "fragments_total",
				Help:      "Total number of Fragment elements received or sent",
			},
			[]string{"direction"},
		),
	}
	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.ElementsDecoded, m.ElementErrors, m.Fragments} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) decoded(k ElementKey) {
	if m == nil {
		return
	}
	m.ElementsDecoded.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) failed(k ElementKey, err error) {
	if m == nil {
		return
	}
	m.ElementErrors.WithLabelValues(k.String(), errorReason(err)).Inc()
}

func (m *Metrics) fragments(direction string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Fragments.WithLabelValues(direction).Add(float64(n))
}

// errorReason returns a bounded label value for err.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrTruncatedMcsMap):
		return "truncated_mcs_map"
	case errors.Is(err, ErrMalformedElement):
		return "malformed"
	case errors.Is(err, ErrElementTooLong):
		return "too_long"
	case errors.Is(err, ErrFieldOverflow):
		return "field_overflow"
	default:
		return "other"
	}
}
