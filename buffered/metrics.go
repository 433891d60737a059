// SPDX-License-Identifier: EPL-2.0

package buffered

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by buffered readers. One
// Metrics value may be shared by many readers; the fill level then reflects
// whichever reader updated it last.
type Metrics struct {
	framesProduced prometheus.Counter
	framesConsumed prometheus.Counter
	underruns      prometheus.Counter
	fillLevel      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		framesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audstream",
			Subsystem: "buffered",
			Name:      "frames_produced_total",
			Help:      "Frames read from the source into the buffer",
		}),
		framesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audstream",
			Subsystem: "buffered",
			Name:      "frames_consumed_total",
			Help:      "Frames handed to consumers",
		}),
		underruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "audstream",
			Subsystem: "buffered",
			Name:      "underruns_total",
			Help:      "Reads that asked for more frames than were buffered",
		}),
		fillLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "audstream",
			Subsystem: "buffered",
			Name:      "fill_ratio",
			Help:      "Fraction of the buffer holding unread frames",
		}),
	}

	for _, c := range []prometheus.Collector{m.framesProduced, m.framesConsumed, m.underruns, m.fillLevel} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) produced(frames int) {
	if m == nil {
		return
	}
	m.framesProduced.Add(float64(frames))
}

func (m *Metrics) consumed(frames int) {
	if m == nil {
		return
	}
	m.framesConsumed.Add(float64(frames))
}

func (m *Metrics) underrun() {
	if m == nil {
		return
	}
	m.underruns.Inc()
}

func (m *Metrics) fill(readSpace, capacity int) {
	if m == nil || capacity == 0 {
		return
	}
	m.fillLevel.Set(float64(readSpace) / float64(capacity))
}
