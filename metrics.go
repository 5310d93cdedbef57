package budgetgrid

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts batcher activity. All counters are labelled by event type.
type Metrics struct {
	Submitted  *prometheus.CounterVec
	Dispatched *prometheus.CounterVec
	Coalesced  *prometheus.CounterVec
	Failed     *prometheus.CounterVec
}

// NewMetrics creates the batcher collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "budgetgrid",
			Name:      "events_submitted_total",
			Help:      "Table change events submitted to the batcher.",
		}, []string{"type"}),
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "budgetgrid",
			Name:      "dispatches_total",
			Help:      "Consolidated events handed to the change handler.",
		}, []string{"type"}),
		Coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "budgetgrid",
			Name:      "events_coalesced_total",
			Help:      "Submitted events merged into another event's dispatch.",
		}, []string{"type"}),
		Failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "budgetgrid",
			Name:      "dispatch_failures_total",
			Help:      "Dispatches whose consolidation or handler failed.",
		}, []string{"type"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Submitted, m.Dispatched, m.Coalesced, m.Failed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) submitted(t EventType) {
	if m != nil {
		m.Submitted.WithLabelValues(string(t)).Inc()
	}
}

func (m *Metrics) dispatched(d Dispatch) {
	if m == nil {
		return
	}
	t := string(d.Type())
	m.Dispatched.WithLabelValues(t).Inc()
	if n := len(d.Actions) - 1; n > 0 {
		m.Coalesced.WithLabelValues(t).Add(float64(n))
	}
}

func (m *Metrics) failed(t EventType) {
	if m != nil {
		m.Failed.WithLabelValues(string(t)).Inc()
	}
}
