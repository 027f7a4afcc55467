// Package observability aggregates realtime counters for the telemetry
// worker and the debug surface.
package observability

import "sync/atomic"

// Metrics counts core outcomes. All counters are monotonic and safe for
// concurrent use.
type Metrics struct {
	delivered          uint64
	dropped            uint64
	missed             uint64
	saved              uint64
	validationFailures uint64
	censoredMessages   uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncrDelivered counts one frame pushed to one connection.
func (m *Metrics) IncrDelivered() { atomic.AddUint64(&m.delivered, 1) }

// IncrDropped counts one frame lost to a slow or dead connection.
func (m *Metrics) IncrDropped() { atomic.AddUint64(&m.dropped, 1) }

// IncrMissed counts one delivery whose target had no active connection.
func (m *Metrics) IncrMissed() { atomic.AddUint64(&m.missed, 1) }

// IncrSaved counts one durably persisted message.
func (m *Metrics) IncrSaved() { atomic.AddUint64(&m.saved, 1) }

// IncrValidationFailure counts one event rejected before persistence.
func (m *Metrics) IncrValidationFailure() { atomic.AddUint64(&m.validationFailures, 1) }

// IncrCensored counts one message whose text was masked by moderation.
func (m *Metrics) IncrCensored() { atomic.AddUint64(&m.censoredMessages, 1) }

// Snapshot returns a consistent-enough copy for logging and the debug page.
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"delivered":           atomic.LoadUint64(&m.delivered),
		"dropped":             atomic.LoadUint64(&m.dropped),
		"missed":              atomic.LoadUint64(&m.missed),
		"saved":               atomic.LoadUint64(&m.saved),
		"validation_failures": atomic.LoadUint64(&m.validationFailures),
		"censored_messages":   atomic.LoadUint64(&m.censoredMessages),
	}
}
