package esper

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// clientMetrics groups the per-operation counters exposed by a Client,
// following the grouped-anonymous-struct convention of
// pkg/api/api0/metrics.go.
type clientMetrics struct {
	set *metrics.Set

	requestsSentTotal      map[MessageType]*metrics.Counter
	responsesReceivedTotal map[MessageType]*metrics.Counter
	timeoutsTotal          map[MessageType]*metrics.Counter
	mismatchesTotal        map[MessageType]*metrics.Counter
	crcFailuresTotal       map[MessageType]*metrics.Counter
	linkErrorsTotal        map[MessageType]*metrics.Counter
}

func newClientMetrics() *clientMetrics {
	return &clientMetrics{
		set:                    metrics.NewSet(),
		requestsSentTotal:      make(map[MessageType]*metrics.Counter),
		responsesReceivedTotal: make(map[MessageType]*metrics.Counter),
		timeoutsTotal:          make(map[MessageType]*metrics.Counter),
		mismatchesTotal:        make(map[MessageType]*metrics.Counter),
		crcFailuresTotal:       make(map[MessageType]*metrics.Counter),
		linkErrorsTotal:        make(map[MessageType]*metrics.Counter),
	}
}

func (m *clientMetrics) counterFor(group map[MessageType]*metrics.Counter, name string, mt MessageType) *metrics.Counter {
	if c, ok := group[mt]; ok {
		return c
	}
	c := m.set.NewCounter(name + `{msg_type="` + mt.String() + `"}`)
	group[mt] = c
	return c
}

func (m *clientMetrics) requestsSent(mt MessageType) {
	m.counterFor(m.requestsSentTotal, "esper_client_requests_sent_total", mt).Inc()
}

func (m *clientMetrics) responsesReceived(mt MessageType) {
	m.counterFor(m.responsesReceivedTotal, "esper_client_responses_received_total", mt).Inc()
}

func (m *clientMetrics) timeouts(mt MessageType) {
	m.counterFor(m.timeoutsTotal, "esper_client_timeouts_total", mt).Inc()
}

func (m *clientMetrics) mismatches(mt MessageType) {
	m.counterFor(m.mismatchesTotal, "esper_client_mismatches_total", mt).Inc()
}

func (m *clientMetrics) crcFailures(mt MessageType) {
	m.counterFor(m.crcFailuresTotal, "esper_client_crc_failures_total", mt).Inc()
}

func (m *clientMetrics) linkErrors(mt MessageType) {
	m.counterFor(m.linkErrorsTotal, "esper_client_link_errors_total", mt).Inc()
}

// WritePrometheus writes this client's metrics in Prometheus text exposition
// format to w, mirroring nspkt.Listener.WritePrometheus.
func (c *Client) WritePrometheus(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}
