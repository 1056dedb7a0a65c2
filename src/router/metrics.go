package router

import "sync/atomic"

type MetricsSnapshot struct {
	Received   int64 `json:"received"`
	Matched    int64 `json:"matched"`
	Unmatched  int64 `json:"unmatched"`
	Sent       int64 `json:"sent"`
	SendErrors int64 `json:"send_errors"`
}

type Metrics struct {
	received   atomic.Int64
	matched    atomic.Int64
	unmatched  atomic.Int64
	sent       atomic.Int64
	sendErrors atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordReceived()  { m.received.Add(1) }
func (m *Metrics) RecordMatched()   { m.matched.Add(1) }
func (m *Metrics) RecordUnmatched() { m.unmatched.Add(1) }
func (m *Metrics) RecordSent()      { m.sent.Add(1) }
func (m *Metrics) RecordSendError() { m.sendErrors.Add(1) }

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Received:   m.received.Load(),
		Matched:    m.matched.Load(),
		Unmatched:  m.unmatched.Load(),
		Sent:       m.sent.Load(),
		SendErrors: m.sendErrors.Load(),
	}
}
