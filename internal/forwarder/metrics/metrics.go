package metrics

import "sync/atomic"

// Metrics are process-local delivery counters. They reset on restart.
type Metrics struct {
	enqueued  atomic.Int64
	delivered atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// Snapshot
// @Description Delivery counters since the forwarder started.
type Snapshot struct {
	Enqueued     int64 `json:"enqueued"`
	Delivered    int64 `json:"delivered"`
	Retried      int64 `json:"retried"`
	Failed       int64 `json:"failed"`
	OfflinePolls int64 `json:"offlinePolls"`
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Enqueued() { m.enqueued.Add(1) }

func (m *Metrics) Delivered() { m.delivered.Add(1) }

func (m *Metrics) Retried() { m.retried.Add(1) }

func (m *Metrics) Failed() { m.failed.Add(1) }

func (m *Metrics) OfflinePoll() { m.skipped.Add(1) }

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Enqueued:     m.enqueued.Load(),
		Delivered:    m.delivered.Load(),
		Retried:      m.retried.Load(),
		Failed:       m.failed.Load(),
		OfflinePolls: m.skipped.Load(),
	}
}
