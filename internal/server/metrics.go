package server

import (
	"sync/atomic"
	"time"
)

// Metrics holds server runtime counters. All fields are safe for concurrent use.
type Metrics struct {
	RequestsTotal     atomic.Int64
	ConnectionsTotal  atomic.Int64
	ActiveConnections atomic.Int64
	ParseErrors       atomic.Int64
	ConnErrors        atomic.Int64
	AcceptErrors      atomic.Int64
	HandlerPanics     atomic.Int64
	Errors4xx         atomic.Int64
	Errors5xx         atomic.Int64

	// sum only, no histogram
	TotalLatencyNs atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) ConnOpened() {
	m.ConnectionsTotal.Add(1)
	m.ActiveConnections.Add(1)
}

func (m *Metrics) ConnClosed() {
	m.ActiveConnections.Add(-1)
}

// RecordRequest records a response written back to a client
func (m *Metrics) RecordRequest(statusCode int, duration time.Duration) {
	m.RequestsTotal.Add(1)
	m.TotalLatencyNs.Add(duration.Nanoseconds())

	if statusCode >= 400 && statusCode < 500 {
		m.Errors4xx.Add(1)
	} else if statusCode >= 500 {
		m.Errors5xx.Add(1)
	}
}

func (m *Metrics) AverageLatency() time.Duration {
	total := m.RequestsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.TotalLatencyNs.Load() / total)
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	RequestsTotal     int64         `json:"requests_total"`
	ConnectionsTotal  int64         `json:"connections_total"`
	ActiveConnections int64         `json:"active_connections"`
	ParseErrors       int64         `json:"parse_errors"`
	ConnErrors        int64         `json:"conn_errors"`
	AcceptErrors      int64         `json:"accept_errors"`
	HandlerPanics     int64         `json:"handler_panics"`
	Errors4xx         int64         `json:"errors_4xx"`
	Errors5xx         int64         `json:"errors_5xx"`
	AverageLatency    time.Duration `json:"average_latency_ns"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:     m.RequestsTotal.Load(),
		ConnectionsTotal:  m.ConnectionsTotal.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		ParseErrors:       m.ParseErrors.Load(),
		ConnErrors:        m.ConnErrors.Load(),
		AcceptErrors:      m.AcceptErrors.Load(),
		HandlerPanics:     m.HandlerPanics.Load(),
		Errors4xx:         m.Errors4xx.Load(),
		Errors5xx:         m.Errors5xx.Load(),
		AverageLatency:    m.AverageLatency(),
	}
}
