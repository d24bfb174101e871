// Package traffic tracks aggregate and per-session connection statistics for
// the line adapter and persists periodic snapshots.
package traffic

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/linefs/pkg/metrics"
)

// Traffic holds aggregate byte counters.
type Traffic struct {
	Received uint64 `json:"received"`
	Sent     uint64 `json:"sent"`
}

// ClientStats is the per-session entry of a Snapshot.
type ClientStats struct {
	ID             string    `json:"id"`
	IP             string    `json:"ip"`
	Messages       uint64    `json:"messages"`
	BytesReceived  uint64    `json:"bytesReceived"`
	BytesSent      uint64    `json:"bytesSent"`
	ConnectedSince time.Time `json:"connectedSince"`
	LastActivity   time.Time `json:"lastActivity"`
}

// Snapshot is an immutable copy of the monitor state.
type Snapshot struct {
	ActiveConnections int           `json:"activeConnections"`
	TotalConnections  uint64        `json:"totalConnections"`
	TotalMessages     uint64        `json:"totalMessages"`
	Traffic           Traffic       `json:"traffic"`
	StartTime         time.Time     `json:"startTime"`
	Uptime            string        `json:"uptime"`
	ActiveClients     []ClientStats `json:"activeClients"`
}

type sessionCounters struct {
	ip            string
	messages      uint64
	bytesReceived uint64
	bytesSent     uint64
	connectedAt   time.Time
	lastActivity  time.Time
}

// Monitor is the single owner of traffic state.
//
// All mutations are serialized by one mutex. A Monitor is created once per
// server and shared by pointer with every session.
type Monitor struct {
	mu sync.Mutex

	startTime        time.Time
	active           int
	totalConnections uint64
	totalMessages    uint64
	received         uint64
	sent             uint64
	sessions         map[string]*sessionCounters

	metrics metrics.TrafficMetrics
	now     func() time.Time
}

// NewMonitor creates a Monitor. m may be nil to disable metrics.
func NewMonitor(m metrics.TrafficMetrics) *Monitor {
	now := time.Now
	return &Monitor{
		startTime: now(),
		sessions:  make(map[string]*sessionCounters),
		metrics:   m,
		now:       now,
	}
}

// ConnectionEstablished registers a new session.
func (m *Monitor) ConnectionEstablished(id, ip string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.sessions[id]; !exists {
		m.active++
	}
	m.totalConnections++
	m.sessions[id] = &sessionCounters{ip: ip, connectedAt: now, lastActivity: now}

	if m.metrics != nil {
		m.metrics.SetActiveSessions(m.active)
	}
}

// ConnectionClosed removes a session. Unknown ids are ignored, so repeated or
// out-of-order closes never drive the active count negative.
func (m *Monitor) ConnectionClosed(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return
	}
	delete(m.sessions, id)
	m.active--

	if m.metrics != nil {
		m.metrics.SetActiveSessions(m.active)
	}
}

// MessageReceived records one inbound frame of n bytes.
func (m *Monitor) MessageReceived(id string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalMessages++
	m.received += uint64(n)
	if s, ok := m.sessions[id]; ok {
		s.messages++
		s.bytesReceived += uint64(n)
		s.lastActivity = m.now()
	}

	if m.metrics != nil {
		m.metrics.RecordReceived(n)
	}
}

// MessageSent records one outbound frame of n bytes.
func (m *Monitor) MessageSent(id string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent += uint64(n)
	if s, ok := m.sessions[id]; ok {
		s.bytesSent += uint64(n)
	}

	if m.metrics != nil {
		m.metrics.RecordSent(n)
	}
}

// ActiveConnections returns the current number of tracked sessions.
func (m *Monitor) ActiveConnections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Stats returns a consistent snapshot. Clients are ordered by connect time.
func (m *Monitor) Stats() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	clients := make([]ClientStats, 0, len(m.sessions))
	for id, s := range m.sessions {
		clients = append(clients, ClientStats{
			ID:             id,
			IP:             s.ip,
			Messages:       s.messages,
			BytesReceived:  s.bytesReceived,
			BytesSent:      s.bytesSent,
			ConnectedSince: s.connectedAt,
			LastActivity:   s.lastActivity,
		})
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].ConnectedSince.Equal(clients[j].ConnectedSince) {
			return clients[i].ID < clients[j].ID
		}
		return clients[i].ConnectedSince.Before(clients[j].ConnectedSince)
	})

	return Snapshot{
		ActiveConnections: m.active,
		TotalConnections:  m.totalConnections,
		TotalMessages:     m.totalMessages,
		Traffic:           Traffic{Received: m.received, Sent: m.sent},
		StartTime:         m.startTime,
		Uptime:            FormatUptime(m.now().Sub(m.startTime)),
		ActiveClients:     clients,
	}
}

// FormatUptime renders d as "<days>d <hours>h <minutes>m <seconds>s".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
