// Package obs collects lightweight counters and latency stats for the
// protocol client. All methods are nil-safe so callers can run unmetered.
package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

// Metrics counts wire and dispatch activity for one client.
type Metrics struct {
	framesDecoded uint64
	dispatched    map[schema.IncomingMsgID]*uint64
	unknownMsgs   uint64

	reconnects      uint64
	resets          uint64
	requestTimeouts uint64
	lateResponses   uint64
	eventDrops      uint64

	requestLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// Observe records one duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	ns := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, ns)
	for {
		cur := atomic.LoadUint64(&l.min)
		if cur != 0 && ns >= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, cur, ns) {
			break
		}
	}
	for {
		cur := atomic.LoadUint64(&l.max)
		if ns <= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, cur, ns) {
			break
		}
	}
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

func (l *LatencyStats) snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	s := LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
	}
	if count > 0 {
		s.Avg = time.Duration(atomic.LoadUint64(&l.sum) / count)
	}
	return s
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	FramesDecoded   uint64
	Dispatched      map[schema.IncomingMsgID]uint64
	UnknownMsgs     uint64
	Reconnects      uint64
	Resets          uint64
	RequestTimeouts uint64
	LateResponses   uint64
	EventDrops      uint64
	RequestLatency  LatencySnapshot
}

var knownMsgIDs = []schema.IncomingMsgID{
	schema.MsgTickPrice, schema.MsgTickSize, schema.MsgOrderStatus,
	schema.MsgError, schema.MsgOpenOrder, schema.MsgAccountValue,
	schema.MsgPortfolioValue, schema.MsgAccountUpdateTime,
	schema.MsgNextValidID, schema.MsgContractData, schema.MsgExecutionData,
	schema.MsgManagedAccounts, schema.MsgHistoricalData,
	schema.MsgAccountDownloadEnd, schema.MsgRealTimeBar,
	schema.MsgContractDataEnd, schema.MsgOpenOrderEnd,
	schema.MsgExecutionDataEnd, schema.MsgCommissionReport,
	schema.MsgPosition, schema.MsgPositionEnd, schema.MsgHeadTimestamp,
	schema.MsgHistoricalDataUpdate, schema.MsgHistoricalTicksMid,
	schema.MsgHistoricalTicksBid, schema.MsgHistoricalTicksLast,
	schema.MsgOrderBound,
}

// NewMetrics allocates a metrics container with one counter per known
// inbound message type.
func NewMetrics() *Metrics {
	m := &Metrics{dispatched: make(map[schema.IncomingMsgID]*uint64, len(knownMsgIDs))}
	for _, id := range knownMsgIDs {
		m.dispatched[id] = new(uint64)
	}
	return m
}

// IncFramesDecoded records one decoded wire frame.
func (m *Metrics) IncFramesDecoded() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.framesDecoded, 1)
}

// IncDispatched records one dispatched message by type.
func (m *Metrics) IncDispatched(id schema.IncomingMsgID) {
	if m == nil {
		return
	}
	counter, ok := m.dispatched[id]
	if !ok {
		atomic.AddUint64(&m.unknownMsgs, 1)
		return
	}
	atomic.AddUint64(counter, 1)
}

// IncUnknownMsg records a message with an unrecognized type code.
func (m *Metrics) IncUnknownMsg() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.unknownMsgs, 1)
}

// IncReconnects records a completed handshake.
func (m *Metrics) IncReconnects() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.reconnects, 1)
}

// IncResets records a connection teardown.
func (m *Metrics) IncResets() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.resets, 1)
}

// IncRequestTimeouts records a request that expired with no response.
func (m *Metrics) IncRequestTimeouts() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.requestTimeouts, 1)
}

// IncLateResponses records a response for an id with no pending entry.
func (m *Metrics) IncLateResponses() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.lateResponses, 1)
}

// IncEventDrops records an unsolicited event dropped by a full queue.
func (m *Metrics) IncEventDrops() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.eventDrops, 1)
}

// ObserveRequest measures one request's issue-to-resolution latency.
func (m *Metrics) ObserveRequest(d time.Duration) {
	if m == nil {
		return
	}
	m.requestLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	dispatched := make(map[schema.IncomingMsgID]uint64, len(m.dispatched))
	for id, counter := range m.dispatched {
		if v := atomic.LoadUint64(counter); v > 0 {
			dispatched[id] = v
		}
	}
	return Snapshot{
		FramesDecoded:   atomic.LoadUint64(&m.framesDecoded),
		Dispatched:      dispatched,
		UnknownMsgs:     atomic.LoadUint64(&m.unknownMsgs),
		Reconnects:      atomic.LoadUint64(&m.reconnects),
		Resets:          atomic.LoadUint64(&m.resets),
		RequestTimeouts: atomic.LoadUint64(&m.requestTimeouts),
		LateResponses:   atomic.LoadUint64(&m.lateResponses),
		EventDrops:      atomic.LoadUint64(&m.eventDrops),
		RequestLatency:  m.requestLatency.snapshot(),
	}
}
