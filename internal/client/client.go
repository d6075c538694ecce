// Package client implements the TWS protocol client: one TCP session,
// a request correlation table, a subscription table, and the dispatcher
// that ties them together.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/obs"
	"main/pkg/exception"
)

const defaultEventQueueSize = 256

// Config holds the connection parameters for one client session.
type Config struct {
	// Host and Port locate the TWS/Gateway endpoint. Required.
	Host string
	Port int
	// ClientID distinguishes this session from siblings on the same
	// gateway. Required, small positive integer.
	ClientID int64

	// DialTimeout bounds the TCP dial. Optional; default 10s.
	DialTimeout time.Duration
	// HandshakeTimeout bounds each handshake phase. Optional; default 5s.
	HandshakeTimeout time.Duration
	// RequestTimeout is the default per-request timeout; 0 waits forever.
	RequestTimeout time.Duration
	// WatchInterval enables the reconnect watchdog when >0.
	WatchInterval time.Duration
	// EventQueueSize caps the unsolicited event queue. Optional; default 256.
	EventQueueSize int
	// OnFrame observes every raw frame payload, inbound and outbound.
	// Optional; used for tape capture. Must not block.
	OnFrame func(inbound bool, payload []byte)
}

// Client is the protocol façade. All request methods are safe for
// concurrent use; they multiplex over the one connection by request id.
type Client struct {
	cfg      Config
	conn     *Conn
	requests *requestTable
	subs     *subscriptionTable
	feed     *bus.Feed
	queue    *bus.Queue
	metrics  *obs.Metrics

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
}

// New builds a client; no I/O happens until Connect.
func New(cfg Config) *Client {
	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = defaultEventQueueSize
	}
	metrics := obs.NewMetrics()
	c := &Client{
		cfg:      cfg,
		requests: newRequestTable(),
		subs:     newSubscriptionTable(),
		feed:     bus.NewFeed(),
		queue:    bus.NewQueue(cfg.EventQueueSize),
		metrics:  metrics,
	}
	c.conn = newConn(cfg.Host, cfg.Port, cfg.ClientID, cfg.DialTimeout, cfg.HandshakeTimeout, metrics)
	c.conn.onFrame = cfg.OnFrame
	c.conn.cb = connCallbacks{
		onMessage: c.handleMessage,
		onReset:   c.onReset,
		onReady:   c.onReady,
	}
	return c
}

// Connect establishes the session and, if configured, starts the
// reconnect watchdog.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.conn.Connect(ctx); err != nil {
		return err
	}
	if c.cfg.WatchInterval > 0 {
		c.watchMu.Lock()
		if c.watchCancel == nil {
			watchCtx, cancel := context.WithCancel(context.Background())
			c.watchCancel = cancel
			go c.conn.Watch(watchCtx, c.cfg.WatchInterval)
		}
		c.watchMu.Unlock()
	}
	return nil
}

// Close stops the watchdog and tears the connection down. Pending
// requests fail with exception.ErrConnectionClosed.
func (c *Client) Close() {
	c.watchMu.Lock()
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}
	c.watchMu.Unlock()
	c.conn.Reset()
	c.queue.Close()
}

// IsConnected reports whether the session is ready.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// State returns the connection state.
func (c *Client) State() ConnState {
	return c.conn.State()
}

// ServerVersion returns the negotiated server version.
func (c *Client) ServerVersion() int64 {
	return c.conn.ServerVersion()
}

// ManagedAccounts returns the accounts announced during the handshake.
func (c *Client) ManagedAccounts() []string {
	return c.conn.Accounts()
}

// NextOrderID returns the order id announced during the handshake.
func (c *Client) NextOrderID() int64 {
	return c.conn.NextOrderID()
}

// Events exposes the bounded unsolicited-event queue.
func (c *Client) Events() <-chan bus.Event {
	return c.queue.Events()
}

// Attach registers an unsolicited-event handler, invoked synchronously in
// registration order by the read loop. Handlers must not block.
func (c *Client) Attach(h bus.Handler) (detach func()) {
	return c.feed.Attach(h)
}

// Metrics returns a snapshot of the client's counters.
func (c *Client) Metrics() obs.Snapshot {
	return c.metrics.Snapshot()
}

// onReset fails every in-flight request so no caller hangs across a
// disconnect, even with no per-request timeout set.
func (c *Client) onReset() {
	if n := c.requests.failAll(exception.ErrConnectionClosed); n > 0 {
		logs.Infof("client: failed %d in-flight requests on reset", n)
	}
}

// onReady replays every stored subscribe action after a reconnect so
// streams resume without caller involvement.
func (c *Client) onReady() {
	subs := c.subs.snapshot()
	for _, sub := range subs {
		if err := sub.subscribe(); err != nil {
			logs.Errorf("client: replay %s, err: %+v", sub.name, err)
		}
	}
	if len(subs) > 0 {
		logs.Infof("client: replayed %d subscriptions", len(subs))
	}
}

// publish fans an unsolicited event out to handlers and the queue.
func (c *Client) publish(e bus.Event) {
	c.feed.Publish(e)
	if err := c.queue.TryPublish(e); err != nil {
		c.metrics.IncEventDrops()
	}
}

func (c *Client) timeout(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return c.cfg.RequestTimeout
}
