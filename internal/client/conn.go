package client

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/obs"
	"main/internal/schema"
	"main/internal/wire"
	"main/pkg/exception"
)

// ConnState is the connection lifecycle state.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateHandshaking
	StateReady
)

// String returns the string representation of ConnState.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

const (
	defaultDialTimeout      = 10 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
	readChunkSize           = 4096
)

// connCallbacks hook the connection into the protocol client.
type connCallbacks struct {
	// onMessage receives every post-handshake frame's fields.
	onMessage func(fields []string)
	// onReset fires after any teardown so pending requests can be failed.
	onReset func()
	// onReady fires after each completed handshake (subscription replay).
	onReady func()
}

// Conn owns the TCP socket to one TWS/Gateway endpoint: dialing, the
// handshake state machine, the read loop, and raw frame sends. While not
// ready, inbound frames feed the handshake parser, never the dispatcher.
type Conn struct {
	host             string
	port             int
	clientID         int64
	dialTimeout      time.Duration
	handshakeTimeout time.Duration

	cb      connCallbacks
	metrics *obs.Metrics
	// onFrame observes raw frame payloads for capture; may be nil.
	onFrame func(inbound bool, payload []byte)

	// connectMu serializes Connect attempts.
	connectMu sync.Mutex

	mu            sync.Mutex
	sock          net.Conn
	state         ConnState
	gen           uint64
	serverVersion int64
	connTime      string
	versionCh     chan struct{}
	readyCh       chan struct{}
	sawOrderID    bool
	sawAccounts   bool
	orderID       int64
	accounts      []string
}

func newConn(host string, port int, clientID int64, dialTimeout, handshakeTimeout time.Duration, metrics *obs.Metrics) *Conn {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	return &Conn{
		host:             host,
		port:             port,
		clientID:         clientID,
		dialTimeout:      dialTimeout,
		handshakeTimeout: handshakeTimeout,
		metrics:          metrics,
	}
}

// State returns the current lifecycle state.
func (c *Conn) State() ConnState {
	c.mu.Lock()
	s := c.state
	c.mu.Unlock()
	return s
}

// IsConnected reports whether the handshake has completed.
func (c *Conn) IsConnected() bool {
	return c.State() == StateReady
}

// ServerVersion returns the negotiated server version, 0 before ready.
func (c *Conn) ServerVersion() int64 {
	c.mu.Lock()
	v := c.serverVersion
	c.mu.Unlock()
	return v
}

// ConnectionTime returns the server's connection timestamp string.
func (c *Conn) ConnectionTime() string {
	c.mu.Lock()
	t := c.connTime
	c.mu.Unlock()
	return t
}

// NextOrderID returns the order id announced during the handshake.
func (c *Conn) NextOrderID() int64 {
	c.mu.Lock()
	id := c.orderID
	c.mu.Unlock()
	return id
}

// Accounts returns the managed accounts announced during the handshake.
func (c *Conn) Accounts() []string {
	c.mu.Lock()
	out := make([]string, len(c.accounts))
	copy(out, c.accounts)
	c.mu.Unlock()
	return out
}

// Connect resets any previous session, dials host:port, and runs the
// handshake to completion. It is safe to call repeatedly; only one attempt
// runs at a time. Failure is soft: the caller (or the watchdog) retries.
func (c *Conn) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.Reset()
	c.setState(StateConnecting)

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	dialer := net.Dialer{Timeout: c.dialTimeout, KeepAlive: 30 * time.Second}
	sock, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.setState(StateDisconnected)
		return errors.Wrapf(err, "dial %s", addr)
	}
	if tcpConn, ok := sock.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	c.mu.Lock()
	c.sock = sock
	c.gen++
	gen := c.gen
	c.state = StateHandshaking
	c.versionCh = make(chan struct{})
	c.readyCh = make(chan struct{})
	versionCh, readyCh := c.versionCh, c.readyCh
	c.mu.Unlock()

	go c.readLoop(sock, gen)

	// Preamble: literal API\0 plus the length-prefixed version range.
	preamble := append([]byte(schema.APIPreamble),
		wire.EncodeRaw(nil, []byte(codec.VersionRangePayload()))...)
	if _, err := sock.Write(preamble); err != nil {
		c.Reset()
		return errors.Wrap(err, "send handshake preamble")
	}

	if err := c.awaitSignal(ctx, versionCh); err != nil {
		c.Reset()
		return err
	}

	if _, err := sock.Write(wire.EncodeFields(nil, codec.StartAPIFields(c.clientID)...)); err != nil {
		c.Reset()
		return errors.Wrap(err, "send startApi")
	}

	if err := c.awaitSignal(ctx, readyCh); err != nil {
		c.Reset()
		return err
	}

	if c.metrics != nil {
		c.metrics.IncReconnects()
	}
	logs.Infof("connection: ready, server version %d, client id %d", c.ServerVersion(), c.clientID)
	if c.cb.onReady != nil {
		c.cb.onReady()
	}
	return nil
}

func (c *Conn) awaitSignal(ctx context.Context, ch <-chan struct{}) error {
	timer := time.NewTimer(c.handshakeTimeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-timer.C:
		return exception.ErrHandshakeTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send frames the fields and writes them to the socket. Calling it while
// disconnected logs a wire-level error and drops the message; the caller
// sees the failure as a request timeout, never a panic or an exception.
func (c *Conn) Send(fields ...string) {
	c.mu.Lock()
	sock, state := c.sock, c.state
	c.mu.Unlock()

	if state != StateReady || sock == nil {
		name := "?"
		if len(fields) > 0 {
			name = fields[0]
		}
		logs.Errorf("connection: dropped outbound message %s while %s", name, state)
		return
	}
	frame := wire.EncodeFields(nil, fields...)
	if c.onFrame != nil {
		c.onFrame(false, frame[wire.HeaderSize:])
	}
	if _, err := sock.Write(frame); err != nil {
		logs.Errorf("connection: write, err: %+v", err)
	}
}

// Reset tears the session down: closes the socket, clears handshake
// progress and the negotiated version, and invalidates the read loop.
// Idempotent; pending requests are failed through the onReset hook.
func (c *Conn) Reset() {
	c.mu.Lock()
	wasActive := c.sock != nil || c.state != StateDisconnected
	c.teardownLocked()
	c.mu.Unlock()

	if wasActive && c.cb.onReset != nil {
		c.cb.onReset()
	}
}

func (c *Conn) teardownLocked() {
	c.state = StateDisconnected
	if c.sock != nil {
		_ = c.sock.Close()
		c.sock = nil
	}
	c.gen++
	c.serverVersion = 0
	c.connTime = ""
	c.sawOrderID = false
	c.sawAccounts = false
	if c.metrics != nil {
		c.metrics.IncResets()
	}
}

func (c *Conn) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Watch reconnects whenever the connection has dropped, polling at the
// given interval, until ctx is done.
func (c *Conn) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.IsConnected() {
				continue
			}
			logs.Info("connection: watchdog reconnecting")
			if err := c.Connect(ctx); err != nil {
				logs.Errorf("connection: watchdog connect, err: %+v", err)
			}
		}
	}
}

// readLoop reads chunks, reassembles frames, and routes them. Each
// connection generation gets its own loop and a fresh receive buffer; a
// stale loop tearing down must not touch its successor.
func (c *Conn) readLoop(sock net.Conn, gen uint64) {
	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		n, err := sock.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				payload, rest, derr := wire.DecodeBuffer(buf)
				if derr != nil {
					logs.Errorf("connection: corrupt stream, err: %+v", derr)
					c.teardown(gen)
					return
				}
				buf = rest
				if payload == nil {
					break
				}
				if c.metrics != nil {
					c.metrics.IncFramesDecoded()
				}
				if c.onFrame != nil {
					c.onFrame(true, payload)
				}
				c.route(wire.SplitFields(payload))
			}
		}
		if err != nil {
			if err != io.EOF {
				logs.Errorf("connection: read, err: %+v", err)
			} else {
				logs.Info("connection: server closed the stream")
			}
			c.teardown(gen)
			return
		}
	}
}

// teardown resets the connection only if gen is still the live session.
func (c *Conn) teardown(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.mu.Unlock()

	if c.cb.onReset != nil {
		c.cb.onReset()
	}
}

func (c *Conn) route(fields []string) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateReady:
		if c.cb.onMessage != nil {
			c.cb.onMessage(fields)
		}
	case StateHandshaking:
		c.handshakeFrame(fields)
	default:
		// Frames racing a teardown belong to no session.
	}
}

// handshakeFrame parses frames received before the connection is ready.
// The first frame carries the server version and timestamp; after that,
// ready requires BOTH nextValidId and managedAccounts, in either order.
func (c *Conn) handshakeFrame(fields []string) {
	if len(fields) == 0 {
		return
	}

	c.mu.Lock()
	if c.state != StateHandshaking {
		c.mu.Unlock()
		return
	}
	if c.serverVersion == 0 {
		v, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			c.mu.Unlock()
			logs.Errorf("connection: bad server version %q", fields[0])
			return
		}
		c.serverVersion = v
		if len(fields) > 1 {
			c.connTime = fields[1]
		}
		close(c.versionCh)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	msgID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		logs.Errorf("connection: bad handshake message type %q", fields[0])
		return
	}

	switch schema.IncomingMsgID(msgID) {
	case schema.MsgNextValidID:
		v, err := codec.DecodeNextValidID(fields[1:])
		if err != nil {
			logs.Errorf("connection: decode nextValidId, err: %+v", err)
			return
		}
		c.mu.Lock()
		c.orderID = v.OrderID
		c.sawOrderID = true
		c.maybeReadyLocked()
		c.mu.Unlock()
	case schema.MsgManagedAccounts:
		v, err := codec.DecodeManagedAccounts(fields[1:])
		if err != nil {
			logs.Errorf("connection: decode managedAccounts, err: %+v", err)
			return
		}
		c.mu.Lock()
		c.accounts = v.Accounts
		c.sawAccounts = true
		c.maybeReadyLocked()
		c.mu.Unlock()
	case schema.MsgError:
		if e, err := codec.DecodeServerError(fields[1:]); err == nil {
			logs.Infof("connection: handshake notice %d: %s", e.Code, e.Msg)
		}
	default:
		// Anything else before ready belongs to no one yet.
	}
}

func (c *Conn) maybeReadyLocked() {
	if c.state != StateHandshaking || !c.sawOrderID || !c.sawAccounts {
		return
	}
	c.state = StateReady
	close(c.readyCh)
}
