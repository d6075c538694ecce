package client

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"main/internal/schema"
	"main/internal/wire"
	"main/pkg/exception"
)

// gwSession is one accepted gateway connection.
type gwSession struct {
	conn net.Conn
}

func (s *gwSession) send(fields ...string) {
	_, _ = s.conn.Write(wire.EncodeFields(nil, fields...))
}

func (s *gwSession) drop() {
	_ = s.conn.Close()
}

// fakeGateway speaks just enough of the server side of the protocol to
// exercise the client: preamble, version exchange, startApi, the two
// ready frames, and then scripted responses per request frame.
type fakeGateway struct {
	ln            net.Listener
	accountsFirst bool
	respond       func(s *gwSession, fields []string)
	frames        chan []string
}

func startGateway(t *testing.T, accountsFirst bool, respond func(s *gwSession, fields []string)) *fakeGateway {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	g := &fakeGateway{
		ln:            ln,
		accountsFirst: accountsFirst,
		respond:       respond,
		frames:        make(chan []string, 64),
	}
	go g.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return g
}

func (g *fakeGateway) port() int {
	return g.ln.Addr().(*net.TCPAddr).Port
}

func (g *fakeGateway) serve() {
	for {
		conn, err := g.ln.Accept()
		if err != nil {
			return
		}
		g.session(conn)
	}
}

func (g *fakeGateway) session(conn net.Conn) {
	defer conn.Close()
	s := &gwSession{conn: conn}

	preamble := make([]byte, len(schema.APIPreamble))
	if _, err := io.ReadFull(conn, preamble); err != nil {
		return
	}
	if _, err := readFrame(conn); err != nil { // version range
		return
	}
	s.send("176", "20240102 10:30:00 EST")
	if _, err := readFrame(conn); err != nil { // startApi
		return
	}
	if g.accountsFirst {
		s.send("15", "1", "DU123,DU124")
		s.send("9", "1", "47")
	} else {
		s.send("9", "1", "47")
		s.send("15", "1", "DU123,DU124")
	}

	for {
		fields, err := readFrame(conn)
		if err != nil {
			return
		}
		select {
		case g.frames <- fields:
		default:
		}
		if g.respond != nil {
			g.respond(s, fields)
		}
	}
}

func readFrame(conn net.Conn) ([]string, error) {
	header := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}
	size := int(header[0])<<24 | int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	payload := make([]byte, size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, err
	}
	return wire.SplitFields(payload), nil
}

func gatewayClient(t *testing.T, g *fakeGateway) *Client {
	t.Helper()
	c := New(Config{
		Host:             "127.0.0.1",
		Port:             g.port(),
		ClientID:         7,
		DialTimeout:      time.Second,
		HandshakeTimeout: 2 * time.Second,
		RequestTimeout:   2 * time.Second,
	})
	t.Cleanup(c.Close)
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHandshakeOrderIndependent(t *testing.T) {
	for _, accountsFirst := range []bool{false, true} {
		name := "orderIdFirst"
		if accountsFirst {
			name = "accountsFirst"
		}
		t.Run(name, func(t *testing.T) {
			g := startGateway(t, accountsFirst, nil)
			c := gatewayClient(t, g)

			if err := c.Connect(context.Background()); err != nil {
				t.Fatalf("connect: %v", err)
			}
			if c.State() != StateReady {
				t.Fatalf("expected ready, got %s", c.State())
			}
			if c.ServerVersion() != 176 {
				t.Fatalf("server version mismatch: %d", c.ServerVersion())
			}
			if c.NextOrderID() != 47 {
				t.Fatalf("order id mismatch: %d", c.NextOrderID())
			}
			accounts := c.ManagedAccounts()
			if len(accounts) != 2 || accounts[0] != "DU123" {
				t.Fatalf("accounts mismatch: %v", accounts)
			}
		})
	}
}

func TestContractDetailsRoundTrip(t *testing.T) {
	g := startGateway(t, false, func(s *gwSession, fields []string) {
		if len(fields) < 3 || fields[0] != "9" { // reqContractData
			return
		}
		reqID := fields[2]
		s.send(
			"10", "8", reqID,
			"AAPL", "STK", "", "0", "", "SMART", "USD", "AAPL",
			"NMS", "AAPL", "265598", "0.01", "", "LMT,MKT", "SMART,NYSE",
			"1", "0", "Apple Inc", "NASDAQ", "", "Technology",
			"Computers", "US/Eastern", "", "",
		)
		s.send("52", "1", reqID)
	})
	c := gatewayClient(t, g)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	details, err := c.RequestContractDetails(context.Background(), schema.Contract{
		Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD",
	})
	if err != nil {
		t.Fatalf("RequestContractDetails: %v", err)
	}
	if len(details) != 1 || details[0].Contract.ConID != 265598 {
		t.Fatalf("details mismatch: %+v", details)
	}
}

func TestHeadTimestampNoDataIsNil(t *testing.T) {
	g := startGateway(t, false, func(s *gwSession, fields []string) {
		if len(fields) < 2 || fields[0] != "87" { // reqHeadTimestamp
			return
		}
		s.send("4", "2", fields[1], "162",
			"Historical Market Data Service error message:No head time stamp")
	})
	c := gatewayClient(t, g)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	ts, err := c.RequestHeadTimestamp(context.Background(), schema.Contract{
		Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD",
	}, schema.ShowTrades, true)
	if err != nil {
		t.Fatalf("RequestHeadTimestamp: %v", err)
	}
	if ts != nil {
		t.Fatalf("expected nil head timestamp, got %v", ts)
	}
}

func TestRequestTimesOutWhenGatewaySilent(t *testing.T) {
	g := startGateway(t, false, nil)
	c := gatewayClient(t, g)
	c.cfg.RequestTimeout = 50 * time.Millisecond
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := c.RequestCurrentTime(context.Background()); err != exception.ErrRequestTimeout {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
	if n := c.requests.size(); n != 0 {
		t.Fatalf("timed-out request should be removed, table has %d", n)
	}
}

func TestServerCloseFailsPendingAndAllowsReconnect(t *testing.T) {
	g := startGateway(t, false, func(s *gwSession, fields []string) {
		if fields[0] == "49" { // reqCurrentTime: hang up instead of answering
			s.drop()
		}
	})
	c := gatewayClient(t, g)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := c.RequestCurrentTime(context.Background()); err != exception.ErrConnectionClosed {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
	waitFor(t, "disconnect", func() bool { return c.State() == StateDisconnected })

	// A fresh connect must start from a clean slate.
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("expected ready after reconnect, got %s", c.State())
	}
}

func TestSubscriptionReplayOnReconnect(t *testing.T) {
	g := startGateway(t, false, nil)
	c := gatewayClient(t, g)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := c.SubscribeBars(schema.Contract{
		Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD",
	}, schema.BarSize5Sec, schema.ShowTrades, true, "", func(schema.Bar) {}); err != nil {
		t.Fatalf("SubscribeBars: %v", err)
	}
	waitForRequest(t, g, "50") // reqRealTimeBars

	c.conn.Reset()
	waitFor(t, "disconnect", func() bool { return c.State() == StateDisconnected })
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	// The stored subscribe action replays without caller involvement.
	waitForRequest(t, g, "50")
}

func waitForRequest(t *testing.T, g *fakeGateway, msgType string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case fields := <-g.frames:
			if len(fields) > 0 && fields[0] == msgType {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for message type %s", msgType)
		}
	}
}
