package client

import (
	"context"
	"testing"

	"main/internal/bus"
	"main/internal/schema"
)

func newTestClient() *Client {
	return New(Config{Host: "127.0.0.1", Port: 4002, ClientID: 1})
}

// drainEvent returns the next queued unsolicited event, if any.
func drainEvent(c *Client) (bus.Event, bool) {
	select {
	case e := <-c.Events():
		return e, true
	default:
		return bus.Event{}, false
	}
}

func TestDispatchContractDetailsAccumulate(t *testing.T) {
	c := newTestClient()
	p, err := c.requests.create(-11, "contractDetails", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	row := func(symbol string) []string {
		return []string{
			"10", "8", "-11",
			symbol, "STK", "", "0", "", "SMART", "USD", symbol,
			"NMS", symbol, "265598", "0.01", "", "LMT,MKT", "SMART,NYSE",
			"1", "0", "Apple Inc", "NASDAQ", "", "Technology",
			"Computers", "US/Eastern", "", "",
		}
	}
	c.handleMessage(row("AAPL"))
	c.handleMessage(row("AAPL2"))
	c.handleMessage(row("AAPL3"))
	c.handleMessage([]string{"52", "1", "-11"})

	v, err := c.requests.await(context.Background(), p)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	details := collect[schema.ContractDetails](v)
	if len(details) != 3 {
		t.Fatalf("expected 3 contract details, got %d", len(details))
	}
	if details[0].Contract.Symbol != "AAPL" || details[0].LongName != "Apple Inc" {
		t.Fatalf("first detail mismatch: %+v", details[0])
	}
}

func TestDispatchCurrentTime(t *testing.T) {
	c := newTestClient()
	p, err := c.requests.create(schema.ReqIDCurrentTime, "currentTime", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.handleMessage([]string{"49", "1", "1700000000"})

	v, err := c.requests.await(context.Background(), p)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if v.(int64) != 1700000000 {
		t.Fatalf("expected epoch 1700000000, got %v", v)
	}
}

func TestDispatchHistoricalDataResolvesRequest(t *testing.T) {
	c := newTestClient()
	p, err := c.requests.create(-11, "historicalData", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.handleMessage([]string{
		"17", "-11", "20240101-00:00:00", "20240102-00:00:00", "2",
		"1704067200", "100", "101", "99", "100.5", "1200", "100.2", "34",
		"1704067260", "100.5", "102", "100", "101.5", "900", "101.1", "28",
	})

	v, err := c.requests.await(context.Background(), p)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	bars, ok := v.([]schema.Bar)
	if !ok || len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %v", v)
	}
	if bars[0].Open != 100 || bars[1].Close != 101.5 {
		t.Fatalf("bar values mismatch: %+v", bars)
	}
}

func TestDispatchHistoricalDataFeedsSubscription(t *testing.T) {
	c := newTestClient()
	var got []schema.Bar
	err := c.subs.add(&subscription{
		id:        -11,
		name:      "bars",
		subscribe: func() error { return nil },
		cancel:    func() error { return nil },
		callback: func(event any) {
			if bar, ok := event.(schema.Bar); ok {
				got = append(got, bar)
			}
		},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Warmup snapshot, then a streaming update on the same id.
	c.handleMessage([]string{
		"17", "-11", "20240101-00:00:00", "20240102-00:00:00", "1",
		"1704067200", "100", "101", "99", "100.5", "1200", "100.2", "34",
	})
	c.handleMessage([]string{
		"90", "-11", "1",
		"1704067260", "100.5", "102", "100", "101.5", "900", "101.1", "28",
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 bars through the subscription, got %d", len(got))
	}
}

func TestDispatchRealTimeBar(t *testing.T) {
	c := newTestClient()
	var got []schema.Bar
	err := c.subs.add(&subscription{
		id:        -11,
		name:      "rtBars",
		subscribe: func() error { return nil },
		cancel:    func() error { return nil },
		callback: func(event any) {
			if bar, ok := event.(schema.Bar); ok {
				got = append(got, bar)
			}
		},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	c.handleMessage([]string{"50", "3", "-11", "1704067200", "100", "101", "99", "100.5", "1200", "100.2", "34"})

	if len(got) != 1 {
		t.Fatalf("expected 1 realtime bar, got %d", len(got))
	}
	if got[0].BarCount != 34 {
		t.Fatalf("bar count mismatch: %+v", got[0])
	}
}

func TestErrorPolicyNotice(t *testing.T) {
	c := newTestClient()
	c.handleMessage([]string{"4", "2", "-1", "2104", "Market data farm connection is OK"})

	if _, ok := drainEvent(c); ok {
		t.Fatal("a no-id notice must not become an event")
	}
}

func TestErrorPolicyWarningKeepsRequestPending(t *testing.T) {
	c := newTestClient()
	if _, err := c.requests.create(-11, "historicalData", 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	c.handleMessage([]string{"4", "2", "-11", "2109", "Order Event Warning: attribute ignored"})

	if !c.requests.has(-11) {
		t.Fatal("a warning must not fail the pending request")
	}
	if _, ok := drainEvent(c); ok {
		t.Fatal("a warning must not become an event")
	}
}

func TestErrorPolicyFailsPendingRequest(t *testing.T) {
	c := newTestClient()
	p, err := c.requests.create(-11, "contractDetails", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.handleMessage([]string{"4", "2", "-11", "200", "No security definition has been found"})

	_, err = c.requests.await(context.Background(), p)
	serverErr, ok := err.(*schema.ServerError)
	if !ok {
		t.Fatalf("expected *schema.ServerError, got %v", err)
	}
	if serverErr.Code != 200 || serverErr.ReqID != -11 {
		t.Fatalf("server error mismatch: %+v", serverErr)
	}
	if _, ok := drainEvent(c); ok {
		t.Fatal("a correlated error must not also become an event")
	}
}

func TestErrorPolicyUnsolicitedEvent(t *testing.T) {
	c := newTestClient()
	c.handleMessage([]string{"4", "2", "-99", "1100", "Connectivity between IB and TWS has been lost"})

	e, ok := drainEvent(c)
	if !ok {
		t.Fatal("an uncorrelated error should surface as an event")
	}
	if e.Kind != bus.EventError || e.Err == nil || e.Err.Code != 1100 {
		t.Fatalf("event mismatch: %+v", e)
	}
}

func TestExecutionRouting(t *testing.T) {
	c := newTestClient()
	row := []string{
		"11", "-2", "7", "265598", "AAPL", "STK", "", "0", "", "",
		"SMART", "USD", "AAPL", "AAPL",
		"0001f4e8.655084.01.01", "20240102 10:30:00", "DU123", "NASDAQ",
		"BOT", "100", "185.5", "912345678",
	}

	// Push outside a fetch surfaces as an event.
	c.handleMessage(row)
	e, ok := drainEvent(c)
	if !ok || e.Kind != bus.EventExecution {
		t.Fatalf("expected an execution event, got %+v", e)
	}
	if e.Execution.ExecID != "0001f4e8.655084.01.01" {
		t.Fatalf("execution mismatch: %+v", e.Execution)
	}

	// The same row during a fetch accumulates on the reserved id.
	p, err := c.requests.create(schema.ReqIDExecutions, "executions", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c.handleMessage(row)
	c.handleMessage([]string{"55", "1", "-2"})

	v, err := c.requests.await(context.Background(), p)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	execs := collect[schema.Execution](v)
	if len(execs) != 1 || execs[0].Side != "BOT" {
		t.Fatalf("expected 1 accumulated execution, got %v", v)
	}
	if _, ok := drainEvent(c); ok {
		t.Fatal("a fetch row must not also become an event")
	}
}

func TestAccountValueRouting(t *testing.T) {
	c := newTestClient()
	row := []string{"6", "2", "NetLiquidation", "100000.00", "USD", "DU123"}

	// No subscription: unsolicited event.
	c.handleMessage(row)
	e, ok := drainEvent(c)
	if !ok || e.Kind != bus.EventAccountValue {
		t.Fatalf("expected an account value event, got %+v", e)
	}

	// With the account stream open, rows go to its callback instead.
	var got []any
	err := c.subs.add(&subscription{
		id:        schema.ReqIDAccountData,
		name:      "accountUpdates",
		subscribe: func() error { return nil },
		cancel:    func() error { return nil },
		callback:  func(event any) { got = append(got, event) },
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	c.handleMessage(row)
	if len(got) != 1 {
		t.Fatalf("expected the row on the subscription, got %d", len(got))
	}
	if _, ok := drainEvent(c); ok {
		t.Fatal("a subscribed row must not also become an event")
	}
}

func TestPositionsAccumulate(t *testing.T) {
	c := newTestClient()
	p, err := c.requests.create(schema.ReqIDPositions, "positions", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.handleMessage([]string{
		"61", "3", "DU123", "265598", "AAPL", "STK", "", "0", "", "",
		"NASDAQ", "USD", "AAPL", "AAPL", "100", "150.25",
	})
	c.handleMessage([]string{"62", "1"})

	v, err := c.requests.await(context.Background(), p)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	positions := collect[schema.Position](v)
	if len(positions) != 1 || positions[0].Account != "DU123" {
		t.Fatalf("positions mismatch: %v", v)
	}
}

func TestHistoricalTicksAccumulateAcrossPages(t *testing.T) {
	c := newTestClient()
	p, err := c.requests.create(-11, "historicalTicks", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c.handleMessage([]string{"96", "-11", "1", "1704067200", "185.5", "100", "0"})
	c.handleMessage([]string{"96", "-11", "1", "1704067201", "185.6", "200", "1"})

	v, err := c.requests.await(context.Background(), p)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	ticks := collect[schema.HistoricalTick](v)
	if len(ticks) != 2 {
		t.Fatalf("expected 2 ticks across pages, got %v", v)
	}
}

func TestUnknownMessageCounted(t *testing.T) {
	c := newTestClient()
	c.handleMessage([]string{"9999", "1", "whatever"})

	snap := c.Metrics()
	if snap.UnknownMsgs != 1 {
		t.Fatalf("expected 1 unknown message, got %d", snap.UnknownMsgs)
	}
}
