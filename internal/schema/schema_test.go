package schema

import (
	"testing"
	"time"
)

func TestIncomingMsgName(t *testing.T) {
	if got := MsgContractDataEnd.Name(); got != "contractDetailsEnd" {
		t.Fatalf("name mismatch: %q", got)
	}
	if got := IncomingMsgID(9999).Name(); got != "unknown" {
		t.Fatalf("unknown code name: %q", got)
	}
}

func TestReservedIDsAboveDynamicRange(t *testing.T) {
	reserved := []int64{
		ReqIDExecutions, ReqIDNextOrderID, ReqIDPositions, ReqIDAccounts,
		ReqIDPortfolio, ReqIDOpenOrders, ReqIDAccountData, ReqIDCurrentTime,
	}
	seen := make(map[int64]struct{}, len(reserved))
	for _, id := range reserved {
		if id >= 0 || id <= FirstDynamicReqID {
			t.Fatalf("reserved id %d outside (-1, %d)", id, FirstDynamicReqID)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate reserved id %d", id)
		}
		seen[id] = struct{}{}
	}
}

func TestServerErrorWarning(t *testing.T) {
	warn := &ServerError{ReqID: NoReqID, Code: 2104, Msg: "Warning: market data farm connection is OK"}
	if !warn.IsWarning() {
		t.Fatal("expected warning")
	}
	fatal := &ServerError{ReqID: -11, Code: 200, Msg: "No security definition has been found"}
	if fatal.IsWarning() {
		t.Fatal("unexpected warning")
	}
}

func TestCacheKeyComponents(t *testing.T) {
	key := CacheKey(
		ContractKey{Contract: Contract{Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD"}},
		TimeKey{Time: time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)},
		DurationKey{Duration: 24 * time.Hour},
		BarSizeKey{Size: BarSize1Min},
		ShowKey{Show: ShowMidpoint},
	)
	want := "AAPL.STK.SMART.USD|20240105-14:30:00|24h0m0s|1-min|MIDPOINT"
	if key != want {
		t.Fatalf("cache key mismatch:\n got %q\nwant %q", key, want)
	}
}

func TestBarSizeWire(t *testing.T) {
	if !BarSize5Sec.Realtime() {
		t.Fatal("5s bars must use the realtime wire request")
	}
	if BarSize1Min.Realtime() {
		t.Fatal("1m bars must use the historical wire request")
	}
	if BarSize1Hour.Wire() != "1 hour" {
		t.Fatalf("wire string: %q", BarSize1Hour.Wire())
	}
}
