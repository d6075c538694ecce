package schema

import "time"

// BarSize selects the bar aggregation for historical and streaming data.
type BarSize uint8

const (
	BarSizeUnknown BarSize = iota
	BarSize5Sec
	BarSize1Min
	BarSize5Min
	BarSize15Min
	BarSize1Hour
	BarSize1Day
)

var barSizeWire = map[BarSize]string{
	BarSize5Sec:  "5 secs",
	BarSize1Min:  "1 min",
	BarSize5Min:  "5 mins",
	BarSize15Min: "15 mins",
	BarSize1Hour: "1 hour",
	BarSize1Day:  "1 day",
}

// Wire returns the bar-size setting string the gateway expects.
func (s BarSize) Wire() string {
	return barSizeWire[s]
}

// Duration returns the span one bar covers.
func (s BarSize) Duration() time.Duration {
	switch s {
	case BarSize5Sec:
		return 5 * time.Second
	case BarSize1Min:
		return time.Minute
	case BarSize5Min:
		return 5 * time.Minute
	case BarSize15Min:
		return 15 * time.Minute
	case BarSize1Hour:
		return time.Hour
	case BarSize1Day:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Realtime reports whether the size maps to the realtime-bar wire request
// rather than a keep-up-to-date historical request.
func (s BarSize) Realtime() bool {
	return s == BarSize5Sec
}

// WhatToShow selects the price series for bar requests.
type WhatToShow uint8

const (
	ShowTrades WhatToShow = iota
	ShowMidpoint
	ShowBid
	ShowAsk
)

// Wire returns the whatToShow string the gateway expects.
func (w WhatToShow) Wire() string {
	switch w {
	case ShowMidpoint:
		return "MIDPOINT"
	case ShowBid:
		return "BID"
	case ShowAsk:
		return "ASK"
	default:
		return "TRADES"
	}
}
