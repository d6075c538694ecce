package client

import (
	"time"

	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/exception"
)

// BarHandler receives streaming bars for one subscription.
type BarHandler func(bar schema.Bar)

// TickHandler receives streaming market data ticks, either a
// schema.TickPrice or a schema.TickSize.
type TickHandler func(tick any)

// AccountHandler receives account value and portfolio updates.
type AccountHandler func(update any)

// SubscribeBars opens a streaming bar subscription and returns its id.
// Five-second bars ride the native real-time bar stream; every other
// size uses a keep-up-to-date historical request, which first replays a
// warmup snapshot covering lookback and then streams live updates
// through the same handler.
func (c *Client) SubscribeBars(
	contract schema.Contract,
	barSize schema.BarSize,
	show schema.WhatToShow,
	useRTH bool,
	lookback string,
	handler BarHandler,
) (int64, error) {
	if handler == nil {
		return 0, exception.ErrNilCallback
	}
	id := c.requests.nextRequestID()

	var subscribe, cancel func() error
	if barSize.Realtime() {
		subscribe = func() error {
			c.conn.Send(codec.RealTimeBarsRequestFields(id, contract, show, useRTH)...)
			return nil
		}
		cancel = func() error {
			c.conn.Send(codec.CancelRealTimeBarsFields(id)...)
			return nil
		}
	} else {
		subscribe = func() error {
			fields := codec.HistoricalDataRequestFields(
				id, contract, time.Time{}, lookback, barSize, show, useRTH, true)
			c.conn.Send(fields...)
			return nil
		}
		cancel = func() error {
			c.conn.Send(codec.CancelHistoricalDataFields(id)...)
			return nil
		}
	}

	sub := &subscription{
		id:        id,
		name:      "bars:" + barSize.Wire(),
		subscribe: subscribe,
		cancel:    cancel,
		callback: func(event any) {
			if bar, ok := event.(schema.Bar); ok {
				handler(bar)
			}
		},
	}
	if err := c.subs.add(sub); err != nil {
		return 0, err
	}
	return id, sub.subscribe()
}

// SubscribeMarketData opens a streaming top-of-book tick subscription.
func (c *Client) SubscribeMarketData(contract schema.Contract, handler TickHandler) (int64, error) {
	if handler == nil {
		return 0, exception.ErrNilCallback
	}
	id := c.requests.nextRequestID()
	sub := &subscription{
		id:   id,
		name: "mktData:" + contract.Symbol,
		subscribe: func() error {
			c.conn.Send(codec.MarketDataRequestFields(id, contract, false)...)
			return nil
		},
		cancel: func() error {
			c.conn.Send(codec.CancelMarketDataFields(id)...)
			return nil
		},
		callback: func(event any) { handler(event) },
	}
	if err := c.subs.add(sub); err != nil {
		return 0, err
	}
	return id, sub.subscribe()
}

// SubscribeAccountUpdates opens the singleton account update stream for
// account. The handler receives schema.AccountValue and
// schema.PortfolioValue items as the gateway pushes them.
func (c *Client) SubscribeAccountUpdates(account string, handler AccountHandler) (int64, error) {
	if handler == nil {
		return 0, exception.ErrNilCallback
	}
	sub := &subscription{
		id:   schema.ReqIDAccountData,
		name: "accountUpdates:" + account,
		subscribe: func() error {
			c.conn.Send(codec.AccountUpdatesFields(true, account)...)
			return nil
		},
		cancel: func() error {
			c.conn.Send(codec.AccountUpdatesFields(false, account)...)
			return nil
		},
		callback: func(event any) { handler(event) },
	}
	if err := c.subs.add(sub); err != nil {
		return 0, err
	}
	return schema.ReqIDAccountData, sub.subscribe()
}

// Unsubscribe cancels the subscription with the given id.
func (c *Client) Unsubscribe(id int64) error {
	sub, ok := c.subs.remove(id)
	if !ok {
		return exception.ErrUnknownTopic
	}
	return sub.cancel()
}
