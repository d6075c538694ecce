package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/exception"
)

// request registers a pending entry, sends the wire message, and awaits
// the terminal resolution. Every caller gets exactly one of: a value, an
// application error (*schema.ServerError), a timeout, or a closed-
// connection failure.
func (c *Client) request(ctx context.Context, id int64, name string, fields []string) (any, error) {
	p, err := c.requests.create(id, name, c.timeout(0))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	c.conn.Send(fields...)

	v, err := c.requests.await(ctx, p)
	c.metrics.ObserveRequest(time.Since(start))
	if err != nil {
		if err == exception.ErrRequestTimeout {
			c.metrics.IncRequestTimeouts()
		}
		return nil, err
	}
	return v, nil
}

// RequestContractDetails resolves a contract description into the
// gateway's full contract details, one per matching instrument, in
// receipt order.
func (c *Client) RequestContractDetails(ctx context.Context, contract schema.Contract) ([]schema.ContractDetails, error) {
	id := c.requests.nextRequestID()
	v, err := c.request(ctx, id, "contractDetails", codec.ContractDataRequestFields(id, contract))
	if err != nil {
		return nil, err
	}
	return collect[schema.ContractDetails](v), nil
}

// RequestHistoricalBars fetches one bounded page of historical bars
// ending at end (zero time means now).
func (c *Client) RequestHistoricalBars(
	ctx context.Context,
	contract schema.Contract,
	end time.Time,
	duration string,
	barSize schema.BarSize,
	show schema.WhatToShow,
	useRTH bool,
) ([]schema.Bar, error) {
	id := c.requests.nextRequestID()
	fields := codec.HistoricalDataRequestFields(id, contract, end, duration, barSize, show, useRTH, false)
	v, err := c.request(ctx, id, "historicalData", fields)
	if err != nil {
		return nil, err
	}
	bars, _ := v.([]schema.Bar)
	return bars, nil
}

// RequestHeadTimestamp returns the earliest available data point for the
// contract, or nil when the gateway reports none exists (error 162).
func (c *Client) RequestHeadTimestamp(ctx context.Context, contract schema.Contract, show schema.WhatToShow, useRTH bool) (*time.Time, error) {
	id := c.requests.nextRequestID()
	v, err := c.request(ctx, id, "headTimestamp", codec.HeadTimestampRequestFields(id, contract, show, useRTH))
	if err != nil {
		var serverErr *schema.ServerError
		if errors.As(err, &serverErr) &&
			serverErr.Code == schema.CodeNoHeadTimestamp &&
			strings.HasSuffix(strings.TrimSpace(serverErr.Msg), "No head time stamp") {
			return nil, nil
		}
		return nil, err
	}
	ts, ok := v.(time.Time)
	if !ok {
		return nil, exception.ErrUnexpectedResult
	}
	return &ts, nil
}

// RequestHistoricalTicks fetches up to count ticks starting at start.
func (c *Client) RequestHistoricalTicks(
	ctx context.Context,
	contract schema.Contract,
	start time.Time,
	count int64,
	show schema.WhatToShow,
	useRTH bool,
) ([]schema.HistoricalTick, error) {
	id := c.requests.nextRequestID()
	fields := codec.HistoricalTicksRequestFields(id, contract, start, count, show, useRTH)
	v, err := c.request(ctx, id, "historicalTicks", fields)
	if err != nil {
		return nil, err
	}
	return collect[schema.HistoricalTick](v), nil
}

// RequestExecutions fetches this session's executions. Runs under the
// reserved executions id; only one may be outstanding at a time.
func (c *Client) RequestExecutions(ctx context.Context) ([]schema.Execution, error) {
	v, err := c.request(ctx, schema.ReqIDExecutions, "executions",
		codec.ExecutionsRequestFields(schema.ReqIDExecutions))
	if err != nil {
		return nil, err
	}
	return collect[schema.Execution](v), nil
}

// RequestPositions fetches the account's open positions and cancels the
// underlying stream once the snapshot is complete.
func (c *Client) RequestPositions(ctx context.Context) ([]schema.Position, error) {
	v, err := c.request(ctx, schema.ReqIDPositions, "positions", codec.PositionsRequestFields())
	if err != nil {
		return nil, err
	}
	c.conn.Send(codec.CancelPositionsFields()...)
	return collect[schema.Position](v), nil
}

// RequestOpenOrders fetches this client's working orders.
func (c *Client) RequestOpenOrders(ctx context.Context) ([]schema.OpenOrder, error) {
	v, err := c.request(ctx, schema.ReqIDOpenOrders, "openOrders", codec.OpenOrdersRequestFields())
	if err != nil {
		return nil, err
	}
	return collect[schema.OpenOrder](v), nil
}

// RequestPortfolio subscribes to account updates just long enough to
// collect one full portfolio download, then unsubscribes.
func (c *Client) RequestPortfolio(ctx context.Context, account string) ([]schema.PortfolioValue, error) {
	v, err := c.request(ctx, schema.ReqIDPortfolio, "portfolio", codec.AccountUpdatesFields(true, account))
	c.conn.Send(codec.AccountUpdatesFields(false, account)...)
	if err != nil {
		return nil, err
	}
	return collect[schema.PortfolioValue](v), nil
}

// RequestManagedAccounts re-fetches the managed accounts list. The
// handshake result is available without a round trip via ManagedAccounts.
func (c *Client) RequestManagedAccounts(ctx context.Context) ([]string, error) {
	v, err := c.request(ctx, schema.ReqIDAccounts, "managedAccounts",
		codec.ManagedAccountsRequestFields())
	if err != nil {
		return nil, err
	}
	accounts, _ := v.([]string)
	return accounts, nil
}

// RequestNextOrderID asks the gateway for a fresh order id.
func (c *Client) RequestNextOrderID(ctx context.Context) (int64, error) {
	v, err := c.request(ctx, schema.ReqIDNextOrderID, "nextOrderId",
		codec.NextValidIDRequestFields())
	if err != nil {
		return 0, err
	}
	id, _ := v.(int64)
	return id, nil
}

// RequestCurrentTime returns the gateway's clock.
func (c *Client) RequestCurrentTime(ctx context.Context) (time.Time, error) {
	v, err := c.request(ctx, schema.ReqIDCurrentTime, "currentTime", codec.CurrentTimeRequestFields())
	if err != nil {
		return time.Time{}, err
	}
	epoch, _ := v.(int64)
	return time.Unix(epoch, 0).UTC(), nil
}

// collect narrows an accumulated []any to its element type.
func collect[T any](v any) []T {
	items, _ := v.([]any)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if t, ok := item.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
