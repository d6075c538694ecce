package client

import (
	"strconv"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/codec"
	"main/internal/schema"
)

// handleMessage decodes one post-handshake message by its leading type
// code and routes it to the correlation table, the subscription table, or
// the unsolicited feed. Responses for ids with no pending entry are
// dropped silently; a request may legitimately have timed out before its
// answer arrived.
func (c *Client) handleMessage(fields []string) {
	if len(fields) == 0 {
		return
	}
	code, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		logs.Errorf("client: bad message type %q", fields[0])
		return
	}
	msgID := schema.IncomingMsgID(code)
	c.metrics.IncDispatched(msgID)
	rest := fields[1:]

	switch msgID {
	case schema.MsgError:
		c.handleError(rest)

	case schema.MsgNextValidID:
		v, err := codec.DecodeNextValidID(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.resolve(schema.ReqIDNextOrderID, v.OrderID) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgManagedAccounts:
		v, err := codec.DecodeManagedAccounts(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.resolve(schema.ReqIDAccounts, v.Accounts) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgCurrentTime:
		epoch, err := codec.DecodeCurrentTime(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.resolve(schema.ReqIDCurrentTime, epoch) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgContractData:
		reqID, details, err := codec.DecodeContractDetails(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.appendPartial(reqID, details) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgContractDataEnd:
		reqID, err := codec.DecodeContractDetailsEnd(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.resolveAccumulated(reqID) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgHistoricalData:
		v, err := codec.DecodeHistoricalData(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		// A keep-up-to-date subscription receives its warmup snapshot
		// under the same id; a one-shot request resolves with the bars.
		if c.subs.has(v.ReqID) {
			for _, bar := range v.Bars {
				c.subs.dispatch(v.ReqID, bar)
			}
			return
		}
		if !c.requests.resolve(v.ReqID, v.Bars) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgHistoricalDataUpdate:
		reqID, bar, err := codec.DecodeHistoricalDataUpdate(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.subs.dispatch(reqID, bar) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgRealTimeBar:
		reqID, bar, err := codec.DecodeRealTimeBar(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.subs.dispatch(reqID, bar) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgTickPrice:
		v, err := codec.DecodeTickPrice(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.subs.dispatch(v.ReqID, v) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgTickSize:
		v, err := codec.DecodeTickSize(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.subs.dispatch(v.ReqID, v) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgHeadTimestamp:
		v, err := codec.DecodeHeadTimestamp(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.resolve(v.ReqID, v.Time) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgExecutionData:
		v, err := codec.DecodeExecution(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		// Request-driven rows land on the reserved executions id; pushes
		// outside a request surface as unsolicited events.
		if c.requests.appendPartial(schema.ReqIDExecutions, v) {
			return
		}
		c.publish(bus.Event{Kind: bus.EventExecution, Execution: &v})

	case schema.MsgExecutionDataEnd:
		if _, err := codec.DecodeExecutionDataEnd(rest); err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.resolveAccumulated(schema.ReqIDExecutions) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgCommissionReport:
		v, err := codec.DecodeCommissionReport(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		c.publish(bus.Event{Kind: bus.EventCommission, Commission: &v})

	case schema.MsgOrderStatus:
		v, err := codec.DecodeOrderStatus(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		c.publish(bus.Event{Kind: bus.EventOrderStatus, OrderStatus: &v})

	case schema.MsgOpenOrder:
		v, err := codec.DecodeOpenOrder(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if c.requests.appendPartial(schema.ReqIDOpenOrders, v) {
			return
		}
		c.publish(bus.Event{Kind: bus.EventOpenOrder, OpenOrder: &v})

	case schema.MsgOpenOrderEnd:
		if err := codec.DecodeOpenOrderEnd(rest); err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.resolveAccumulated(schema.ReqIDOpenOrders) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgPosition:
		v, err := codec.DecodePosition(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if !c.requests.appendPartial(schema.ReqIDPositions, v) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgPositionEnd:
		if !c.requests.resolveAccumulated(schema.ReqIDPositions) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgAccountValue:
		v, err := codec.DecodeAccountValue(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if c.subs.dispatch(schema.ReqIDAccountData, v) {
			return
		}
		c.publish(bus.Event{Kind: bus.EventAccountValue, AccountValue: &v})

	case schema.MsgPortfolioValue:
		v, err := codec.DecodePortfolioValue(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		if c.requests.appendPartial(schema.ReqIDPortfolio, v) {
			return
		}
		c.subs.dispatch(schema.ReqIDAccountData, v)

	case schema.MsgAccountDownloadEnd:
		if !c.requests.resolveAccumulated(schema.ReqIDPortfolio) {
			c.metrics.IncLateResponses()
		}

	case schema.MsgAccountUpdateTime:
		// Informational only; account rows carry their own values.

	case schema.MsgHistoricalTicksMid, schema.MsgHistoricalTicksBid, schema.MsgHistoricalTicksLast:
		reqID, ticks, done, err := codec.DecodeHistoricalTicks(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		for _, tick := range ticks {
			c.requests.appendPartial(reqID, tick)
		}
		if done {
			if !c.requests.resolveAccumulated(reqID) {
				c.metrics.IncLateResponses()
			}
		}

	case schema.MsgOrderBound:
		v, err := codec.DecodeOrderBound(rest)
		if err != nil {
			c.decodeError(msgID, err)
			return
		}
		c.publish(bus.Event{Kind: bus.EventOrderBound, OrderBound: &v})

	default:
		c.metrics.IncUnknownMsg()
	}
}

// handleError applies the shared error-message policy: the no-id sentinel
// and warnings are logged and discarded, a correlated id fails its pending
// request, and everything else surfaces as an unsolicited error event.
func (c *Client) handleError(fields []string) {
	e, err := codec.DecodeServerError(fields)
	if err != nil {
		c.decodeError(schema.MsgError, err)
		return
	}
	if e.ReqID == schema.NoReqID {
		logs.Infof("client: gateway notice %d: %s", e.Code, e.Msg)
		return
	}
	if e.IsWarning() {
		logs.Infof("client: gateway warning %d (req %d): %s", e.Code, e.ReqID, e.Msg)
		return
	}
	if c.requests.fail(e.ReqID, e) {
		return
	}
	c.publish(bus.Event{Kind: bus.EventError, Err: e})
}

func (c *Client) decodeError(msgID schema.IncomingMsgID, err error) {
	logs.Errorf("client: decode %s, err: %+v", msgID.Name(), err)
}
