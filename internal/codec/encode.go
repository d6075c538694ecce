package codec

import (
	"fmt"
	"strconv"
	"time"

	"main/internal/schema"
)

// VersionRangePayload is the handshake version advertisement sent right
// after the API preamble (space terminator included).
func VersionRangePayload() string {
	return fmt.Sprintf("v%d..%d ", schema.MinClientVersion, schema.MaxClientVersion)
}

// StartAPIFields builds the startApi command: fixed code, sub-version,
// client id, empty optional-capabilities placeholder.
func StartAPIFields(clientID int64) []string {
	return []string{
		strconv.FormatInt(int64(schema.OutStartAPI), 10),
		strconv.FormatInt(schema.StartAPIVersion, 10),
		strconv.FormatInt(clientID, 10),
		"",
	}
}

func requestHeader(msg schema.OutgoingMsgID, version int64) []string {
	fields := make([]string, 0, 24)
	fields = appendInt(fields, int64(msg))
	if version > 0 {
		fields = appendInt(fields, version)
	}
	return fields
}

func appendContract(fields []string, c schema.Contract) []string {
	fields = appendInt(fields, c.ConID)
	fields = append(fields, c.Symbol, c.SecType, c.LastTradeDate)
	fields = appendFloat(fields, c.Strike)
	fields = append(fields, c.Right, c.Multiplier, c.Exchange,
		c.PrimaryExchange, c.Currency, c.LocalSymbol, c.TradingClass)
	return fields
}

// ContractDataRequestFields builds a reqContractData message.
func ContractDataRequestFields(reqID int64, c schema.Contract) []string {
	fields := requestHeader(schema.OutReqContractData, 8)
	fields = appendInt(fields, reqID)
	fields = appendContract(fields, c)
	fields = appendBool(fields, false) // includeExpired
	fields = append(fields, "", "")    // secIdType, secId
	return fields
}

// HistoricalDataRequestFields builds a reqHistoricalData message. end is
// formatted as a wire datetime; keepUpToDate turns the request into a
// streaming subscription after the initial snapshot.
func HistoricalDataRequestFields(
	reqID int64,
	c schema.Contract,
	end time.Time,
	duration string,
	barSize schema.BarSize,
	show schema.WhatToShow,
	useRTH bool,
	keepUpToDate bool,
) []string {
	fields := requestHeader(schema.OutReqHistoricalData, 0)
	fields = appendInt(fields, reqID)
	fields = appendContract(fields, c)

	endStr := ""
	if !end.IsZero() {
		endStr = end.UTC().Format("20060102-15:04:05")
	}
	fields = append(fields, endStr, barSize.Wire(), duration, boolField(useRTH), show.Wire())
	fields = appendInt(fields, 2) // formatDate: epoch seconds
	fields = appendBool(fields, keepUpToDate)
	fields = append(fields, "") // chart options
	return fields
}

// CancelHistoricalDataFields builds a cancelHistoricalData message.
func CancelHistoricalDataFields(reqID int64) []string {
	fields := requestHeader(schema.OutCancelHistoricalData, 1)
	return appendInt(fields, reqID)
}

// RealTimeBarsRequestFields builds a reqRealTimeBars message (5-second
// bars; the bar-size field is fixed by the protocol).
func RealTimeBarsRequestFields(reqID int64, c schema.Contract, show schema.WhatToShow, useRTH bool) []string {
	fields := requestHeader(schema.OutReqRealTimeBars, 3)
	fields = appendInt(fields, reqID)
	fields = appendContract(fields, c)
	fields = appendInt(fields, 5) // bar size, ignored by the server
	fields = append(fields, show.Wire(), boolField(useRTH), "")
	return fields
}

// CancelRealTimeBarsFields builds a cancelRealTimeBars message.
func CancelRealTimeBarsFields(reqID int64) []string {
	fields := requestHeader(schema.OutCancelRealTimeBars, 1)
	return appendInt(fields, reqID)
}

// HeadTimestampRequestFields builds a reqHeadTimestamp message.
func HeadTimestampRequestFields(reqID int64, c schema.Contract, show schema.WhatToShow, useRTH bool) []string {
	fields := requestHeader(schema.OutReqHeadTimestamp, 0)
	fields = appendInt(fields, reqID)
	fields = appendContract(fields, c)
	fields = appendBool(fields, false) // includeExpired
	fields = append(fields, boolField(useRTH), show.Wire())
	fields = appendInt(fields, 2) // formatDate: epoch seconds
	return fields
}

// ExecutionsRequestFields builds a reqExecutions message with an empty
// filter (all executions for this client).
func ExecutionsRequestFields(reqID int64) []string {
	fields := requestHeader(schema.OutReqExecutions, 3)
	fields = appendInt(fields, reqID)
	// clientId, acctCode, time, symbol, secType, exchange, side
	fields = append(fields, "", "", "", "", "", "", "")
	return fields
}

// ManagedAccountsRequestFields builds a reqManagedAccts message.
func ManagedAccountsRequestFields() []string {
	return requestHeader(schema.OutReqManagedAccounts, 1)
}

// NextValidIDRequestFields builds a reqIds message. The numIds field is
// ignored by modern gateways but must be present.
func NextValidIDRequestFields() []string {
	fields := requestHeader(schema.OutReqIDs, 1)
	return appendInt(fields, 1)
}

// PositionsRequestFields builds a reqPositions message.
func PositionsRequestFields() []string {
	return requestHeader(schema.OutReqPositions, 1)
}

// CancelPositionsFields builds a cancelPositions message.
func CancelPositionsFields() []string {
	return requestHeader(schema.OutCancelPositions, 1)
}

// OpenOrdersRequestFields builds a reqOpenOrders message.
func OpenOrdersRequestFields() []string {
	return requestHeader(schema.OutReqOpenOrders, 1)
}

// AccountUpdatesFields builds a reqAccountData subscribe/unsubscribe.
func AccountUpdatesFields(subscribe bool, account string) []string {
	fields := requestHeader(schema.OutReqAccountData, 2)
	fields = appendBool(fields, subscribe)
	return append(fields, account)
}

// CurrentTimeRequestFields builds a reqCurrentTime message.
func CurrentTimeRequestFields() []string {
	return requestHeader(schema.OutReqCurrentTime, 1)
}

// HistoricalTicksRequestFields builds a reqHistoricalTicks message
// starting at start and returning up to count ticks.
func HistoricalTicksRequestFields(reqID int64, c schema.Contract, start time.Time, count int64, show schema.WhatToShow, useRTH bool) []string {
	fields := requestHeader(schema.OutReqHistoricalTicks, 0)
	fields = appendInt(fields, reqID)
	fields = appendContract(fields, c)
	fields = appendBool(fields, false) // includeExpired
	fields = append(fields, start.UTC().Format("20060102-15:04:05"), "")
	fields = appendInt(fields, count)
	fields = append(fields, show.Wire(), boolField(useRTH), "", "")
	return fields
}

// MarketDataRequestFields builds a reqMktData message for level-1 ticks.
func MarketDataRequestFields(reqID int64, c schema.Contract, snapshot bool) []string {
	fields := requestHeader(schema.OutReqMktData, 11)
	fields = appendInt(fields, reqID)
	fields = appendContract(fields, c)
	fields = appendBool(fields, false) // no combo legs
	fields = append(fields, "")        // generic tick list
	fields = appendBool(fields, snapshot)
	fields = appendBool(fields, false) // regulatory snapshot
	fields = append(fields, "")        // options
	return fields
}

// CancelMarketDataFields builds a cancelMktData message.
func CancelMarketDataFields(reqID int64) []string {
	fields := requestHeader(schema.OutCancelMktData, 2)
	return appendInt(fields, reqID)
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
