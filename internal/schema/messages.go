// Package schema defines the TWS message vocabulary: numeric message-type
// codes, typed events decoded from inbound frames, and the reserved
// request-id space shared by the client and its dispatch tables.
package schema

// IncomingMsgID is the leading numeric field of every inbound message.
type IncomingMsgID int64

const (
	MsgTickPrice            IncomingMsgID = 1
	MsgTickSize             IncomingMsgID = 2
	MsgOrderStatus          IncomingMsgID = 3
	MsgError                IncomingMsgID = 4
	MsgOpenOrder            IncomingMsgID = 5
	MsgAccountValue         IncomingMsgID = 6
	MsgPortfolioValue       IncomingMsgID = 7
	MsgAccountUpdateTime    IncomingMsgID = 8
	MsgNextValidID          IncomingMsgID = 9
	MsgContractData         IncomingMsgID = 10
	MsgExecutionData        IncomingMsgID = 11
	MsgManagedAccounts      IncomingMsgID = 15
	MsgHistoricalData       IncomingMsgID = 17
	MsgCurrentTime          IncomingMsgID = 49
	MsgAccountDownloadEnd   IncomingMsgID = 54
	MsgRealTimeBar          IncomingMsgID = 50
	MsgContractDataEnd      IncomingMsgID = 52
	MsgOpenOrderEnd         IncomingMsgID = 53
	MsgExecutionDataEnd     IncomingMsgID = 55
	MsgCommissionReport     IncomingMsgID = 59
	MsgPosition             IncomingMsgID = 61
	MsgPositionEnd          IncomingMsgID = 62
	MsgHeadTimestamp        IncomingMsgID = 88
	MsgHistoricalDataUpdate IncomingMsgID = 90
	MsgHistoricalTicksMid   IncomingMsgID = 96
	MsgHistoricalTicksBid   IncomingMsgID = 97
	MsgHistoricalTicksLast  IncomingMsgID = 98
	MsgOrderBound           IncomingMsgID = 100
)

var incomingMsgNames = map[IncomingMsgID]string{
	MsgTickPrice:            "tickPrice",
	MsgTickSize:             "tickSize",
	MsgOrderStatus:          "orderStatus",
	MsgError:                "errorMsg",
	MsgOpenOrder:            "openOrder",
	MsgAccountValue:         "accountValue",
	MsgPortfolioValue:       "portfolioValue",
	MsgAccountUpdateTime:    "accountUpdateTime",
	MsgNextValidID:          "nextValidId",
	MsgContractData:         "contractDetails",
	MsgExecutionData:        "executionData",
	MsgManagedAccounts:      "managedAccounts",
	MsgHistoricalData:       "historicalData",
	MsgCurrentTime:          "currentTime",
	MsgAccountDownloadEnd:   "accountDownloadEnd",
	MsgRealTimeBar:          "realtimeBar",
	MsgContractDataEnd:      "contractDetailsEnd",
	MsgOpenOrderEnd:         "openOrderEnd",
	MsgExecutionDataEnd:     "executionDataEnd",
	MsgCommissionReport:     "commissionReport",
	MsgPosition:             "position",
	MsgPositionEnd:          "positionEnd",
	MsgHeadTimestamp:        "headTimestamp",
	MsgHistoricalDataUpdate: "historicalDataUpdate",
	MsgHistoricalTicksMid:   "historicalTicksMidpoint",
	MsgHistoricalTicksBid:   "historicalTicksBidAsk",
	MsgHistoricalTicksLast:  "historicalTicksLast",
	MsgOrderBound:           "orderBound",
}

// Name returns the semantic name for an inbound message code.
func (id IncomingMsgID) Name() string {
	if name, ok := incomingMsgNames[id]; ok {
		return name
	}
	return "unknown"
}

// OutgoingMsgID is the leading numeric field of every outbound request.
type OutgoingMsgID int64

const (
	OutReqMktData           OutgoingMsgID = 1
	OutCancelMktData        OutgoingMsgID = 2
	OutPlaceOrder           OutgoingMsgID = 3
	OutCancelOrder          OutgoingMsgID = 4
	OutReqOpenOrders        OutgoingMsgID = 5
	OutReqAccountData       OutgoingMsgID = 6
	OutReqExecutions        OutgoingMsgID = 7
	OutReqIDs               OutgoingMsgID = 8
	OutReqContractData      OutgoingMsgID = 9
	OutReqHistoricalData    OutgoingMsgID = 20
	OutCancelHistoricalData OutgoingMsgID = 25
	OutReqManagedAccounts   OutgoingMsgID = 17
	OutReqCurrentTime       OutgoingMsgID = 49
	OutReqRealTimeBars      OutgoingMsgID = 50
	OutCancelRealTimeBars   OutgoingMsgID = 51
	OutReqPositions         OutgoingMsgID = 61
	OutCancelPositions      OutgoingMsgID = 64
	OutStartAPI             OutgoingMsgID = 71
	OutReqHeadTimestamp     OutgoingMsgID = 87
	OutCancelHeadTimestamp  OutgoingMsgID = 90
	OutReqHistoricalTicks   OutgoingMsgID = 96
)

// Handshake constants.
const (
	// APIPreamble opens the very first client frame.
	APIPreamble = "API\x00"

	// MinClientVersion and MaxClientVersion bound the advertised
	// protocol version range (v{min}..{max}).
	MinClientVersion = 176
	MaxClientVersion = 176

	// StartAPIVersion is the fixed sub-version of the startApi command.
	StartAPIVersion = 2
)

// NoReqID is the sentinel carried by server notifications that are not
// correlated to any request.
const NoReqID int64 = -1
