package schema

import (
	"time"

	"github.com/yanun0323/decimal"
)

// NextValidID carries the first usable order id after the handshake.
type NextValidID struct {
	OrderID int64
}

// ManagedAccounts lists the account codes this session may act for.
type ManagedAccounts struct {
	Accounts []string
}

// TickPrice is a level-1 price update, optionally paired with a size.
type TickPrice struct {
	ReqID    int64
	TickType int64
	Price    float64
	Size     decimal.Decimal
}

// TickSize is a level-1 size-only update.
type TickSize struct {
	ReqID    int64
	TickType int64
	Size     decimal.Decimal
}

// Bar is one aggregated price bar, historical or streaming.
type Bar struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   decimal.Decimal
	WAP      decimal.Decimal
	BarCount int64
}

// HistoricalData is the terminal payload of a historical-bars request.
type HistoricalData struct {
	ReqID int64
	Start string
	End   string
	Bars  []Bar
}

// OrderStatus is a push describing the lifecycle of one order.
type OrderStatus struct {
	OrderID       int64
	Status        string
	Filled        decimal.Decimal
	Remaining     decimal.Decimal
	AvgFillPrice  float64
	PermID        int64
	ParentID      int64
	LastFillPrice float64
	ClientID      int64
	WhyHeld       string
}

// OpenOrder describes one working order reported by the gateway.
type OpenOrder struct {
	OrderID   int64
	Contract  Contract
	Action    string
	TotalQty  decimal.Decimal
	OrderType string
	LmtPrice  float64
	AuxPrice  float64
	Status    string
}

// Execution reports one fill.
type Execution struct {
	ReqID    int64
	OrderID  int64
	ExecID   string
	Time     string
	Account  string
	Exchange string
	Side     string
	Shares   decimal.Decimal
	Price    float64
	PermID   int64
	Contract Contract
}

// CommissionReport carries the fees charged for one execution.
type CommissionReport struct {
	ExecID     string
	Commission decimal.Decimal
	Currency   string
	RealizedPNL float64
}

// Position is one row of the account's open positions.
type Position struct {
	Account  string
	Contract Contract
	Quantity decimal.Decimal
	AvgCost  float64
}

// AccountValue is one key/value row of an account-updates stream.
type AccountValue struct {
	Key      string
	Value    string
	Currency string
	Account  string
}

// HeadTimestamp is the earliest data point available for a contract.
type HeadTimestamp struct {
	ReqID int64
	Time  time.Time
}

// PortfolioValue is one instrument row of an account-updates stream.
type PortfolioValue struct {
	Contract      Contract
	Position      decimal.Decimal
	MarketPrice   float64
	MarketValue   float64
	AvgCost       float64
	UnrealizedPNL float64
	RealizedPNL   float64
	Account       string
}

// HistoricalTick is one tick row of a historical-ticks response.
type HistoricalTick struct {
	Time  time.Time
	Price float64
	Size  decimal.Decimal
}

// OrderBound links an API order id to the gateway's permanent id.
type OrderBound struct {
	PermID   int64
	ClientID int64
	OrderID  int64
}
