package schema

import "fmt"

// Contract identifies one tradable instrument.
type Contract struct {
	ConID           int64
	Symbol          string
	SecType         string
	LastTradeDate   string
	Strike          float64
	Right           string
	Multiplier      string
	Exchange        string
	PrimaryExchange string
	Currency        string
	LocalSymbol     string
	TradingClass    string
}

// Key returns a stable identity string for the contract.
func (c Contract) Key() string {
	if c.ConID != 0 {
		return fmt.Sprintf("conId=%d", c.ConID)
	}
	return fmt.Sprintf("%s.%s.%s.%s", c.Symbol, c.SecType, c.Exchange, c.Currency)
}

// ContractDetails extends a contract with the gateway's descriptive fields.
type ContractDetails struct {
	Contract     Contract
	MarketName   string
	MinTick      float64
	OrderTypes   string
	ValidExchs   string
	PriceMagnify int64
	UnderConID   int64
	LongName     string
	ContractMonth string
	Industry     string
	Category     string
	TimeZoneID   string
	TradingHours string
	LiquidHours  string
}
