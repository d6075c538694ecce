package codec

import (
	"strings"

	"main/internal/schema"
)

// Every decoder receives the message fields with the leading type code
// already consumed by the dispatcher.

// DecodeServerError parses an errorMsg message.
func DecodeServerError(fields []string) (*schema.ServerError, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	e := &schema.ServerError{
		ReqID: r.Int(),
		Code:  r.Int(),
		Msg:   r.String(),
	}
	return e, r.Err()
}

// DecodeNextValidID parses a nextValidId message.
func DecodeNextValidID(fields []string) (schema.NextValidID, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	v := schema.NextValidID{OrderID: r.Int()}
	return v, r.Err()
}

// DecodeManagedAccounts parses a managedAccounts message.
func DecodeManagedAccounts(fields []string) (schema.ManagedAccounts, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	list := r.String()
	v := schema.ManagedAccounts{}
	if list != "" {
		v.Accounts = strings.Split(list, ",")
	}
	return v, r.Err()
}

// DecodeTickPrice parses a tickPrice message.
func DecodeTickPrice(fields []string) (schema.TickPrice, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	v := schema.TickPrice{
		ReqID:    r.Int(),
		TickType: r.Int(),
		Price:    r.Float(),
		Size:     r.Decimal(),
	}
	return v, r.Err()
}

// DecodeTickSize parses a tickSize message.
func DecodeTickSize(fields []string) (schema.TickSize, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	v := schema.TickSize{
		ReqID:    r.Int(),
		TickType: r.Int(),
		Size:     r.Decimal(),
	}
	return v, r.Err()
}

// DecodeContractDetails parses a contractDetails message.
func DecodeContractDetails(fields []string) (int64, schema.ContractDetails, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	reqID := r.Int()

	var d schema.ContractDetails
	d.Contract.Symbol = r.String()
	d.Contract.SecType = r.String()
	d.Contract.LastTradeDate = r.String()
	d.Contract.Strike = r.Float()
	d.Contract.Right = r.String()
	d.Contract.Exchange = r.String()
	d.Contract.Currency = r.String()
	d.Contract.LocalSymbol = r.String()
	d.MarketName = r.String()
	d.Contract.TradingClass = r.String()
	d.Contract.ConID = r.Int()
	d.MinTick = r.Float()
	d.Contract.Multiplier = r.String()
	d.OrderTypes = r.String()
	d.ValidExchs = r.String()
	d.PriceMagnify = r.Int()
	d.UnderConID = r.Int()
	d.LongName = r.String()
	d.Contract.PrimaryExchange = r.String()
	d.ContractMonth = r.String()
	d.Industry = r.String()
	d.Category = r.String()
	d.TimeZoneID = r.String()
	d.TradingHours = r.String()
	d.LiquidHours = r.String()
	return reqID, d, r.Err()
}

// DecodeContractDetailsEnd parses a contractDetailsEnd message, returning
// the request id.
func DecodeContractDetailsEnd(fields []string) (int64, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	reqID := r.Int()
	return reqID, r.Err()
}

// DecodeHistoricalData parses a historicalData message: header plus an
// inline bar count and that many bar rows.
func DecodeHistoricalData(fields []string) (schema.HistoricalData, error) {
	r := NewReader(fields)
	v := schema.HistoricalData{
		ReqID: r.Int(),
		Start: r.String(),
		End:   r.String(),
	}
	count := r.Int()
	if r.Err() != nil {
		return v, r.Err()
	}
	v.Bars = make([]schema.Bar, 0, count)
	for i := int64(0); i < count; i++ {
		bar, err := decodeBarRow(r)
		if err != nil {
			return v, err
		}
		v.Bars = append(v.Bars, bar)
	}
	return v, r.Err()
}

// DecodeHistoricalDataUpdate parses one keep-up-to-date bar push.
func DecodeHistoricalDataUpdate(fields []string) (int64, schema.Bar, error) {
	r := NewReader(fields)
	reqID := r.Int()
	r.Skip(1) // bar count, always 1
	bar, err := decodeBarRow(r)
	return reqID, bar, err
}

// DecodeRealTimeBar parses a 5-second realtime bar push.
func DecodeRealTimeBar(fields []string) (int64, schema.Bar, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	reqID := r.Int()
	bar := schema.Bar{
		Time:   r.Time(),
		Open:   r.Float(),
		High:   r.Float(),
		Low:    r.Float(),
		Close:  r.Float(),
		Volume: r.Decimal(),
		WAP:    r.Decimal(),
	}
	bar.BarCount = r.Int()
	return reqID, bar, r.Err()
}

func decodeBarRow(r *Reader) (schema.Bar, error) {
	bar := schema.Bar{
		Time:   r.Time(),
		Open:   r.Float(),
		High:   r.Float(),
		Low:    r.Float(),
		Close:  r.Float(),
		Volume: r.Decimal(),
		WAP:    r.Decimal(),
	}
	bar.BarCount = r.Int()
	return bar, r.Err()
}

// DecodeOrderStatus parses an orderStatus push.
func DecodeOrderStatus(fields []string) (schema.OrderStatus, error) {
	r := NewReader(fields)
	v := schema.OrderStatus{
		OrderID:       r.Int(),
		Status:        r.String(),
		Filled:        r.Decimal(),
		Remaining:     r.Decimal(),
		AvgFillPrice:  r.Float(),
		PermID:        r.Int(),
		ParentID:      r.Int(),
		LastFillPrice: r.Float(),
		ClientID:      r.Int(),
		WhyHeld:       r.String(),
	}
	return v, r.Err()
}

// DecodeOpenOrder parses an openOrder message.
func DecodeOpenOrder(fields []string) (schema.OpenOrder, error) {
	r := NewReader(fields)
	v := schema.OpenOrder{OrderID: r.Int()}
	v.Contract.ConID = r.Int()
	v.Contract.Symbol = r.String()
	v.Contract.SecType = r.String()
	v.Contract.LastTradeDate = r.String()
	v.Contract.Strike = r.Float()
	v.Contract.Right = r.String()
	v.Contract.Multiplier = r.String()
	v.Contract.Exchange = r.String()
	v.Contract.Currency = r.String()
	v.Contract.LocalSymbol = r.String()
	v.Contract.TradingClass = r.String()
	v.Action = r.String()
	v.TotalQty = r.Decimal()
	v.OrderType = r.String()
	v.LmtPrice = r.Float()
	v.AuxPrice = r.Float()
	v.Status = r.String()
	return v, r.Err()
}

// DecodeOpenOrderEnd parses an openOrderEnd message.
func DecodeOpenOrderEnd(fields []string) error {
	r := NewReader(fields)
	r.Skip(1) // version
	return r.Err()
}

// DecodeExecution parses an executionData message.
func DecodeExecution(fields []string) (schema.Execution, error) {
	r := NewReader(fields)
	v := schema.Execution{
		ReqID:   r.Int(),
		OrderID: r.Int(),
	}
	v.Contract.ConID = r.Int()
	v.Contract.Symbol = r.String()
	v.Contract.SecType = r.String()
	v.Contract.LastTradeDate = r.String()
	v.Contract.Strike = r.Float()
	v.Contract.Right = r.String()
	v.Contract.Multiplier = r.String()
	v.Contract.Exchange = r.String()
	v.Contract.Currency = r.String()
	v.Contract.LocalSymbol = r.String()
	v.Contract.TradingClass = r.String()
	v.ExecID = r.String()
	v.Time = r.String()
	v.Account = r.String()
	v.Exchange = r.String()
	v.Side = r.String()
	v.Shares = r.Decimal()
	v.Price = r.Float()
	v.PermID = r.Int()
	return v, r.Err()
}

// DecodeExecutionDataEnd parses an executionDataEnd message.
func DecodeExecutionDataEnd(fields []string) (int64, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	reqID := r.Int()
	return reqID, r.Err()
}

// DecodeCommissionReport parses a commissionReport push.
func DecodeCommissionReport(fields []string) (schema.CommissionReport, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	v := schema.CommissionReport{
		ExecID:      r.String(),
		Commission:  r.Decimal(),
		Currency:    r.String(),
		RealizedPNL: r.Float(),
	}
	return v, r.Err()
}

// DecodePosition parses a position row.
func DecodePosition(fields []string) (schema.Position, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	v := schema.Position{Account: r.String()}
	v.Contract.ConID = r.Int()
	v.Contract.Symbol = r.String()
	v.Contract.SecType = r.String()
	v.Contract.LastTradeDate = r.String()
	v.Contract.Strike = r.Float()
	v.Contract.Right = r.String()
	v.Contract.Multiplier = r.String()
	v.Contract.Exchange = r.String()
	v.Contract.Currency = r.String()
	v.Contract.LocalSymbol = r.String()
	v.Contract.TradingClass = r.String()
	v.Quantity = r.Decimal()
	v.AvgCost = r.Float()
	return v, r.Err()
}

// DecodeAccountValue parses one account key/value row.
func DecodeAccountValue(fields []string) (schema.AccountValue, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	v := schema.AccountValue{
		Key:      r.String(),
		Value:    r.String(),
		Currency: r.String(),
		Account:  r.String(),
	}
	return v, r.Err()
}

// DecodeHeadTimestamp parses a headTimestamp message.
func DecodeHeadTimestamp(fields []string) (schema.HeadTimestamp, error) {
	r := NewReader(fields)
	v := schema.HeadTimestamp{ReqID: r.Int()}
	v.Time = r.Time()
	return v, r.Err()
}

// DecodePortfolioValue parses one portfolio row of an account-updates
// stream.
func DecodePortfolioValue(fields []string) (schema.PortfolioValue, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	var v schema.PortfolioValue
	v.Contract.ConID = r.Int()
	v.Contract.Symbol = r.String()
	v.Contract.SecType = r.String()
	v.Contract.LastTradeDate = r.String()
	v.Contract.Strike = r.Float()
	v.Contract.Right = r.String()
	v.Contract.Multiplier = r.String()
	v.Contract.Exchange = r.String()
	v.Contract.Currency = r.String()
	v.Contract.LocalSymbol = r.String()
	v.Contract.TradingClass = r.String()
	v.Position = r.Decimal()
	v.MarketPrice = r.Float()
	v.MarketValue = r.Float()
	v.AvgCost = r.Float()
	v.UnrealizedPNL = r.Float()
	v.RealizedPNL = r.Float()
	v.Account = r.String()
	return v, r.Err()
}

// DecodeCurrentTime parses a currentTime message.
func DecodeCurrentTime(fields []string) (int64, error) {
	r := NewReader(fields)
	r.Skip(1) // version
	epoch := r.Int()
	return epoch, r.Err()
}

// DecodeHistoricalTicks parses a historicalTicks message (all three
// variants share the layout this client requests: time, price, size
// triplets plus a terminal done flag).
func DecodeHistoricalTicks(fields []string) (reqID int64, ticks []schema.HistoricalTick, done bool, err error) {
	r := NewReader(fields)
	reqID = r.Int()
	count := r.Int()
	if r.Err() != nil {
		return reqID, nil, false, r.Err()
	}
	ticks = make([]schema.HistoricalTick, 0, count)
	for i := int64(0); i < count; i++ {
		tick := schema.HistoricalTick{
			Time:  r.Time(),
			Price: r.Float(),
			Size:  r.Decimal(),
		}
		if r.Err() != nil {
			return reqID, ticks, false, r.Err()
		}
		ticks = append(ticks, tick)
	}
	done = r.Bool()
	return reqID, ticks, done, r.Err()
}

// DecodeOrderBound parses an orderBound push.
func DecodeOrderBound(fields []string) (schema.OrderBound, error) {
	r := NewReader(fields)
	v := schema.OrderBound{
		PermID:   r.Int(),
		ClientID: r.Int(),
		OrderID:  r.Int(),
	}
	return v, r.Err()
}
