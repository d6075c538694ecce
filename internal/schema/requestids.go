package schema

// Reserved request ids. Each singleton request type always runs under one
// fixed id so that server pushes of the same message shape can be told
// apart from request-driven responses by table membership. They sit above
// FirstDynamicReqID so the decrementing dynamic sequence never collides.
const (
	ReqIDExecutions  int64 = -2
	ReqIDNextOrderID int64 = -3
	ReqIDPositions   int64 = -4
	ReqIDAccounts    int64 = -5
	ReqIDPortfolio   int64 = -6
	ReqIDOpenOrders  int64 = -7
	ReqIDAccountData int64 = -8
	ReqIDCurrentTime int64 = -9

	// FirstDynamicReqID is where the decrementing dynamic sequence starts.
	FirstDynamicReqID int64 = -11
)
