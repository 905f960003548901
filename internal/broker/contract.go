package broker

import "strconv"

// Contract mirrors the source's Contract dataclass
// (original_source/.../ibkr.py) — the financial instrument identifier
// every historical/realtime/contract-details request carries. Field names
// follow the IB API's own camelCase wire vocabulary via Fields, not Go
// naming, since these values are serialized positionally into outbound
// frames rather than consumed as a Go API surface.
type Contract struct {
	ConID                  int
	Symbol                 string
	SecType                string
	LastTradeDateOrContract string
	Strike                 float64
	Right                  string
	Multiplier             string
	Exchange               string
	PrimaryExchange        string
	Currency               string
	LocalSymbol            string
	TradingClass           string
}

// Fields renders the contract as the ordered field sequence the IB wire
// protocol expects for a contract argument.
func (c Contract) Fields() []string {
	return []string{
		strconv.Itoa(c.ConID),
		c.Symbol,
		c.SecType,
		c.LastTradeDateOrContract,
		strconv.FormatFloat(c.Strike, 'f', -1, 64),
		c.Right,
		c.Multiplier,
		c.Exchange,
		c.PrimaryExchange,
		c.Currency,
		c.LocalSymbol,
		c.TradingClass,
	}
}

// TestContract is the source's TEST_CONTRACT default, used by vendor
// getters that don't require the caller to specify every contract field.
var TestContract = Contract{Symbol: "AAPL", SecType: "STK", Exchange: "SMART", Currency: "USD"}
