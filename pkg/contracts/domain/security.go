package domain

// AssetType is the canonical asset classification vocabulary. Every
// bank-specific taxonomy string is mapped onto one of these values.
type AssetType string

const (
	AssetEquity       AssetType = "Equity"
	AssetFixedIncome  AssetType = "Fixed Income"
	AssetMoneyMarket  AssetType = "Money Market"
	AssetCash         AssetType = "Cash"
	AssetAlternatives AssetType = "Alternatives"
	AssetUnknown      AssetType = "Unknown"
)

// SecurityRecord is one canonical security position row. Numeric fields are
// exact decimal strings in the European convention (comma decimal separator)
// so that financial quantities never round-trip through binary floats.
// MaturityDate, when present, is MM/DD/YYYY and only set on bonds.
type SecurityRecord struct {
	Bank         string    `json:"bank" validate:"required"`
	Client       string    `json:"client" validate:"required"`
	Account      string    `json:"account" validate:"required"`
	AssetType    AssetType `json:"asset_type"`
	Name         string    `json:"name"`
	Ticker       string    `json:"ticker"`
	CUSIP        string    `json:"cusip"`
	Quantity     string    `json:"quantity"`
	Price        string    `json:"price"`
	MarketValue  string    `json:"market_value"`
	CostBasis    string    `json:"cost_basis"`
	MaturityDate string    `json:"maturity_date"`
	CouponRate   string    `json:"coupon_rate"`
}

// SecurityColumns is the fixed column order of the canonical securities
// output file.
var SecurityColumns = []string{
	"bank", "client", "account", "asset_type", "name", "ticker", "cusip",
	"quantity", "price", "market_value", "cost_basis", "maturity_date", "coupon_rate",
}

// Row renders the record in SecurityColumns order.
func (r SecurityRecord) Row() []string {
	return []string{
		r.Bank, r.Client, r.Account, string(r.AssetType), r.Name, r.Ticker, r.CUSIP,
		r.Quantity, r.Price, r.MarketValue, r.CostBasis, r.MaturityDate, r.CouponRate,
	}
}
