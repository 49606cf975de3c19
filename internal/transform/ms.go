package transform

import (
	"context"
	"strings"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// msTransformer handles Morgan Stanley exports. Accounts resolve through
// the mapping store with unresolved rows dropped; a position with a maturity
// date is priced as a bond regardless of its product type.
type msTransformer struct {
	deps     Deps
	resolver *Resolver
}

func newMS(deps Deps) *msTransformer {
	return &msTransformer{
		deps:     deps,
		resolver: NewResolver("MS", deps.Mappings, PolicyDrop, deps.Logger),
	}
}

func (t *msTransformer) Bank() string { return "MS" }

func (t *msTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		out.Securities = t.securities(in.Securities)
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(in.Transactions)
	}
	return out, nil
}

func (t *msTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "Account"))
		if !keep {
			continue
		}
		maturity := americanDate(tbl.Get(row, "Maturity Date"))

		rec := domain.SecurityRecord{
			Bank:         "MS",
			Client:       entry.Client,
			Account:      entry.Account,
			AssetType:    msAsset(tbl.Get(row, "Product Type"), tbl.Get(row, "Symbol")),
			Name:         tbl.Get(row, "Name"),
			Ticker:       tbl.Get(row, "Symbol"),
			CUSIP:        tbl.Get(row, "CUSIP"),
			Quantity:     ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			MarketValue:  ToEuropean(tbl.Get(row, "Market Value ($)"), LocaleAmerican),
			CostBasis:    ToEuropean(tbl.Get(row, "Total Cost ($)"), LocaleAmerican),
			MaturityDate: maturity,
		}
		if maturity != "" {
			rec.Price = BondPrice(tbl.Get(row, "Last ($)"), LocaleAmerican)
			rec.CouponRate = CouponAnywhere(tbl.Get(row, "Name"))
		} else {
			rec.Price = ToEuropean(tbl.Get(row, "Last ($)"), LocaleAmerican)
		}
		records = append(records, rec)
	}
	return records
}

func (t *msTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "Account"))
		if !keep {
			continue
		}
		records = append(records, domain.TransactionRecord{
			Bank:            "MS",
			Client:          entry.Client,
			Account:         entry.Account,
			Date:            americanDate(tbl.Get(row, "Activity Date")),
			TransactionType: tbl.Get(row, "Activity"),
			CUSIP:           tbl.Get(row, "Cusip"),
			Price:           ToEuropean(tbl.Get(row, "Price($)"), LocaleAmerican),
			Quantity:        ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			Amount:          ToEuropean(tbl.Get(row, "Amount($)"), LocaleAmerican),
		})
	}
	return records
}

func msAsset(productType, ticker string) domain.AssetType {
	switch {
	case strings.Contains(productType, "Equity"), strings.Contains(productType, "ETF"),
		strings.Contains(productType, "Stock"):
		return domain.AssetEquity
	case strings.Contains(productType, "Fixed Income"), strings.Contains(productType, "Bond"):
		return domain.AssetFixedIncome
	case strings.Contains(productType, "Money Market"):
		return domain.AssetMoneyMarket
	case strings.Contains(productType, "Cash"), ticker == "" && productType == "":
		return domain.AssetCash
	case strings.Contains(productType, "Alternative"):
		return domain.AssetAlternatives
	default:
		return domain.AssetUnknown
	}
}
