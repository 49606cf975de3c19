package transform

import (
	"context"
	"strings"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// jpmTransformer handles JPMorgan exports and the banks whose exports share
// that layout (Safra, Citi, STDSZ). Files arrive pre-combined without client
// columns, so every row resolves its Account Number through the mapping
// store; unresolved rows are dropped.
type jpmTransformer struct {
	bank     string
	deps     Deps
	resolver *Resolver
}

func newJPM(bank string, deps Deps) *jpmTransformer {
	return &jpmTransformer{
		bank:     bank,
		deps:     deps,
		resolver: NewResolver(bank, deps.Mappings, PolicyDrop, deps.Logger),
	}
}

func (t *jpmTransformer) Bank() string { return t.bank }

func (t *jpmTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		out.Securities = t.securities(in.Securities)
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(in.Transactions)
	}
	return out, nil
}

func (t *jpmTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "Account Number"))
		if !keep {
			continue
		}
		name := tbl.Get(row, "Description")
		maturity := tbl.Get(row, "Maturity Date")
		if maturity == "" {
			maturity = MaturityFromMAT(name)
		} else {
			maturity = americanDate(maturity)
		}
		assetClass := tbl.Get(row, "Asset Class")
		isBond := maturity != "" &&
			(assetClass == "Fixed Income & Cash" || assetClass == "Equity")

		rec := domain.SecurityRecord{
			Bank:         t.bank,
			Client:       entry.Client,
			Account:      entry.Account,
			AssetType:    jpmAsset(assetClass, tbl.Get(row, "Asset Strategy")),
			Name:         name,
			Ticker:       tbl.Get(row, "Ticker"),
			CUSIP:        jpmCUSIP(tbl.Get(row, "CUSIP"), tbl.Get(row, "Security ID")),
			Quantity:     ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			MarketValue:  ToEuropean(tbl.Get(row, "Value"), LocaleAmerican),
			CostBasis:    ToEuropean(tbl.Get(row, "Cost"), LocaleAmerican),
			MaturityDate: maturity,
		}
		if isBond {
			rec.Price = BondPrice(tbl.Get(row, "Price"), LocaleAmerican)
			rec.CouponRate = CouponAnywhere(name)
		} else {
			rec.Price = ToEuropean(tbl.Get(row, "Price"), LocaleAmerican)
		}
		records = append(records, rec)
	}
	return records
}

func (t *jpmTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		entry, keep := t.resolver.Resolve(tbl.Get(row, "Account Number"))
		if !keep {
			continue
		}
		records = append(records, domain.TransactionRecord{
			Bank:            t.bank,
			Client:          entry.Client,
			Account:         entry.Account,
			Date:            americanDate(tbl.Get(row, "Settlement Date")),
			TransactionType: tbl.Get(row, "Type"),
			CUSIP:           tbl.Get(row, "Cusip"),
			Price:           ToEuropean(tbl.Get(row, "Price USD"), LocaleAmerican),
			Quantity:        ToEuropean(tbl.Get(row, "Quantity"), LocaleAmerican),
			Amount:          ToEuropean(tbl.Get(row, "Amount USD"), LocaleAmerican),
		})
	}
	return records
}

// jpmAsset splits the catch-all "Fixed Income & Cash" class on strategy;
// other classes map directly.
func jpmAsset(assetClass, strategy string) domain.AssetType {
	if strings.Contains(assetClass, "Fixed Income") {
		switch {
		case strings.Contains(strategy, "Cash"):
			return domain.AssetCash
		case strings.Contains(strategy, "Money Market"):
			return domain.AssetMoneyMarket
		default:
			return domain.AssetFixedIncome
		}
	}
	switch assetClass {
	case "Equity":
		return domain.AssetEquity
	case "Alternatives", "Alternative Assets":
		return domain.AssetAlternatives
	case "":
		return domain.AssetUnknown
	default:
		return domain.AssetUnknown
	}
}

// jpmCUSIP prefers the CUSIP column, falling back to Security ID when the
// export left it blank.
func jpmCUSIP(cusip, securityID string) string {
	if cusip != "" {
		return cusip
	}
	return securityID
}
