package transform

import (
	"context"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// csTransformer handles Credit Suisse exports. Files arrive per account and
// are combined upstream; bank/client/account are the combine tags, so no
// mapping lookup is needed. Numbers are American-formatted, dates dotted.
type csTransformer struct {
	deps Deps
}

func newCS(deps Deps) *csTransformer { return &csTransformer{deps: deps} }

func (t *csTransformer) Bank() string { return "CS" }

const csBondSubcategory = "Bonds / USD"

func (t *csTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		out.Securities = t.securities(in.Securities)
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(in.Transactions)
	}
	return out, nil
}

func (t *csTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		subcategory := tbl.Get(row, "Asset Subcategory")
		isBond := subcategory == csBondSubcategory
		description := tbl.Get(row, "Description")

		rec := domain.SecurityRecord{
			Bank:        tbl.Get(row, "bank"),
			Client:      tbl.Get(row, "client"),
			Account:     tbl.Get(row, "account"),
			AssetType:   csAssetType(tbl.Get(row, "Asset Category"), subcategory),
			Name:        description,
			CUSIP:       tbl.Get(row, "Valor"),
			Quantity:    ToEuropean(tbl.Get(row, "Nominal/Number"), LocaleAmerican),
			MarketValue: ToEuropean(tbl.Get(row, "Value in USD"), LocaleAmerican),
			CostBasis:   CostBasis(tbl.Get(row, "Purchase Price"), tbl.Get(row, "Nominal/Number")),
		}
		if isBond {
			rec.Price = BondPrice(tbl.Get(row, "Price"), LocaleAmerican)
			rec.MaturityDate = ConvertDottedDate(tbl.Get(row, "Maturity"))
			rec.CouponRate = CouponFromDescription(description)
		} else {
			rec.Price = ToEuropean(tbl.Get(row, "Price"), LocaleAmerican)
		}
		records = append(records, rec)
	}
	return records
}

func (t *csTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		records = append(records, domain.TransactionRecord{
			Bank:            tbl.Get(row, "bank"),
			Client:          tbl.Get(row, "client"),
			Account:         tbl.Get(row, "account"),
			Date:            ConvertDottedDate(tbl.Get(row, "Booking Date")),
			TransactionType: truncate(tbl.Get(row, "Text"), 56),
			CUSIP:           tbl.Get(row, "ID"),
			Price:           tbl.Get(row, "Precio"),
			Quantity:        tbl.Get(row, "Cantidad"),
			Amount:          SignedAmount(tbl.Get(row, "Debit"), tbl.Get(row, "Credit"), LocaleAmerican),
		})
	}
	return records
}

// csAssetType folds the two-level CS taxonomy into the canonical one. The
// liquidity bucket splits on subcategory; everything else keys on the
// category alone.
func csAssetType(category, subcategory string) domain.AssetType {
	switch category {
	case "Liquidity & Similar":
		switch subcategory {
		case "Accounts":
			return domain.AssetCash
		case "Money Market Papers / USD":
			return domain.AssetFixedIncome
		case "Money Market Funds / USD", "Fiduciary Investments":
			return domain.AssetMoneyMarket
		default:
			return domain.AssetCash
		}
	case "Fixed Income & Similar", "Mixed & Other Investments":
		return domain.AssetFixedIncome
	case "Equities & Similar":
		return domain.AssetEquity
	case "AI, Commodities & Real Estate":
		return domain.AssetAlternatives
	default:
		return domain.AssetUnknown
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
