package transform

import (
	"context"
	"strings"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// jbTransformer handles Julius Baer exports. Numbers are already in the
// European convention; dates arrive as DD-MM-YYYY.
type jbTransformer struct {
	deps Deps
}

func newJB(deps Deps) *jbTransformer { return &jbTransformer{deps: deps} }

func (t *jbTransformer) Bank() string { return "JB" }

var jbAssetTypes = map[string]domain.AssetType{
	"Cash and short-term investments": domain.AssetMoneyMarket,
	"Bonds and similar positions":     domain.AssetFixedIncome,
	"Equities and similar positions":  domain.AssetEquity,
	"Alternative investments":         domain.AssetAlternatives,
	"Alternative instruments":         domain.AssetAlternatives,
	"Other funds and investment products": domain.AssetAlternatives,
	"Cash": domain.AssetCash,
}

func (t *jbTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		out.Securities = t.securities(in.Securities)
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(in.Transactions)
	}
	return out, nil
}

func (t *jbTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		assetClass := tbl.Get(row, "Asset Class")
		isBond := assetClass == "Bonds and similar positions"
		name := tbl.Get(row, "Instrument Name")

		rec := domain.SecurityRecord{
			Bank:         tbl.Get(row, "bank"),
			Client:       tbl.Get(row, "client"),
			Account:      tbl.Get(row, "account"),
			AssetType:    jbAsset(assetClass),
			Name:         name,
			CUSIP:        tbl.Get(row, "Instrument"),
			Quantity:     tbl.Get(row, "Quantity"),
			MarketValue:  tbl.Get(row, "Market Value"),
			CostBasis:    tbl.Get(row, "Net Cost Value"),
			MaturityDate: dashedDate(tbl.Get(row, "Maturity Date")),
		}
		if isBond {
			rec.Price = BondPrice(tbl.Get(row, "Price"), LocaleEuropean)
			rec.CouponRate = CouponAnywhere(name)
		} else {
			rec.Price = tbl.Get(row, "Price")
		}
		records = append(records, rec)
	}
	return records
}

func (t *jbTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		records = append(records, domain.TransactionRecord{
			Bank:            tbl.Get(row, "bank"),
			Client:          tbl.Get(row, "client"),
			Account:         tbl.Get(row, "account"),
			Date:            dashedDate(tbl.Get(row, "Accounting Date")),
			TransactionType: tbl.Get(row, "Operation Nature"),
			CUSIP:           tbl.Get(row, "ISIN"),
			Price:           tbl.Get(row, "Price"),
			Quantity:        tbl.Get(row, "Quantity"),
			Amount:          tbl.Get(row, "Net Amount"),
		})
	}
	return records
}

func jbAsset(assetClass string) domain.AssetType {
	if t, ok := jbAssetTypes[assetClass]; ok {
		return t
	}
	return domain.AssetUnknown
}

// dashedDate converts DD-MM-YYYY into MM/DD/YYYY.
func dashedDate(value string) string {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 3 {
		return ""
	}
	day, month, year := pad2(parts[0]), pad2(parts[1]), parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	if len(year) != 4 {
		return ""
	}
	return month + "/" + day + "/" + year
}
