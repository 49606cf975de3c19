package transform

import (
	"context"
	"regexp"
	"strings"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// lombardTransformer handles Lombard Odier exports. Numbers are already
// European; transactions come from the cash-movements file, whose Position
// column embeds the ISIN inside free text. Bond detection needs both a rate
// pattern in the description and a dotted maturity date, except Structured
// Products which always get bond pricing.
type lombardTransformer struct {
	deps Deps
}

func newLombard(deps Deps) *lombardTransformer { return &lombardTransformer{deps: deps} }

func (t *lombardTransformer) Bank() string { return "LO" }

var lombardAssetTypes = map[string]domain.AssetType{
	"Cash":                       domain.AssetCash,
	"Currency Forward":           domain.AssetMoneyMarket,
	"Short-Term Instruments":     domain.AssetMoneyMarket,
	"Fixed Income":               domain.AssetFixedIncome,
	"Equities":                   domain.AssetEquity,
	"Structured Products":        domain.AssetAlternatives,
	"Hedge Funds":                domain.AssetAlternatives,
	"Gold and other Commodities": domain.AssetAlternatives,
	"Other Investments":          domain.AssetAlternatives,
}

var (
	isinPattern       = regexp.MustCompile(`\b[A-Z]{2}[A-Z0-9]{10}\b`)
	fractionPattern   = regexp.MustCompile(`\b(\d+\s+\d+/\d+|\d+/\d+)\b`)
	dottedDatePattern = regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`)
)

func (t *lombardTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		out.Securities = t.securities(in.Securities)
	}
	if in.CashMovements != nil {
		out.Transactions = t.transactions(in.CashMovements)
	}
	return out, nil
}

func (t *lombardTransformer) securities(tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		assetClass := tbl.Get(row, "Asset Class Code")
		description := tbl.Get(row, "Description")
		isBond := lombardIsBond(assetClass, description)

		rec := domain.SecurityRecord{
			Bank:        tbl.Get(row, "bank"),
			Client:      tbl.Get(row, "client"),
			Account:     tbl.Get(row, "account"),
			AssetType:   lombardAsset(assetClass),
			Name:        description,
			CUSIP:       tbl.Get(row, "ISIN"),
			Quantity:    tbl.Get(row, "Quantity"),
			MarketValue: tbl.Get(row, "Valuation\n(VC, End)"),
			CostBasis:   tbl.Get(row, "Total Purchase Cost (VC, UR)"),
		}
		if isBond {
			rec.Price = BondPrice(tbl.Get(row, "Last Price (QC)"), LocaleEuropean)
			rec.CouponRate = CouponFromDescription(description)
			if m := dottedDatePattern.FindString(description); m != "" {
				rec.MaturityDate = ConvertDottedDate(m)
			}
		} else {
			rec.Price = tbl.Get(row, "Last Price (QC)")
		}
		records = append(records, rec)
	}
	return records
}

func (t *lombardTransformer) transactions(tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		records = append(records, domain.TransactionRecord{
			Bank:            tbl.Get(row, "bank"),
			Client:          tbl.Get(row, "client"),
			Account:         tbl.Get(row, "account"),
			Date:            isoDate(tbl.Get(row, "Accounting date")),
			TransactionType: tbl.Get(row, "Transaction"),
			CUSIP:           extractISIN(tbl.Get(row, "Position")),
			Price:           tbl.Get(row, "Price"),
			Quantity:        tbl.Get(row, "Quantity"),
			Amount:          tbl.Get(row, "Amount"),
		})
	}
	return records
}

func lombardAsset(assetClass string) domain.AssetType {
	if t, ok := lombardAssetTypes[assetClass]; ok {
		return t
	}
	return domain.AssetUnknown
}

func lombardIsBond(assetClass, description string) bool {
	if assetClass == "Structured Products" {
		return true
	}
	if assetClass != "Fixed Income" {
		return false
	}
	hasRate := fractionPattern.MatchString(description) ||
		couponPrefixPattern.MatchString(description)
	return hasRate && dottedDatePattern.MatchString(description)
}

// extractISIN pulls the 12-character ISIN out of a position description.
func extractISIN(position string) string {
	return isinPattern.FindString(strings.ToUpper(position))
}

// isoDate converts "2025-04-01" (optionally with a time suffix) to
// MM/DD/YYYY.
func isoDate(value string) string {
	s := strings.TrimSpace(value)
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return ""
	}
	return pad2(parts[1]) + "/" + pad2(parts[2]) + "/" + parts[0]
}
