package transform

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// banchileTransformer handles Banchile exports, which are denominated in
// CLP or UF per row. Monetary fields convert to USD through the indicator
// client before formatting; rows whose rate cannot be fetched keep a zero
// value rather than a wrong one.
type banchileTransformer struct {
	deps Deps
}

func newBanchile(deps Deps) *banchileTransformer { return &banchileTransformer{deps: deps} }

func (t *banchileTransformer) Bank() string { return "Banchile" }

var banchileProductTypes = map[string]domain.AssetType{
	"Acciones":        domain.AssetEquity,
	"Caja Extranjera": domain.AssetCash,
	"Caja Local":      domain.AssetCash,
}

func (t *banchileTransformer) Transform(ctx context.Context, in *Input) (*Output, error) {
	out := &Output{}
	if in.Securities != nil {
		out.Securities = t.securities(ctx, in.Securities)
	}
	if in.Transactions != nil {
		out.Transactions = t.transactions(ctx, in.Transactions)
	}
	return out, nil
}

func (t *banchileTransformer) securities(ctx context.Context, tbl *sheets.Table) []domain.SecurityRecord {
	var records []domain.SecurityRecord
	for _, row := range tbl.Rows {
		currency := tbl.Get(row, "Moneda Origen (MO)")
		records = append(records, domain.SecurityRecord{
			Bank:        tbl.Get(row, "bank"),
			Client:      tbl.Get(row, "client"),
			Account:     tbl.Get(row, "account"),
			AssetType:   banchileAsset(tbl.Get(row, "Producto"), tbl.Get(row, "Instrumento")),
			Name:        tbl.Get(row, "Nombre"),
			Ticker:      tbl.Get(row, "Instrumento"),
			CUSIP:       tbl.Get(row, "Instrumento"),
			Quantity:    tbl.Get(row, "Nominales Final"),
			Price:       t.toUSD(ctx, tbl.Get(row, "Precio / Tasa (%)"), currency, 6),
			MarketValue: t.toUSD(ctx, tbl.Get(row, "Monto Final (MO)"), currency, 2),
			CostBasis:   t.toUSD(ctx, tbl.Get(row, "Monto Inicial (MO)"), currency, 2),
		})
	}
	return records
}

func (t *banchileTransformer) transactions(ctx context.Context, tbl *sheets.Table) []domain.TransactionRecord {
	var records []domain.TransactionRecord
	for _, row := range tbl.Rows {
		currency := tbl.Get(row, "Moneda Origen (MO)")
		records = append(records, domain.TransactionRecord{
			Bank:            tbl.Get(row, "bank"),
			Client:          tbl.Get(row, "client"),
			Account:         tbl.Get(row, "account"),
			Date:            banchileDate(tbl.Get(row, "Fecha de movimiento")),
			TransactionType: tbl.Get(row, "Operación"),
			CUSIP:           tbl.Get(row, "Instrumento"),
			Price:           t.toUSD(ctx, tbl.Get(row, "Precio / Tasa (%)"), currency, 6),
			Quantity:        tbl.Get(row, "Cantidad"),
			Amount:          t.toUSD(ctx, tbl.Get(row, "Monto Transado (MO)"), currency, 2),
		})
	}
	return records
}

// toUSD parses a Chilean-formatted value, converts it to USD, and renders
// it back as a European string with the given precision.
func (t *banchileTransformer) toUSD(ctx context.Context, value, currency string, places int32) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	d, err := ParseEuropean(value)
	if err != nil {
		t.deps.Logger.Warn("unparseable monetary value",
			slog.String("bank", "Banchile"), slog.String("value", value))
		return ""
	}
	if t.deps.Mindicador == nil {
		return FormatEuropean(d, places)
	}
	usd, err := t.deps.Mindicador.ToUSD(ctx, d, currency)
	if err != nil {
		t.deps.Logger.Warn("currency conversion failed",
			slog.String("bank", "Banchile"),
			slog.String("currency", currency),
			slog.String("error", err.Error()))
		return FormatEuropean(decimal.Zero, places)
	}
	return FormatEuropean(usd, places)
}

func banchileAsset(producto, instrumento string) domain.AssetType {
	if t, ok := banchileProductTypes[producto]; ok {
		return t
	}
	upper := strings.ToUpper(instrumento)
	switch {
	case strings.HasPrefix(upper, "CFIBCH"), strings.Contains(upper, "DEUDA"):
		return domain.AssetFixedIncome
	case strings.HasPrefix(upper, "MM_"), strings.Contains(upper, "DISPONIBLE"),
		strings.Contains(upper, "FUND"):
		return domain.AssetMoneyMarket
	case producto == "Fondos":
		return domain.AssetAlternatives
	default:
		return domain.AssetUnknown
	}
}

// banchileDate converts DD/MM/YYYY into MM/DD/YYYY.
func banchileDate(value string) string {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 {
		return ""
	}
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return pad2(parts[1]) + "/" + pad2(parts[0]) + "/" + year
}
