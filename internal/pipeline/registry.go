// Package pipeline orchestrates the weekly normalization run: discovery,
// combination, transformation, and canonical output for every configured
// bank, fanned out over a bounded worker pool.
package pipeline

import (
	"bankfeed/internal/combine"
	"bankfeed/internal/header"
	"bankfeed/pkg/contracts/domain"
)

// Capability describes how one bank's files are processed. CombineConfigs
// holds one entry per file kind the bank ships; kinds not listed are
// ignored for that bank. RequiresMappings gates the run when the mapping
// workbook has no sheet for the bank.
type Capability struct {
	Bank             string
	CombineConfigs   map[domain.FileKind]combine.Config
	RequiresMappings bool
}

// Banks returns the capability table for every supported bank. Layout
// knowledge (header labels, filters, footer behavior) is centralized here;
// per-cell semantics live in the transformers.
func Banks() map[string]Capability {
	caps := map[string]Capability{}
	add := func(c Capability) { caps[c.Bank] = c }

	add(Capability{
		Bank: "CS",
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "CS", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Description", "Valor", "Nominal/Number", "Value in USD", "Price", "Asset Category"},
					MinMatches: 4,
				},
				RequiredColumns:  []string{"Description", "Value in USD"},
				TruncateAtFooter: true,
				Filters: []combine.RowFilter{
					combine.DropDisclaimers("Description", "Value in USD"),
				},
			},
			domain.KindTransactions: {
				Bank: "CS", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Booking Date", "Text", "Debit", "Credit", "ID"},
					MinMatches: 3,
				},
				RequiredColumns:  []string{"Booking Date", "Text"},
				TruncateAtFooter: true,
				Filters: []combine.RowFilter{
					combine.DropDisclaimers("Text", "Credit"),
				},
			},
		},
	})

	add(Capability{
		Bank: "CSC",
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "CSC", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Symbol", "Description", "Qty (Quantity)", "Price", "Mkt Val (Market Value)", "Security Type"},
					MinMatches: 4,
				},
				RequiredColumns:  []string{"Description", "Mkt Val (Market Value)"},
				TruncateAtFooter: true,
				Filters: []combine.RowFilter{
					combine.DropAccountTotal("Symbol"),
					combine.DropStarPrefixed("Symbol"),
				},
			},
			domain.KindTransactions: {
				Bank: "CSC", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Date", "Action", "Symbol", "Quantity", "Amount"},
					MinMatches: 3,
				},
				RequiredColumns:  []string{"Date", "Action"},
				TruncateAtFooter: true,
				Filters: []combine.RowFilter{
					combine.DropDisclaimers("Action", "Amount"),
				},
			},
		},
	})

	add(Capability{
		Bank: "JB",
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "JB", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Asset Class", "Instrument Name", "Instrument", "Quantity", "Market Value"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Instrument Name", "Market Value"},
			},
			domain.KindTransactions: {
				Bank: "JB", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Accounting Date", "Operation Nature", "ISIN", "Net Amount"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Accounting Date", "Net Amount"},
			},
		},
	})

	add(Capability{
		Bank:             "Pershing",
		RequiresMappings: true,
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "Pershing", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"CUSIP", "Description", "Quantity", "Market Value", "Security ID", "Asset Classification"},
					MinMatches: 4,
				},
				RequiredColumns: []string{"Description", "Market Value"},
			},
			domain.KindTransactions: {
				Bank: "Pershing", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Cusip", "Activity Description", "Settlement Date", "Net Amount"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Activity Description", "Net Amount"},
			},
			domain.KindUnitCost: {
				Bank: "Pershing", Kind: domain.KindUnitCost, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Security", "Total Cost"},
					MinMatches: 2,
				},
				RequiredColumns: []string{"Security", "Total Cost"},
			},
		},
	})

	add(Capability{
		Bank:             "HSBC",
		RequiresMappings: true,
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "HSBC", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"CUSIP", "Description", "Quantity", "Market Value", "Asset Classification"},
					MinMatches: 4,
				},
				RequiredColumns: []string{"Description", "Market Value"},
			},
			domain.KindTransactions: {
				Bank: "HSBC", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Cusip", "Activity Description", "Settlement Date", "Net Amount"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Activity Description", "Net Amount"},
			},
			domain.KindUnitCost: {
				Bank: "HSBC", Kind: domain.KindUnitCost, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Security", "Total Cost"},
					MinMatches: 2,
				},
				RequiredColumns: []string{"Security", "Total Cost"},
			},
		},
	})

	for _, bank := range []string{"JPM", "Safra", "Citi", "STDSZ"} {
		add(Capability{
			Bank:             bank,
			RequiresMappings: true,
			CombineConfigs: map[domain.FileKind]combine.Config{
				domain.KindSecurities: {
					Bank: bank, Kind: domain.KindSecurities, FixedHeaderRow: -1,
					HeaderSig: header.Signature{
						Labels:     []string{"Account Number", "Asset Class", "Description", "Quantity", "Price", "Value"},
						MinMatches: 4,
					},
					RequiredColumns:  []string{"Account Number", "Description"},
					TruncateAtFooter: true,
				},
				domain.KindTransactions: {
					Bank: bank, Kind: domain.KindTransactions, FixedHeaderRow: -1,
					HeaderSig: header.Signature{
						Labels:     []string{"Account Number", "Settlement Date", "Type", "Cusip", "Amount USD"},
						MinMatches: 3,
					},
					RequiredColumns:  []string{"Account Number", "Settlement Date"},
					TruncateAtFooter: true,
				},
			},
		})
	}

	add(Capability{
		Bank:             "MS",
		RequiresMappings: true,
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "MS", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Account", "Name", "Product Type", "Symbol", "Quantity", "Market Value ($)"},
					MinMatches: 4,
				},
				RequiredColumns:  []string{"Account", "Name"},
				TruncateAtFooter: true,
				Filters: []combine.RowFilter{
					combine.DropAccountTotal("Name"),
				},
			},
			domain.KindTransactions: {
				Bank: "MS", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Account", "Activity Date", "Activity", "Cusip", "Amount($)"},
					MinMatches: 3,
				},
				RequiredColumns:  []string{"Account", "Activity Date"},
				TruncateAtFooter: true,
			},
		},
	})

	add(Capability{
		Bank: "Valley",
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "Valley", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"CUSIP", "Description", "Quantity", "Market Value", "Adj Cost Basis"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Description", "Market Value"},
				Filters: []combine.RowFilter{
					combine.DropAccountTotal("Description"),
				},
			},
			domain.KindTransactions: {
				Bank: "Valley", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"CUSIP", "Post Date", "Description", "Debit", "Credit"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Post Date", "Description"},
			},
		},
	})

	add(Capability{
		Bank: "LO",
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "LO", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Asset Class Code", "Description", "ISIN", "Quantity", "Last Price (QC)"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Description", "ISIN"},
			},
			domain.KindCashMovements: {
				Bank: "LO", Kind: domain.KindCashMovements, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Accounting date", "Transaction", "Position", "Amount"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Accounting date", "Amount"},
			},
		},
	})

	add(Capability{
		Bank:             "IDB",
		RequiresMappings: true,
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "IDB", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Name", "CUSIP", "Quantity", "Market Value", "Original Cost"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Name", "Market Value"},
			},
			domain.KindTransactions: {
				Bank: "IDB", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Fecha", "Description", "CUSIP", "Amount"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Fecha", "Amount"},
			},
		},
	})

	add(Capability{
		Bank: "Banchile",
		CombineConfigs: map[domain.FileKind]combine.Config{
			domain.KindSecurities: {
				Bank: "Banchile", Kind: domain.KindSecurities, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Producto", "Instrumento", "Nombre", "Moneda Origen (MO)", "Monto Final (MO)"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Nombre", "Monto Final (MO)"},
			},
			domain.KindTransactions: {
				Bank: "Banchile", Kind: domain.KindTransactions, FixedHeaderRow: -1,
				HeaderSig: header.Signature{
					Labels:     []string{"Fecha de movimiento", "Operación", "Instrumento", "Monto Transado (MO)"},
					MinMatches: 3,
				},
				RequiredColumns: []string{"Fecha de movimiento", "Monto Transado (MO)"},
			},
		},
	})

	return caps
}

// BankNames returns the registry keys in no particular order.
func BankNames() []string {
	caps := Banks()
	names := make([]string, 0, len(caps))
	for name := range caps {
		names = append(names, name)
	}
	return names
}
