package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one canonical transaction row. Date is MM/DD/YYYY;
// numeric fields follow the same European decimal-string convention as
// SecurityRecord.
type TransactionRecord struct {
	Bank            string `json:"bank" validate:"required"`
	Client          string `json:"client" validate:"required"`
	Account         string `json:"account" validate:"required"`
	Date            string `json:"date"`
	TransactionType string `json:"transaction_type"`
	CUSIP           string `json:"cusip"`
	Price           string `json:"price"`
	Quantity        string `json:"quantity"`
	Amount          string `json:"amount"`
}

// TransactionColumns is the fixed column order of the canonical transactions
// output file.
var TransactionColumns = []string{
	"bank", "client", "account", "date", "transaction_type", "cusip",
	"price", "quantity", "amount",
}

// Row renders the record in TransactionColumns order.
func (r TransactionRecord) Row() []string {
	return []string{
		r.Bank, r.Client, r.Account, r.Date, r.TransactionType, r.CUSIP,
		r.Price, r.Quantity, r.Amount,
	}
}

// BusinessKey identifies the economic event a transaction row represents.
// Two rows with equal keys are the same event regardless of their source row
// position, and collapse to one on merge.
func (r TransactionRecord) BusinessKey() string {
	return strings.Join([]string{
		r.Client, r.Bank, r.Account, r.Date, r.TransactionType,
		normalizeAmount(r.Amount), r.CUSIP,
	}, "|")
}

// normalizeAmount parses the European decimal string so that "36,60" and
// "36,6" key identically. Unparseable amounts key on their trimmed text.
func normalizeAmount(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return d.String()
}
