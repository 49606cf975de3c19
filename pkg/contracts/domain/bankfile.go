package domain

// FileKind classifies a raw bank export by the role it plays in the pipeline.
type FileKind string

const (
	KindSecurities    FileKind = "securities"
	KindTransactions  FileKind = "transactions"
	KindUnitCost      FileKind = "unitcost"
	KindCashMovements FileKind = "cashmovements"
)

// RawBankFile describes a single discovered export file. It is identified
// purely by filename tokens and exists only for the duration of one run.
type RawBankFile struct {
	Bank    string   `json:"bank" validate:"required"`
	Client  string   `json:"client"`
	Account string   `json:"account"`
	Date    string   `json:"date" validate:"required"` // DD_MM_YYYY
	Kind    FileKind `json:"kind" validate:"required"`
	Path    string   `json:"path" validate:"required"`
}

// AccountEntry is the resolved (client, account) pair for one raw custodial
// account identifier.
type AccountEntry struct {
	Client      string `json:"client"`
	Account     string `json:"account"`
	AccountName string `json:"account_name,omitempty"`
}
