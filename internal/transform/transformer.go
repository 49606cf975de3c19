package transform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bankfeed/internal/mappings"
	"bankfeed/internal/mindicador"
	"bankfeed/internal/openfigi"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// UnmappedPolicy decides what happens to a row whose raw account identifier
// has no mapping entry.
type UnmappedPolicy int

const (
	// PolicyDrop discards the row with a warning.
	PolicyDrop UnmappedPolicy = iota
	// PolicyPassthrough keeps the row with its raw identifier untouched.
	PolicyPassthrough
	// PolicyMark keeps the row with client and account set to UnmappedLabel.
	PolicyMark
)

// UnmappedLabel marks rows kept under PolicyMark so they are findable in the
// canonical output.
const UnmappedLabel = "UNMAPPED"

// Input carries one bank's combined tables into its transformer. Tables are
// nil when the bank produced no file of that kind.
type Input struct {
	Securities    *sheets.Table
	Transactions  *sheets.Table
	UnitCost      *sheets.Table
	CashMovements *sheets.Table
	Date          string // DD_MM_YYYY
}

// Output is one bank's canonical contribution for the run.
type Output struct {
	Securities   []domain.SecurityRecord
	Transactions []domain.TransactionRecord
}

// Transformer converts one bank's combined tables into canonical records.
type Transformer interface {
	Bank() string
	Transform(ctx context.Context, in *Input) (*Output, error)
}

// Deps are the shared services a transformer may need.
type Deps struct {
	Mappings   *mappings.Store
	OpenFIGI   *openfigi.Client
	Mindicador *mindicador.Client
	Logger     *slog.Logger
}

// New returns the transformer for a bank code. Aliases share an
// implementation parameterized by bank name.
func New(bank string, deps Deps) (Transformer, error) {
	switch strings.ToUpper(bank) {
	case "CS":
		return newCS(deps), nil
	case "CSC":
		return newCSC(deps), nil
	case "JB":
		return newJB(deps), nil
	case "PERSHING":
		return newPershing(deps), nil
	case "HSBC":
		return newHSBC(deps), nil
	case "JPM":
		return newJPM("JPM", deps), nil
	case "SAFRA":
		return newJPM("Safra", deps), nil
	case "CITI":
		return newJPM("Citi", deps), nil
	case "STDSZ":
		return newJPM("STDSZ", deps), nil
	case "MS":
		return newMS(deps), nil
	case "VALLEY":
		return newValley(deps), nil
	case "LO":
		return newLombard(deps), nil
	case "IDB":
		return newIDB(deps), nil
	case "BANCHILE":
		return newBanchile(deps), nil
	default:
		return nil, fmt.Errorf("no transformer registered for bank %q", bank)
	}
}

// Resolver applies a bank's mapping sheet and unmapped policy to raw account
// identifiers.
type Resolver struct {
	bank   string
	store  *mappings.Store
	policy UnmappedPolicy
	logger *slog.Logger
}

// NewResolver builds a resolver for one bank.
func NewResolver(bank string, store *mappings.Store, policy UnmappedPolicy, logger *slog.Logger) *Resolver {
	return &Resolver{bank: bank, store: store, policy: policy, logger: logger}
}

// Resolve maps a raw account identifier. keep=false means the row must be
// discarded. On a miss the policy decides the outcome and the miss is logged.
func (r *Resolver) Resolve(rawAccount string) (entry domain.AccountEntry, keep bool) {
	if r.store != nil {
		if e, ok := r.store.Lookup(r.bank, rawAccount); ok {
			return e, true
		}
	}
	r.logger.Warn("account has no mapping entry",
		slog.String("bank", r.bank),
		slog.String("account_suffix", suffix(rawAccount)))

	switch r.policy {
	case PolicyPassthrough:
		return domain.AccountEntry{Client: rawAccount, Account: rawAccount}, true
	case PolicyMark:
		return domain.AccountEntry{Client: UnmappedLabel, Account: UnmappedLabel}, true
	default:
		return domain.AccountEntry{}, false
	}
}

func suffix(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
