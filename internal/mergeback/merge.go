// Package mergeback folds one run's canonical records into the existing
// canonical datasets. Re-running a bank replaces that bank's prior rows
// instead of appending next to them, and transaction rows that describe the
// same economic event collapse to one.
package mergeback

import (
	"log/slog"

	"bankfeed/pkg/contracts/domain"
)

// MergeSecurities replaces bank's rows in existing with incoming. Rows of
// other banks keep their order; incoming rows land at the end.
func MergeSecurities(existing, incoming []domain.SecurityRecord, bank string) []domain.SecurityRecord {
	merged := make([]domain.SecurityRecord, 0, len(existing)+len(incoming))
	for _, r := range existing {
		if r.Bank != bank {
			merged = append(merged, r)
		}
	}
	return append(merged, incoming...)
}

// MergeTransactions replaces bank's rows in existing with incoming, then
// deduplicates the result on the business key.
func MergeTransactions(existing, incoming []domain.TransactionRecord, bank string, logger *slog.Logger) []domain.TransactionRecord {
	merged := make([]domain.TransactionRecord, 0, len(existing)+len(incoming))
	for _, r := range existing {
		if r.Bank != bank {
			merged = append(merged, r)
		}
	}
	merged = append(merged, incoming...)
	return DedupTransactions(merged, logger)
}

// DedupTransactions collapses rows with equal business keys, keeping the
// first occurrence. Banks report the same trade on overlapping statement
// windows; position in the file is presentation, not identity.
func DedupTransactions(records []domain.TransactionRecord, logger *slog.Logger) []domain.TransactionRecord {
	seen := make(map[string]struct{}, len(records))
	deduped := records[:0:0]
	dropped := 0
	for _, r := range records {
		key := r.BusinessKey()
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, r)
	}
	if dropped > 0 {
		logger.Info("dropped duplicate transactions", slog.Int("count", dropped))
	}
	return deduped
}
