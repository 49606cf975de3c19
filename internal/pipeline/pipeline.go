package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bankfeed/internal/combine"
	"bankfeed/internal/config"
	"bankfeed/internal/discovery"
	"bankfeed/internal/errors"
	"bankfeed/internal/mappings"
	"bankfeed/internal/mergeback"
	"bankfeed/internal/mindicador"
	"bankfeed/internal/openfigi"
	"bankfeed/internal/sheets"
	"bankfeed/internal/transform"
	"bankfeed/pkg/contracts/domain"
)

// Request parameterizes one run. Banks empty means every registered bank.
type Request struct {
	Date      string   `validate:"required"` // DD_MM_YYYY
	InputDir  string   `validate:"required,dir"`
	OutputDir string   `validate:"required"`
	Banks     []string `validate:"omitempty,dive,required"`
	DryRun    bool
}

// Orchestrator runs the full normalization pipeline.
type Orchestrator struct {
	cfg      *config.Config
	store    *mappings.Store
	figi     *openfigi.Client
	rates    *mindicador.Client
	logger   *slog.Logger
	validate *validator.Validate

	mu           sync.Mutex // guards the canonical accumulators
	securities   []domain.SecurityRecord
	transactions []domain.TransactionRecord
}

// New builds an orchestrator. The mapping store may be nil when no bank in
// the run requires one; banks that do require it are then skipped.
func New(cfg *config.Config, store *mappings.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		figi:     openfigi.NewClient(cfg.OpenFIGI.BaseURL, cfg.OpenFIGI.APIKey, logger),
		rates:    mindicador.NewClient(cfg.Mindicador.BaseURL, logger),
		logger:   logger,
		validate: validator.New(),
	}
}

// Run executes the pipeline for every requested bank. Bank failures are
// isolated: the report records them and the remaining banks' output is
// still written. Only run-wide prerequisites return an error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if err := o.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid pipeline request: %w", err)
	}
	started := time.Now()
	report := &Report{
		RunID: uuid.New().String(),
		Date:  req.Date,
	}
	o.logger.Info("pipeline run starting",
		slog.String("run_id", report.RunID),
		slog.String("date", req.Date),
		slog.Bool("dry_run", req.DryRun))

	caps := Banks()
	banks := req.Banks
	if len(banks) == 0 {
		banks = BankNames()
	}
	sort.Strings(banks)

	states := make([]*BankState, 0, len(banks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Pipeline.Workers)

	for _, bank := range banks {
		capability, registered := caps[bank]
		state := newBankState(bank)
		states = append(states, state)
		if !registered {
			state.fail(StageDiscover, errors.CodeBankPipeline,
				fmt.Sprintf("unknown bank %q", bank))
			continue
		}
		if capability.RequiresMappings && (o.store == nil || !o.store.HasBank(bank)) {
			state.skip("no mapping sheet available")
			o.logger.Warn("skipping bank without mapping sheet", slog.String("bank", bank))
			continue
		}

		g.Go(func() error {
			bankCtx, cancel := context.WithTimeout(gctx, o.cfg.Pipeline.BankTimeout)
			defer cancel()
			o.runBank(bankCtx, capability, req, state)
			return nil // bank failures live in state, never abort the group
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.RunFatal("worker pool aborted", err)
	}

	if !req.DryRun {
		if err := o.writeOutputs(req, states); err != nil {
			return nil, err
		}
	}

	for _, s := range states {
		outcome := s.Snapshot()
		report.Banks = append(report.Banks, outcome)
		report.TotalSecurities += outcome.Securities
		report.TotalTransactions += outcome.Transactions
	}
	report.Duration = time.Since(started)
	o.logger.Info("pipeline run finished",
		slog.String("run_id", report.RunID),
		slog.Int("securities", report.TotalSecurities),
		slog.Int("transactions", report.TotalTransactions),
		slog.Duration("duration", report.Duration),
		slog.Bool("failed", report.Failed()))
	return report, nil
}

// runBank drives one bank through discover, combine, and transform. All
// failures land in state.
func (o *Orchestrator) runBank(ctx context.Context, capability Capability, req Request, state *BankState) {
	logger := o.logger.With(slog.String("bank", capability.Bank))

	groups, err := discovery.Scan(o.bankInputDir(req.InputDir, capability.Bank), capability.Bank, req.Date, logger)
	if err != nil {
		state.fail(StageDiscover, errors.CodeBankPipeline, err.Error())
		return
	}
	totalFiles := 0
	for _, g := range groups {
		totalFiles += len(g.Files)
	}
	state.Files = totalFiles
	if totalFiles == 0 {
		state.skip("no files for date")
		logger.Info("no files discovered", slog.String("date", req.Date))
		return
	}
	state.set(StatusDiscovered)

	if req.DryRun {
		for _, g := range groups {
			for kind, f := range g.Files {
				logger.Info("dry run: would process file",
					slog.String("group", g.Key()),
					slog.String("kind", string(kind)),
					slog.String("file", f.Path))
			}
		}
		state.done(0, 0)
		return
	}

	in := &transform.Input{Date: req.Date}
	for kind, cfg := range capability.CombineConfigs {
		res, err := combine.Combine(groups, cfg, logger)
		if err != nil {
			state.fail(StageCombine, codeOf(err), err.Error())
			return
		}
		if res == nil {
			continue
		}
		switch kind {
		case domain.KindSecurities:
			in.Securities = res.Table
		case domain.KindTransactions:
			in.Transactions = res.Table
		case domain.KindUnitCost:
			in.UnitCost = res.Table
		case domain.KindCashMovements:
			in.CashMovements = res.Table
		}
	}
	state.set(StatusCombined)

	tr, err := transform.New(capability.Bank, transform.Deps{
		Mappings:   o.store,
		OpenFIGI:   o.figi,
		Mindicador: o.rates,
		Logger:     logger,
	})
	if err != nil {
		state.fail(StageTransform, errors.CodeBankPipeline, err.Error())
		return
	}
	out, err := tr.Transform(ctx, in)
	if err != nil {
		state.fail(StageTransform, codeOf(err), err.Error())
		return
	}
	state.set(StatusTransformed)

	o.mu.Lock()
	o.securities = append(o.securities, out.Securities...)
	o.transactions = append(o.transactions, out.Transactions...)
	o.mu.Unlock()
	state.done(len(out.Securities), len(out.Transactions))
}

// bankInputDir prefers a per-bank subdirectory when the drop layout has
// one, else the flat input directory.
func (o *Orchestrator) bankInputDir(inputDir, bank string) string {
	sub := filepath.Join(inputDir, bank)
	if info, err := os.Stat(sub); err == nil && info.IsDir() {
		return sub
	}
	return inputDir
}

// writeOutputs merges this run's records into the canonical datasets and
// writes per-bank files plus the combined output, backing up what it
// overwrites. Output ordering is deterministic: bank, then client, account,
// and name/date.
func (o *Orchestrator) writeOutputs(req Request, states []*BankState) error {
	o.mu.Lock()
	securities := append([]domain.SecurityRecord{}, o.securities...)
	transactions := append([]domain.TransactionRecord{}, o.transactions...)
	o.mu.Unlock()

	sortSecurities(securities)
	sortTransactions(transactions)

	secPath := filepath.Join(req.OutputDir, fmt.Sprintf("securities_%s.xlsx", req.Date))
	txPath := filepath.Join(req.OutputDir, fmt.Sprintf("transactions_%s.xlsx", req.Date))

	existingSecs, err := readSecurities(secPath)
	if err != nil {
		return errors.RunFatal("failed to read existing securities output", err)
	}
	existingTxs, err := readTransactions(txPath)
	if err != nil {
		return errors.RunFatal("failed to read existing transactions output", err)
	}
	for _, s := range states {
		outcome := s.Snapshot()
		if outcome.Status != StatusDone {
			continue
		}
		existingSecs = mergeback.MergeSecurities(existingSecs, bankSecurities(securities, outcome.Bank), outcome.Bank)
		existingTxs = mergeback.MergeTransactions(existingTxs, bankTransactions(transactions, outcome.Bank), outcome.Bank, o.logger)
	}
	sortSecurities(existingSecs)
	sortTransactions(existingTxs)

	for _, path := range []string{secPath, txPath} {
		if err := backupFile(path); err != nil {
			return errors.RunFatal("failed to back up existing output", err)
		}
	}
	if err := sheets.WriteTable(secPath, securitiesTable(existingSecs)); err != nil {
		return errors.RunFatal("failed to write securities output", err)
	}
	if err := sheets.WriteTable(txPath, transactionsTable(existingTxs)); err != nil {
		return errors.RunFatal("failed to write transactions output", err)
	}

	for _, s := range states {
		outcome := s.Snapshot()
		if outcome.Status != StatusDone {
			continue
		}
		bankDir := filepath.Join(req.OutputDir, "banks")
		secs := bankSecurities(securities, outcome.Bank)
		txs := bankTransactions(transactions, outcome.Bank)
		if len(secs) > 0 {
			p := filepath.Join(bankDir, fmt.Sprintf("%s_securities_%s.xlsx", outcome.Bank, req.Date))
			if err := sheets.WriteTable(p, securitiesTable(secs)); err != nil {
				return errors.RunFatal("failed to write per-bank securities output", err)
			}
		}
		if len(txs) > 0 {
			p := filepath.Join(bankDir, fmt.Sprintf("%s_transactions_%s.xlsx", outcome.Bank, req.Date))
			if err := sheets.WriteTable(p, transactionsTable(txs)); err != nil {
				return errors.RunFatal("failed to write per-bank transactions output", err)
			}
		}
	}
	return nil
}

func bankSecurities(records []domain.SecurityRecord, bank string) []domain.SecurityRecord {
	var out []domain.SecurityRecord
	for _, r := range records {
		if r.Bank == bank {
			out = append(out, r)
		}
	}
	return out
}

func bankTransactions(records []domain.TransactionRecord, bank string) []domain.TransactionRecord {
	var out []domain.TransactionRecord
	for _, r := range records {
		if r.Bank == bank {
			out = append(out, r)
		}
	}
	return out
}

func sortSecurities(records []domain.SecurityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Bank != b.Bank {
			return a.Bank < b.Bank
		}
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		return a.Name < b.Name
	})
}

func sortTransactions(records []domain.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Bank != b.Bank {
			return a.Bank < b.Bank
		}
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		return a.Date < b.Date
	})
}

// codeOf classifies an error for the report, defaulting uncoded errors to
// the generic bank failure code.
func codeOf(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return errors.CodeBankPipeline
}
