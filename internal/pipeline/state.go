package pipeline

import (
	"sync"
	"time"
)

// Stage is one step in a bank's processing sequence.
type Stage string

const (
	StageDiscover  Stage = "discover"
	StageCombine   Stage = "combine"
	StageTransform Stage = "transform"
	StageWrite     Stage = "write"
)

// Status is the lifecycle of one bank within a run. Transitions move
// forward only; a failed bank never resumes within the run.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDiscovered  Status = "discovered"
	StatusCombined    Status = "combined"
	StatusTransformed Status = "transformed"
	StatusDone        Status = "done"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

// BankState tracks one bank's progress through the run. Guarded by its own
// mutex since workers and the reporter read it concurrently.
type BankState struct {
	mu sync.Mutex

	Bank         string
	Status       Status
	FailedStage  Stage
	ErrorCode    string
	ErrorDetail  string
	Files        int
	Securities   int
	Transactions int
	StartedAt    time.Time
	FinishedAt   time.Time
}

func newBankState(bank string) *BankState {
	return &BankState{Bank: bank, Status: StatusPending}
}

func (s *BankState) set(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
}

func (s *BankState) fail(stage Stage, code, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFailed
	s.FailedStage = stage
	s.ErrorCode = code
	s.ErrorDetail = detail
	s.FinishedAt = time.Now()
}

func (s *BankState) skip(detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusSkipped
	s.ErrorDetail = detail
	s.FinishedAt = time.Now()
}

func (s *BankState) done(securities, transactions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusDone
	s.Securities = securities
	s.Transactions = transactions
	s.FinishedAt = time.Now()
}

// Snapshot returns a copy safe to read after the run.
func (s *BankState) Snapshot() BankOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BankOutcome{
		Bank:         s.Bank,
		Status:       s.Status,
		FailedStage:  s.FailedStage,
		ErrorCode:    s.ErrorCode,
		ErrorDetail:  s.ErrorDetail,
		Files:        s.Files,
		Securities:   s.Securities,
		Transactions: s.Transactions,
	}
}

// BankOutcome is the immutable per-bank result in the run report.
type BankOutcome struct {
	Bank         string `json:"bank"`
	Status       Status `json:"status"`
	FailedStage  Stage  `json:"failed_stage,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorDetail  string `json:"error_detail,omitempty"`
	Files        int    `json:"files"`
	Securities   int    `json:"securities"`
	Transactions int    `json:"transactions"`
}

// Report summarizes one run.
type Report struct {
	RunID             string        `json:"run_id"`
	Date              string        `json:"date"`
	Banks             []BankOutcome `json:"banks"`
	TotalSecurities   int           `json:"total_securities"`
	TotalTransactions int           `json:"total_transactions"`
	Duration          time.Duration `json:"duration"`
}

// Failed reports whether any bank ended in the failed state.
func (r *Report) Failed() bool {
	for _, b := range r.Banks {
		if b.Status == StatusFailed {
			return true
		}
	}
	return false
}
