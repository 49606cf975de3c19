// Package errors defines the pipeline error taxonomy. Every error carries a
// stable code so that per-bank outcome reports can classify failures without
// string matching.
package errors

import (
	"errors"
	"fmt"
)

// Error codes. These are contract values reported in run summaries.
const (
	CodeHeaderNotFound   = "HEADER_NOT_FOUND"
	CodeSchemaValidation = "SCHEMA_VALIDATION_FAILED"
	CodeFileCorrupt      = "FILE_CORRUPT"
	CodeMappingMiss      = "MAPPING_MISS"
	CodeBankPipeline     = "BANK_PIPELINE_FAILED"
	CodeRunFatal         = "RUN_FATAL"
)

// PipelineError is a classified error raised inside one bank's stage
// sequence or by the run itself.
type PipelineError struct {
	Code    string
	Bank    string
	File    string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	switch {
	case e.Bank != "" && e.File != "":
		return fmt.Sprintf("%s [%s %s]: %s", e.Code, e.Bank, e.File, e.Message)
	case e.Bank != "":
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Bank, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *PipelineError) Unwrap() error { return e.Err }

// HeaderNotFound reports that no row within the search window matched the
// header signature. Fatal for the one file, recoverable for the bank.
func HeaderNotFound(bank, file string, searched int) *PipelineError {
	return &PipelineError{
		Code:    CodeHeaderNotFound,
		Bank:    bank,
		File:    file,
		Message: fmt.Sprintf("no header row found in first %d rows", searched),
	}
}

// SchemaValidation reports that required canonical source columns are absent
// from a fully-read table.
func SchemaValidation(bank, file string, missing []string) *PipelineError {
	return &PipelineError{
		Code:    CodeSchemaValidation,
		Bank:    bank,
		File:    file,
		Message: fmt.Sprintf("missing required columns %v", missing),
	}
}

// FileCorrupt wraps an unreadable-spreadsheet error.
func FileCorrupt(bank, file string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeFileCorrupt,
		Bank:    bank,
		File:    file,
		Message: "spreadsheet could not be read",
		Err:     err,
	}
}

// MappingMiss reports a raw account identifier with no entry in the mapping
// store. Per-bank policy decides whether the row is dropped, passed through,
// or marked; the miss itself is always logged as a warning.
func MappingMiss(bank, rawAccount string) *PipelineError {
	return &PipelineError{
		Code:    CodeMappingMiss,
		Bank:    bank,
		Message: fmt.Sprintf("no mapping for account %s", redact(rawAccount)),
	}
}

// BankPipeline marks one bank's run as failed at the named stage. Other
// banks proceed.
func BankPipeline(bank, stage string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeBankPipeline,
		Bank:    bank,
		Message: fmt.Sprintf("stage %s failed", stage),
		Err:     err,
	}
}

// RunFatal aborts the entire run; reserved for run-wide prerequisites such
// as an undecryptable mapping workbook.
func RunFatal(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeRunFatal, Message: message, Err: err}
}

// CodeOf returns the pipeline code of err, or "" when err carries none.
func CodeOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool { return CodeOf(err) == CodeRunFatal }

// redact keeps the last four characters of an account identifier for logs.
func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
