package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	e := HeaderNotFound("CS", "CS_securities.xlsx", 30)
	assert.Contains(t, e.Error(), CodeHeaderNotFound)
	assert.Contains(t, e.Error(), "CS_securities.xlsx")
	assert.Contains(t, e.Error(), "30")

	bankOnly := BankPipeline("JPM", "combine", nil)
	assert.Equal(t, "BANK_PIPELINE_FAILED [JPM]: stage combine failed", bankOnly.Error())

	fatal := RunFatal("mapping workbook unreadable", nil)
	assert.Equal(t, "RUN_FATAL: mapping workbook unreadable", fatal.Error())
}

func TestCodeOfUnwrapsNesting(t *testing.T) {
	inner := FileCorrupt("MS", "ms.xlsx", stderrors.New("zip: not a valid zip file"))
	wrapped := fmt.Errorf("combine: %w", inner)
	assert.Equal(t, CodeFileCorrupt, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(RunFatal("boom", nil)))
	assert.False(t, IsFatal(BankPipeline("CS", "transform", nil)))
	assert.False(t, IsFatal(nil))
}

func TestMappingMissRedactsAccount(t *testing.T) {
	e := MappingMiss("JPM", "12345678")
	assert.Contains(t, e.Error(), "****5678")
	assert.NotContains(t, e.Error(), "12345678")

	short := MappingMiss("JPM", "12")
	assert.Contains(t, short.Error(), "****")
	assert.NotContains(t, short.Error(), "12")
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := stderrors.New("underlying")
	e := FileCorrupt("CS", "f.xlsx", cause)
	assert.True(t, stderrors.Is(e, cause))
}
