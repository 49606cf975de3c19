package discovery

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankfeed/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestExtractDate(t *testing.T) {
	assert.Equal(t, "25_04_2025", ExtractDate("JPM_securities_25_04_2025.xlsx"))
	assert.Equal(t, "", ExtractDate("JPM_securities.xlsx"))
}

func TestClassifyKind(t *testing.T) {
	assert.Equal(t, domain.KindSecurities, ClassifyKind("CS_ACME_A1_securities_25_04_2025.xlsx"))
	assert.Equal(t, domain.KindTransactions, ClassifyKind("CS_ACME_A1_transactions_25_04_2025.xlsx"))
	assert.Equal(t, domain.KindUnitCost, ClassifyKind("Pershing_ACME_A1_unitcost_25_04_2025.xlsx"))
	assert.Equal(t, domain.KindCashMovements, ClassifyKind("LO_ACME_A1_cashmovements_25_04_2025.xlsx"))
	assert.Equal(t, domain.FileKind(""), ClassifyKind("CS_ACME_A1_summary_25_04_2025.xlsx"))
}

func TestScanGroupsByClientAccount(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "CS_ACME_A1_securities_25_04_2025.xlsx")
	touch(t, dir, "CS_ACME_A1_transactions_25_04_2025.xlsx")
	touch(t, dir, "CS_ACME_A2_securities_25_04_2025.xlsx")
	touch(t, dir, "CS_BETA_B1_transactions_25_04_2025.xlsx")
	touch(t, dir, "CS_ACME_A1_securities_18_04_2025.xlsx") // wrong date
	touch(t, dir, "JPM_securities_25_04_2025.xlsx")        // wrong bank
	touch(t, dir, "~$CS_ACME_A1_securities_25_04_2025.xlsx")
	touch(t, dir, "CS_notes_25_04_2025.txt")

	groups, err := Scan(dir, "CS", "25_04_2025", testLogger())
	require.NoError(t, err)
	require.Len(t, groups, 3)

	// Groups come back sorted by key.
	assert.Equal(t, "ACME_A1", groups[0].Key())
	assert.Equal(t, "ACME_A2", groups[1].Key())
	assert.Equal(t, "BETA_B1", groups[2].Key())

	full := groups[0]
	require.NotNil(t, full.Files[domain.KindSecurities])
	require.NotNil(t, full.Files[domain.KindTransactions])
	assert.Equal(t, "CS", full.Files[domain.KindSecurities].Bank)
	assert.Equal(t, "ACME", full.Files[domain.KindSecurities].Client)
	assert.Equal(t, "A1", full.Files[domain.KindSecurities].Account)
	assert.Equal(t, "25_04_2025", full.Files[domain.KindSecurities].Date)

	// Missing siblings warn but never drop the group.
	assert.Nil(t, groups[1].Files[domain.KindTransactions])
	assert.Nil(t, groups[2].Files[domain.KindSecurities])
}

func TestScanPreCombinedFilenames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "JPM_securities_25_04_2025.xlsx")
	touch(t, dir, "JPM_transactions_25_04_2025.xlsx")

	groups, err := Scan(dir, "JPM", "25_04_2025", testLogger())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "(combined)", groups[0].Key())
	assert.Len(t, groups[0].Files, 2)
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "absent"), "CS", "25_04_2025", testLogger())
	assert.Error(t, err)
}

func TestLatestDate(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "CS_ACME_A1_securities_18_04_2025.xlsx")
	touch(t, dir, "CS_ACME_A1_securities_25_04_2025.xlsx")
	sub := filepath.Join(dir, "JPM")
	require.NoError(t, os.Mkdir(sub, 0o755))
	touch(t, sub, "JPM_securities_02_05_2025.xlsx")

	date, err := LatestDate(dir)
	require.NoError(t, err)
	assert.Equal(t, "02_05_2025", date, "subdirectories participate and calendar order wins")

	_, err = LatestDate(t.TempDir())
	assert.Error(t, err)
}
