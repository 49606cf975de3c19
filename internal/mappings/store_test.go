package mappings

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	pipeerr "bankfeed/internal/errors"
	"bankfeed/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// buildWorkbook produces a plaintext mapping workbook with one sheet per
// bank and the required columns.
func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("JPM")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("JPM", "A1", &[]interface{}{"Account Number", "Client", "Account", "Account Name"}))
	require.NoError(t, f.SetSheetRow("JPM", "A2", &[]interface{}{"123-456 78", "ACME", "A1", "Acme Main"}))
	require.NoError(t, f.SetSheetRow("JPM", "A3", &[]interface{}{"99999999.0", "BETA", "B1", ""}))

	// A sheet missing required columns disables only that bank.
	_, err = f.NewSheet("Broken")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Broken", "A1", &[]interface{}{"Something", "Else"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := buildWorkbook(t)
	sealed, err := Encrypt(plain, "correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)
	assert.Greater(t, len(sealed), len(plain), "envelope adds salt, nonce and tag")

	path := filepath.Join(t.TempDir(), "Mappings.xlsx.enc")
	require.NoError(t, os.WriteFile(path, sealed, 0o600))

	store, err := Open(path, "correct horse", testLogger())
	require.NoError(t, err)

	entry, ok := store.Lookup("JPM", "123-456 78")
	require.True(t, ok)
	assert.Equal(t, "ACME", entry.Client)
	assert.Equal(t, "A1", entry.Account)
	assert.Equal(t, "Acme Main", entry.AccountName)
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Encrypt(buildWorkbook(t), "right")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "Mappings.xlsx.enc")
	require.NoError(t, os.WriteFile(path, sealed, 0o600))

	_, err = Open(path, "wrong", testLogger())
	require.Error(t, err)
	assert.True(t, pipeerr.IsFatal(err), "a wrong passphrase aborts the run")
}

func TestOpenTruncatedEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.enc")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o600))
	_, err := Open(path, "any", testLogger())
	assert.Error(t, err)
}

func TestLookupNormalizesAccounts(t *testing.T) {
	store, err := load(bytes.NewReader(buildWorkbook(t)), testLogger())
	require.NoError(t, err)

	// Dashes, spaces and Excel's trailing ".0" are formatting noise.
	for _, raw := range []string{"12345678", "123-456-78", "123 456 78", "12345678.0"} {
		_, ok := store.Lookup("JPM", raw)
		assert.True(t, ok, "raw %q should resolve", raw)
	}
	_, ok := store.Lookup("jpm", "99999999")
	assert.True(t, ok, "bank names are case-insensitive")

	_, ok = store.Lookup("JPM", "00000000")
	assert.False(t, ok)
}

func TestBrokenSheetDisablesOnlyThatBank(t *testing.T) {
	store, err := load(bytes.NewReader(buildWorkbook(t)), testLogger())
	require.NoError(t, err)
	assert.True(t, store.HasBank("JPM"))
	assert.False(t, store.HasBank("Broken"))
	assert.False(t, store.HasBank("MS"))
}

func TestNewStatic(t *testing.T) {
	store := NewStatic(map[string]map[string]domain.AccountEntry{
		"MS": {"111-222": {Client: "ACME", Account: "A9"}},
	}, testLogger())

	entry, ok := store.Lookup("MS", "111222")
	require.True(t, ok)
	assert.Equal(t, "A9", entry.Account)
}
