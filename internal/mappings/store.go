// Package mappings resolves raw custodial account identifiers to canonical
// (client, account) pairs from an encrypted Excel workbook. The workbook has
// one sheet per bank; plaintext exists only in memory.
package mappings

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	pipeerr "bankfeed/internal/errors"
	"bankfeed/internal/sheets"
	"bankfeed/pkg/contracts/domain"
)

// Envelope layout: salt(16) || nonce(12) || AES-256-GCM ciphertext.
const (
	saltSize   = 16
	nonceSize  = 12
	keySize    = 32
	kdfRounds  = 100_000
	minPayload = saltSize + nonceSize + 1
)

// Required column labels on every bank sheet. A sheet missing any of these
// makes the whole store unusable for that bank.
var requiredColumns = []string{"account number", "client", "account"}

// Store holds the decrypted account map, keyed by bank then by the
// normalized raw account number.
type Store struct {
	byBank map[string]map[string]domain.AccountEntry
	logger *slog.Logger
}

// Open decrypts the workbook at path with the given passphrase and loads
// every bank sheet. A wrong passphrase or corrupt envelope is fatal for the
// run; a malformed individual sheet only disables that bank.
func Open(path, passphrase string, logger *slog.Logger) (*Store, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	plain, err := decrypt(blob, passphrase)
	if err != nil {
		// Undecryptable mappings abort the whole run, not just one bank.
		return nil, pipeerr.RunFatal("failed to decrypt mapping file", err)
	}
	return load(bytes.NewReader(plain), logger)
}

func load(r io.Reader, logger *slog.Logger) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping workbook: %w", err)
	}
	names, err := sheets.SheetNames(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to list mapping sheets: %w", err)
	}

	s := &Store{byBank: map[string]map[string]domain.AccountEntry{}, logger: logger}
	for _, name := range names {
		rows, err := sheets.ReadRowsFrom(bytes.NewReader(data), name)
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping sheet %q: %w", name, err)
		}
		t := sheets.NewTable(rows, 0)
		if missing := t.MissingColumns(requiredColumns...); len(missing) > 0 {
			logger.Error("mapping sheet missing required columns, bank disabled",
				slog.String("bank", name), slog.Any("missing", missing))
			continue
		}

		entries := map[string]domain.AccountEntry{}
		for _, row := range t.Rows {
			raw := normalizeAccount(t.Get(row, "account number"))
			if raw == "" {
				continue
			}
			entries[raw] = domain.AccountEntry{
				Client:      t.Get(row, "client"),
				Account:     t.Get(row, "account"),
				AccountName: t.Get(row, "account name"),
			}
		}
		s.byBank[normalizeBank(name)] = entries
		logger.Debug("loaded mapping sheet",
			slog.String("bank", name), slog.Int("entries", len(entries)))
	}
	return s, nil
}

// NewStatic builds a store from an in-memory table, keyed by bank then raw
// account number. Used by fixtures and by callers that source mappings from
// somewhere other than the encrypted workbook.
func NewStatic(byBank map[string]map[string]domain.AccountEntry, logger *slog.Logger) *Store {
	s := &Store{byBank: map[string]map[string]domain.AccountEntry{}, logger: logger}
	for bank, entries := range byBank {
		normalized := map[string]domain.AccountEntry{}
		for raw, e := range entries {
			normalized[normalizeAccount(raw)] = e
		}
		s.byBank[normalizeBank(bank)] = normalized
	}
	return s
}

// Lookup resolves a raw account identifier for a bank. ok is false when the
// bank has no sheet or the identifier has no entry.
func (s *Store) Lookup(bank, rawAccount string) (domain.AccountEntry, bool) {
	entries, exists := s.byBank[normalizeBank(bank)]
	if !exists {
		return domain.AccountEntry{}, false
	}
	e, ok := entries[normalizeAccount(rawAccount)]
	return e, ok
}

// HasBank reports whether the workbook carries a sheet for the bank.
func (s *Store) HasBank(bank string) bool {
	_, ok := s.byBank[normalizeBank(bank)]
	return ok
}

func normalizeBank(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// normalizeAccount strips the formatting noise Excel introduces around
// account numbers: surrounding spaces, trailing ".0" from numeric cells, and
// internal dashes.
func normalizeAccount(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".0")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// Encrypt seals a plaintext workbook into the envelope format. Used by the
// encryptmaps utility to produce the distributable mapping file.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func decrypt(blob []byte, passphrase string) ([]byte, error) {
	if len(blob) < minPayload {
		return nil, fmt.Errorf("envelope too short: %d bytes", len(blob))
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	sealed := blob[saltSize+nonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase or corrupt file): %w", err)
	}
	return plain, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, kdfRounds, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}
	return gcm, nil
}
