// Package discovery identifies raw bank export files by their filename
// tokens and groups them by client/account for combination.
//
// Filename convention: <Bank>_<Client>_<Account>_<kind>_<DD_MM_YYYY>.xlsx.
// Banks that pre-combine at source omit the client/account tokens.
package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"bankfeed/pkg/contracts/domain"
)

var (
	datePattern          = regexp.MustCompile(`(\d{2}_\d{2}_\d{4})`)
	clientAccountPattern = regexp.MustCompile(`(?i)^([A-Za-z]+)_([A-Za-z0-9]+)_([A-Za-z0-9]+)_(?:securities|transactions|unitcost|cashmovements)_\d{2}_\d{2}_\d{4}\.xlsx?$`)
)

// Group is the set of files belonging to one client/account pair for one
// bank and date.
type Group struct {
	Client  string
	Account string
	Files   map[domain.FileKind]*domain.RawBankFile
}

// Key renders the client_account grouping key.
func (g *Group) Key() string {
	if g.Client == "" && g.Account == "" {
		return "(combined)"
	}
	return g.Client + "_" + g.Account
}

// ExtractDate pulls the DD_MM_YYYY token out of a filename, or "".
func ExtractDate(filename string) string {
	return datePattern.FindString(filename)
}

// ClassifyKind determines the file kind from filename substrings, or "".
func ClassifyKind(filename string) domain.FileKind {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "securities"):
		return domain.KindSecurities
	case strings.Contains(lower, "transactions"):
		return domain.KindTransactions
	case strings.Contains(lower, "unitcost"):
		return domain.KindUnitCost
	case strings.Contains(lower, "cashmovements"):
		return domain.KindCashMovements
	}
	return ""
}

// extractClientAccount parses the per-client token positions, returning
// ok=false for pre-combined filenames that carry no such tokens.
func extractClientAccount(filename string) (client, account string, ok bool) {
	m := clientAccountPattern.FindStringSubmatch(filename)
	if m == nil {
		return "", "", false
	}
	return m[2], m[3], true
}

// Scan walks dir for files belonging to one bank and one date and groups
// them by client/account. Temporary and lock files are skipped. Missing
// sibling files produce warnings, never errors; an empty result is reported
// by the caller.
func Scan(dir, bank, date string, logger *slog.Logger) ([]*Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	groups := make(map[string]*Group)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xls" {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(bank)+"_") {
			continue
		}
		if ExtractDate(name) != date {
			continue
		}
		kind := ClassifyKind(name)
		if kind == "" {
			logger.Warn("unrecognized file kind, skipping",
				slog.String("bank", bank), slog.String("file", name))
			continue
		}

		client, account, _ := extractClientAccount(name)
		key := client + "_" + account
		g, exists := groups[key]
		if !exists {
			g = &Group{Client: client, Account: account, Files: map[domain.FileKind]*domain.RawBankFile{}}
			groups[key] = g
		}
		g.Files[kind] = &domain.RawBankFile{
			Bank:    bank,
			Client:  client,
			Account: account,
			Date:    date,
			Kind:    kind,
			Path:    filepath.Join(dir, name),
		}
	}

	result := make([]*Group, 0, len(groups))
	for _, g := range groups {
		if g.Files[domain.KindSecurities] != nil && g.Files[domain.KindTransactions] == nil {
			logger.Warn("securities file has no matching transactions file",
				slog.String("bank", bank), slog.String("group", g.Key()))
		}
		if g.Files[domain.KindTransactions] != nil && g.Files[domain.KindSecurities] == nil {
			logger.Warn("transactions file has no matching securities file",
				slog.String("bank", bank), slog.String("group", g.Key()))
		}
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key() < result[j].Key() })
	return result, nil
}

// LatestDate scans dir (and its immediate subdirectories) for the newest
// DD_MM_YYYY token across all bank files; used when no --date is given.
func LatestDate(dir string) (string, error) {
	dates := map[string]struct{}{}
	collect := func(d string) {
		entries, err := os.ReadDir(d)
		if err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if date := ExtractDate(e.Name()); date != "" {
				dates[date] = struct{}{}
			}
		}
	}
	collect(dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			collect(filepath.Join(dir, e.Name()))
		}
	}
	if len(dates) == 0 {
		return "", fmt.Errorf("no dated bank files found in %s", dir)
	}

	all := make([]string, 0, len(dates))
	for d := range dates {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return sortableDate(all[i]) > sortableDate(all[j]) })
	return all[0], nil
}

// sortableDate converts DD_MM_YYYY into YYYY_MM_DD for ordering.
func sortableDate(d string) string {
	parts := strings.Split(d, "_")
	if len(parts) != 3 {
		return d
	}
	return parts[2] + "_" + parts[1] + "_" + parts[0]
}
