package sheets

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxLegacyRows caps how many rows are pulled from a legacy .xls workbook.
const maxLegacyRows = 50000

// ReadRows reads every cell of one sheet as strings. sheet "" selects the
// first sheet. Files with a .xls extension fall back to the legacy reader,
// mirroring the openpyxl/xlrd engine fallback the bank exports require.
func ReadRows(path, sheet string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return readLegacyRows(path, sheet)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return sheetRows(f, sheet)
}

// ReadRowsFrom reads one sheet from an in-memory workbook, used for the
// decrypted mapping store which never touches disk in plaintext.
func ReadRowsFrom(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return sheetRows(f, sheet)
}

// SheetNames lists the sheets of an in-memory workbook.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readLegacyRows(path, sheet string) ([][]string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	if sheet == "" {
		rows := wb.ReadAllCells(maxLegacyRows)
		if len(rows) == 0 {
			return nil, fmt.Errorf("%s: workbook has no rows", filepath.Base(path))
		}
		return rows, nil
	}
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil || !strings.EqualFold(ws.Name, sheet) {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			var cells []string
			for c := 0; c <= row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%s: sheet %q not found", filepath.Base(path), sheet)
}
