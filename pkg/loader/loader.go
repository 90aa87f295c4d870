package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"folio/pkg/common"
	"folio/pkg/loader/csv"
	"folio/pkg/loader/excel"
	"folio/pkg/logger"
)

// WorkbookFile represents one spreadsheet to import. The actual bytes are
// retrieved through the associated WorkbookLoader, so the same file value
// works for local paths and object storage keys alike.
type WorkbookFile struct {
	ID       string
	FilePath string
	Loader   WorkbookLoader
}

// WorkbookLoader defines the interface for fetching the raw contents of a
// WorkbookFile. Implementations may load files from disk, object storage,
// or other sources.
type WorkbookLoader interface {
	GetFileBytes(ctx context.Context, file WorkbookFile) ([]byte, error)
}

// GetBytes retrieves the raw file content using the configured Loader.
func (f *WorkbookFile) GetBytes(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileBytes(ctx, *f)
}

// CacheKey generates a unique cache key for a WorkbookFile based on its ID and path.
func CacheKey(file WorkbookFile) string {
	return file.ID + ":" + file.FilePath
}

// LoadRows fetches the workbook and flattens it into one row stream. CSV
// files parse as a single sheet; spreadsheet formats are converted sheet
// by sheet and concatenated in sorted sheet-name order. Columns are joined
// by name, so a column missing on one sheet is simply absent from that
// sheet's rows.
func LoadRows(ctx context.Context, file WorkbookFile) ([]common.Row, error) {
	content, err := file.GetBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workbook %s: %w", file.FilePath, err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.FilePath), "."))

	var sheets []csv.Sheet
	switch ext {
	case "csv":
		name := strings.TrimSuffix(filepath.Base(file.FilePath), filepath.Ext(file.FilePath))
		sheet, err := csv.ParseSheet(name, content)
		if err != nil {
			return nil, err
		}
		sheets = []csv.Sheet{sheet}
	case "xlsx", "xls", "ods":
		sheets, err = excel.GetSheets(ctx, content, ext)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported workbook format %q", ext)
	}

	rows := concatSheets(sheets)

	logger.Info("[Loader] Parsed workbook", "file", file.FilePath, "sheets", len(sheets), "rows", len(rows))
	return rows, nil
}

// concatSheets appends all sheet rows in sorted sheet-name order.
func concatSheets(sheets []csv.Sheet) []common.Row {
	sorted := make([]csv.Sheet, len(sheets))
	copy(sorted, sheets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var rows []common.Row
	for _, sheet := range sorted {
		rows = append(rows, sheet.Rows...)
	}

	return rows
}
