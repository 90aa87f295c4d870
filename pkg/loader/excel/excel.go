package excel

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"folio/pkg/loader/csv"
	"folio/pkg/logger"
)

const convertTimeout = 600 * time.Second

// ConvertToCSV converts a spreadsheet file (xlsx, xls, ods) to CSV using
// unoconv. For multi-sheet workbooks, unoconv outputs one CSV per sheet.
// Returns a map of sheet name -> CSV content.
func ConvertToCSV(ctx context.Context, input []byte, ext string) (map[string][]byte, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("nanoid: %w", err)
	}
	tmpDir := filepath.Join(os.TempDir(), "folio-excel-"+id)
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir tmp: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	excelPath := filepath.Join(tmpDir, fmt.Sprintf("input.%s", ext))
	if err := os.WriteFile(excelPath, input, 0o600); err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}

	if _, err := exec.LookPath("unoconv"); err != nil {
		return nil, fmt.Errorf("unoconv not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, convertTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "unoconv", "-f", "csv", excelPath)
	cmd.Dir = tmpDir
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("unoconv timed out")
	}
	if err != nil {
		return nil, fmt.Errorf("unoconv failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	// unoconv outputs CSV files in the same directory
	// For single sheet: input.csv
	// For multi-sheet: input-SheetName.csv for each sheet
	matches, err := filepath.Glob(filepath.Join(tmpDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob csv: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CSV files produced")
	}

	result := make(map[string][]byte, len(matches))
	for _, f := range matches {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", f, err)
		}

		base := filepath.Base(f)
		base = strings.TrimSuffix(base, ".csv")

		sheetName := strings.TrimPrefix(base, "input-")
		if sheetName == "input" {
			sheetName = "Sheet1"
		}

		result[sheetName] = content
	}

	return result, nil
}

// GetSheets converts the spreadsheet and parses every sheet. Sheets
// without a header row are skipped with a warning.
func GetSheets(ctx context.Context, input []byte, ext string) ([]csv.Sheet, error) {
	csvSheets, err := ConvertToCSV(ctx, input, ext)
	if err != nil {
		return nil, err
	}

	sheets := make([]csv.Sheet, 0, len(csvSheets))
	for name, content := range csvSheets {
		sheet, err := csv.ParseSheet(name, content)
		if err != nil {
			logger.Warn("[Loader] Skipping unparsable sheet", "sheet", name, "error", err)
			continue
		}
		sheets = append(sheets, sheet)
	}

	return sheets, nil
}
