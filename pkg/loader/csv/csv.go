package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"folio/pkg/common"
)

// Sheet is one parsed sheet: the header in column order plus one row map
// per record. Empty cells are absent from the row maps.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []common.Row
}

// ParseSheet parses raw CSV content into a Sheet. The first record with a
// non-blank cell is the header; data records may be ragged, and cells
// beyond the header are ignored.
func ParseSheet(name string, content []byte) (Sheet, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	sheet := Sheet{Name: name}
	headerSeen := false

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		if !headerSeen {
			headerSeen = true
			for _, cell := range record {
				sheet.Columns = append(sheet.Columns, strings.TrimSpace(cell))
			}
			continue
		}

		row := common.Row{}
		for i, column := range sheet.Columns {
			if column == "" || i >= len(record) {
				continue
			}
			if record[i] == "" {
				continue
			}
			row[column] = record[i]
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if !headerSeen {
		return Sheet{}, fmt.Errorf("sheet %s is empty or contains no header", name)
	}

	return sheet, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
