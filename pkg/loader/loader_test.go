package loader

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"folio/pkg/common"
	"folio/pkg/loader/csv"
)

type stubLoader struct {
	files map[string][]byte
}

func (l *stubLoader) GetFileBytes(ctx context.Context, file WorkbookFile) ([]byte, error) {
	content, ok := l.files[file.FilePath]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", file.FilePath)
	}
	return content, nil
}

func TestLoadRowsCSV(t *testing.T) {
	stub := &stubLoader{files: map[string][]byte{
		"people.csv": []byte("PERSON,SOURCE\nAda Lovelace,Chronicle\nMary Somerville,\n"),
	}}
	file := WorkbookFile{ID: "wb_1", FilePath: "people.csv", Loader: stub}

	rows, err := LoadRows(context.Background(), file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []common.Row{
		{"PERSON": "Ada Lovelace", "SOURCE": "Chronicle"},
		{"PERSON": "Mary Somerville"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %v, got %v", want, rows)
	}
}

func TestLoadRowsUnsupportedFormat(t *testing.T) {
	stub := &stubLoader{files: map[string][]byte{"notes.txt": []byte("hello")}}
	file := WorkbookFile{ID: "wb_1", FilePath: "notes.txt", Loader: stub}

	if _, err := LoadRows(context.Background(), file); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestLoadRowsFetchError(t *testing.T) {
	stub := &stubLoader{files: map[string][]byte{}}
	file := WorkbookFile{ID: "wb_1", FilePath: "missing.csv", Loader: stub}

	if _, err := LoadRows(context.Background(), file); err == nil {
		t.Fatal("expected an error when the workbook cannot be fetched")
	}
}

func TestConcatSheetsSortedOrder(t *testing.T) {
	sheets := []csv.Sheet{
		{Name: "Volume B", Rows: []common.Row{{"PERSON": "third"}}},
		{Name: "Volume A", Rows: []common.Row{{"PERSON": "first"}, {"PERSON": "second"}}},
	}

	rows := concatSheets(sheets)

	want := []common.Row{{"PERSON": "first"}, {"PERSON": "second"}, {"PERSON": "third"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %v, got %v", want, rows)
	}
}
