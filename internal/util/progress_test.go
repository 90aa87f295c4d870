package util

import "testing"

func TestCalculateImportProgressPercentage(t *testing.T) {
	tests := []struct {
		name   string
		counts ImportCounts
		want   int32
	}{
		{
			name:   "nothing started",
			counts: ImportCounts{},
			want:   0,
		},
		{
			name:   "loaded only",
			counts: ImportCounts{Loaded: true, EntityTotal: 10, RelationTotal: 4},
			want:   10,
		},
		{
			name:   "half of entities merged",
			counts: ImportCounts{Loaded: true, EntityTotal: 10, EntityDone: 5, RelationTotal: 4},
			want:   40,
		},
		{
			name:   "entities complete",
			counts: ImportCounts{Loaded: true, EntityTotal: 10, EntityDone: 10, RelationTotal: 4},
			want:   70,
		},
		{
			name:   "everything complete",
			counts: ImportCounts{Loaded: true, EntityTotal: 10, EntityDone: 10, RelationTotal: 4, RelationDone: 4},
			want:   100,
		},
		{
			name:   "entities done before relations are counted",
			counts: ImportCounts{Loaded: true, EntityTotal: 10, EntityDone: 10},
			want:   70,
		},
		{
			name:   "no relations in sheet",
			counts: ImportCounts{Loaded: true, Completed: true, EntityTotal: 10, EntityDone: 10},
			want:   100,
		},
		{
			name:   "empty workbook",
			counts: ImportCounts{Loaded: true, Completed: true},
			want:   100,
		},
		{
			name:   "done counts clamp to totals",
			counts: ImportCounts{Loaded: true, EntityTotal: 10, EntityDone: 25, RelationTotal: 4, RelationDone: 9},
			want:   100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateImportProgressPercentage(tt.counts)
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestBuildImportProgress(t *testing.T) {
	progress := BuildImportProgress(ImportCounts{
		Loaded:      true,
		EntityTotal: 10,
		EntityDone:  4,
		FailedItems: 2,
	})
	if progress.Step == nil {
		t.Fatal("expected step progress")
	}
	if progress.Step.Entities != "4/10" {
		t.Fatalf("expected 4/10, got %s", progress.Step.Entities)
	}
	if progress.Step.Failed != "2/10" {
		t.Fatalf("expected 2/10, got %s", progress.Step.Failed)
	}
	if progress.Percentage == nil {
		t.Fatal("expected percentage")
	}

	done := BuildImportProgress(ImportCounts{
		Loaded:        true,
		EntityTotal:   3,
		EntityDone:    3,
		RelationTotal: 2,
		RelationDone:  2,
	})
	if done.Step != nil {
		t.Fatalf("expected no step progress when complete, got %+v", done.Step)
	}
	if done.Percentage == nil || *done.Percentage != 100 {
		t.Fatalf("expected 100%%, got %v", done.Percentage)
	}
}
