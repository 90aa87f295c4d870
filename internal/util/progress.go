package util

import "fmt"

type ImportStepProgress struct {
	Loading   string `json:"loading,omitempty"`
	Entities  string `json:"entities,omitempty"`
	Relations string `json:"relations,omitempty"`
	Failed    string `json:"failed,omitempty"`
}

type ImportProgress struct {
	Step       *ImportStepProgress
	Percentage *int32
}

// ImportCounts is a snapshot of one import run. Totals of zero mean the
// phase has nothing to do once its collection step has run; Completed
// marks the end of the whole run so trailing phases with unknown totals
// are not credited early.
type ImportCounts struct {
	Loaded         bool
	Completed      bool
	EntityTotal    int64
	EntityDone     int64
	RelationTotal  int64
	RelationDone   int64
	FailedItems    int64
	RelationFailed int64
}

const (
	loadProgressWeight     int64 = 10
	entityProgressWeight   int64 = 60
	relationProgressWeight int64 = 30
)

func BuildImportProgress(counts ImportCounts) ImportProgress {
	stepProgress := ImportStepProgress{}
	hasStep := false

	if !counts.Loaded {
		stepProgress.Loading = "0/1"
		hasStep = true
	}
	if counts.EntityTotal > 0 && counts.EntityDone < counts.EntityTotal {
		stepProgress.Entities = fmt.Sprintf("%d/%d", counts.EntityDone, counts.EntityTotal)
		hasStep = true
	}
	if counts.RelationTotal > 0 && counts.RelationDone < counts.RelationTotal {
		stepProgress.Relations = fmt.Sprintf("%d/%d", counts.RelationDone, counts.RelationTotal)
		hasStep = true
	}
	if failed := counts.FailedItems + counts.RelationFailed; failed > 0 {
		stepProgress.Failed = fmt.Sprintf("%d/%d", failed, counts.EntityTotal+counts.RelationTotal)
		hasStep = true
	}

	importProgress := ImportProgress{}
	if hasStep {
		importProgress.Step = &stepProgress
	}

	percentage := CalculateImportProgressPercentage(counts)
	importProgress.Percentage = &percentage

	return importProgress
}

func CalculateImportProgressPercentage(counts ImportCounts) int32 {
	var pct int64

	if counts.Loaded {
		pct += loadProgressWeight
	}

	if counts.EntityTotal > 0 {
		done := min(counts.EntityDone, counts.EntityTotal)
		pct += done * entityProgressWeight / counts.EntityTotal
	} else if counts.Loaded {
		pct += entityProgressWeight
	}

	if counts.RelationTotal > 0 {
		done := min(counts.RelationDone, counts.RelationTotal)
		pct += done * relationProgressWeight / counts.RelationTotal
	} else if counts.Completed {
		pct += relationProgressWeight
	}

	if pct > 100 {
		pct = 100
	}
	return int32(pct)
}
