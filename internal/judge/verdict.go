package judge

import (
	"strings"

	"github.com/codearena/codearena/internal/database/models"
)

// CaseResult is the judged outcome of one test case.
type CaseResult struct {
	Matched      bool
	RuntimeError bool
	TimeMS       int64
	MemoryKB     int64
}

// Aggregate is the submission-level verdict derived from all case results.
type Aggregate struct {
	Status   models.SubmissionStatus
	Passed   int
	Total    int
	TimeMS   int64
	MemoryKB int64
}

// JudgeCase classifies one run result against its expected output. Non-empty
// stderr short-circuits to a runtime error regardless of exit state;
// otherwise the trimmed outputs must match byte for byte.
func JudgeCase(run *RunResult, expected string) CaseResult {
	res := CaseResult{TimeMS: run.TimeMS, MemoryKB: run.MemoryKB}
	if strings.TrimSpace(run.Stderr) != "" {
		res.RuntimeError = true
		return res
	}
	res.Matched = strings.TrimSpace(run.Stdout) == strings.TrimSpace(expected)
	return res
}

// AggregateVerdict folds per-case results into one submission verdict.
// The first failing case fixes the overall status (first-failure-wins);
// Passed counts every exact match across all cases regardless of where the
// first failure occurred.
func AggregateVerdict(results []CaseResult) Aggregate {
	agg := Aggregate{Status: models.StatusAccepted, Total: len(results)}
	failed := false

	for _, r := range results {
		if r.TimeMS > agg.TimeMS {
			agg.TimeMS = r.TimeMS
		}
		if r.MemoryKB > agg.MemoryKB {
			agg.MemoryKB = r.MemoryKB
		}

		if r.Matched {
			agg.Passed++
			continue
		}
		if !failed {
			failed = true
			if r.RuntimeError {
				agg.Status = models.StatusRuntimeError
			} else {
				agg.Status = models.StatusWrongAnswer
			}
		}
	}
	return agg
}
