package main

import "fmt"

// CheckDelta compares a newly computed result against the sample's most
// recent prior record. With only three result codes any change between them
// is clinically significant, so the original pairwise table collapses to a
// plain inequality. If a fourth result code is ever added, revisit which
// pairs actually count as significant instead of assuming inequality.
func CheckDelta(prev *HistoryRecord, newResult string) DeltaCheckResult {
	if prev == nil || prev.Result == newResult {
		return DeltaCheckResult{}
	}
	return DeltaCheckResult{
		Significant: true,
		Message: fmt.Sprintf("DELTA CHECK: Result changed significantly from '%s' (%s) to '%s'.",
			prev.Result, prev.RecordedAt.Format("2006-01-02 15:04"), newResult),
	}
}
