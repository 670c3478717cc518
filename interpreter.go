package main

import (
	"log"
	"time"
)

// Interpreter ties the decision rule to its collaborators: classify, run the
// delta check, persist, audit-log, and raise an alert on a significant
// change. Audit and Notify are optional; a failed audit write or alert never
// fails the interpretation, since the history row is already committed.
type Interpreter struct {
	Store  *Store
	Audit  *AuditLog
	Notify *Notifier
}

// Interpret classifies one measurement and records it.
func (it *Interpreter) Interpret(m PanelMeasurement, at time.Time) (HistoryRecord, DeltaCheckResult, error) {
	c := Classify(m.Nil, m.TB1, m.TB2, m.Mitogen)
	rec := NewHistoryRecord(m, c, at)

	delta, err := it.Store.AppendWithDeltaCheck(&rec)
	if err != nil {
		return rec, delta, err
	}

	if it.Audit != nil {
		if logErr := it.Audit.Record(rec); logErr != nil {
			log.Printf("audit log write failed for sample %s: %v", rec.SampleID, logErr)
		}
	}
	if delta.Significant {
		it.Notify.Post("Sample " + rec.SampleID + ": " + delta.Message)
	}
	return rec, delta, nil
}
