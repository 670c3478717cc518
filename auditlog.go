package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

var auditHeader = []string{"Timestamp", "OperatorID", "RunID", "SampleID", "Nil", "TB1", "TB2", "Mitogen", "Result", "Reason"}

// AuditLog is the append-only CSV trail of every interpretation, kept next
// to the history database so lab staff can open it in a spreadsheet.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog opens or creates the log file, writing the header row when the
// file is new or empty.
func NewAuditLog(path string) (*AuditLog, error) {
	info, err := os.Stat(path)
	needHeader := os.IsNotExist(err) || (err == nil && info.Size() == 0)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("audit log stat: %w", err)
	}

	l := &AuditLog{path: path}
	if needHeader {
		if err := l.appendRow(auditHeader); err != nil {
			return nil, fmt.Errorf("audit log header: %w", err)
		}
	}
	return l, nil
}

// Record appends one interpretation row.
func (l *AuditLog) Record(rec HistoryRecord) error {
	return l.appendRow([]string{
		rec.RecordedAt.Format("2006-01-02 15:04:05"),
		rec.OperatorID,
		rec.RunID,
		rec.SampleID,
		fmt.Sprintf("%.3f", rec.Nil),
		fmt.Sprintf("%.3f", rec.TB1),
		fmt.Sprintf("%.3f", rec.TB2),
		fmt.Sprintf("%.3f", rec.Mitogen),
		rec.Result,
		rec.Reason,
	})
}

func (l *AuditLog) appendRow(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
