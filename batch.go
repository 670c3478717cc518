package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// Canonical batch column names, matched case-insensitively in any order.
var requiredBatchHeaders = []string{"sample id", "nil", "tb1", "tb2", "mitogen"}

// batchHeader maps each required column to its index in the header row.
type batchHeader struct {
	sampleID int
	nilVal   int
	tb1      int
	tb2      int
	mitogen  int
}

func (h batchHeader) maxIndex() int {
	max := h.sampleID
	for _, i := range []int{h.nilVal, h.tb1, h.tb2, h.mitogen} {
		if i > max {
			max = i
		}
	}
	return max
}

// ParseBatchHeader resolves the required columns from a header row. Extra
// columns are ignored; a missing required column fails the whole batch.
func ParseBatchHeader(row []string) (batchHeader, error) {
	h := batchHeader{sampleID: -1, nilVal: -1, tb1: -1, tb2: -1, mitogen: -1}
	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "sample id":
			h.sampleID = i
		case "nil":
			h.nilVal = i
		case "tb1":
			h.tb1 = i
		case "tb2":
			h.tb2 = i
		case "mitogen":
			h.mitogen = i
		}
	}

	var missing []string
	for name, idx := range map[string]int{
		"sample id": h.sampleID, "nil": h.nilVal, "tb1": h.tb1, "tb2": h.tb2, "mitogen": h.mitogen,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return h, &HeaderError{Missing: missing}
	}
	return h, nil
}

// IngestBatch processes an already-split table: row 1 is the header, every
// following row is validated independently, classified, delta-checked and
// persisted. A bad row becomes a skip count and never aborts its neighbors;
// only a missing required header (or a persistence failure) is fatal.
func IngestBatch(it *Interpreter, rows [][]string, operatorID, runID string) (BatchOutcome, error) {
	if len(rows) == 0 {
		_, err := ParseBatchHeader(nil)
		return BatchOutcome{}, err
	}

	header, err := ParseBatchHeader(rows[0])
	if err != nil {
		return BatchOutcome{}, err
	}

	var outcome BatchOutcome
	for i, row := range rows[1:] {
		rowNum := i + 2
		outcome.TotalRows++

		if rowIsBlank(row) {
			continue
		}

		m, err := parseBatchRow(row, header, operatorID, runID)
		if err != nil {
			log.Printf("batch row %d skipped: %v", rowNum, err)
			outcome.Skipped++
			continue
		}

		rec, delta, err := it.Interpret(m, time.Now())
		if err != nil {
			return outcome, fmt.Errorf("batch row %d (sample %s): %w", rowNum, m.SampleID, err)
		}
		outcome.Results = append(outcome.Results, RowResult{RowNum: rowNum, Record: rec, Delta: delta})
	}
	return outcome, nil
}

func parseBatchRow(row []string, header batchHeader, operatorID, runID string) (PanelMeasurement, error) {
	if len(row) <= header.maxIndex() {
		return PanelMeasurement{}, fmt.Errorf("too few columns (%d)", len(row))
	}

	sampleID := strings.TrimSpace(row[header.sampleID])
	if sampleID == "" {
		return PanelMeasurement{}, fmt.Errorf("missing Sample ID")
	}

	m := PanelMeasurement{SampleID: sampleID, OperatorID: operatorID, RunID: runID}
	for _, f := range []struct {
		name  string
		index int
		dst   *float64
	}{
		{"Nil", header.nilVal, &m.Nil},
		{"TB1", header.tb1, &m.TB1},
		{"TB2", header.tb2, &m.TB2},
		{"Mitogen", header.mitogen, &m.Mitogen},
	} {
		v, err := ParseConcentration(f.name, row[f.index])
		if err != nil {
			return PanelMeasurement{}, err
		}
		*f.dst = v
	}
	return m, nil
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ReadBatchCSV reads and splits a batch file, stripping a UTF-8 BOM if the
// exporting instrument wrote one. Rows may have ragged lengths; length
// validation happens per row during ingestion.
func ReadBatchCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readBatchRows(f)
}

func readBatchRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
