package main

import "time"

// Result codes persisted to history. These exact tokens are pattern-matched
// by the aggregation and delta-check code paths, so they must stay stable.
const (
	ResultPositive      = "POS"
	ResultNegative      = "NEG"
	ResultIndeterminate = "IND"
)

// Structured sub-reason tags for indeterminate results, stored alongside the
// human-readable reason text.
const (
	TagHighNil    = "high_nil"
	TagLowMitogen = "low_mitogen"
	TagOther      = "other"
)

// PanelMeasurement is one QFT-Plus panel as entered or imported: the four
// measured concentrations in IU/mL plus identifiers.
type PanelMeasurement struct {
	SampleID   string
	RunID      string // "N/A" when absent
	OperatorID string // "N/A" when absent
	Nil        float64
	TB1        float64
	TB2        float64
	Mitogen    float64
}

// Classification is the output of the decision rule for one measurement.
type Classification struct {
	Result      string
	Reason      string
	ReasonTag   string // set for indeterminate results only
	TB1MinusNil float64
	TB2MinusNil float64
	MitMinusNil float64
	NilQuarter  float64
}

// HistoryRecord is one persisted interpretation event. Rows are append-only;
// nothing in this program updates or deletes them.
type HistoryRecord struct {
	ID         int64
	RecordedAt time.Time
	OperatorID string
	RunID      string
	SampleID   string
	Nil        float64
	TB1        float64
	TB2        float64
	Mitogen    float64
	Result     string
	Reason     string
	ReasonTag  string
}

// NewHistoryRecord combines a measurement and its classification into the
// record shape the store persists.
func NewHistoryRecord(m PanelMeasurement, c Classification, at time.Time) HistoryRecord {
	return HistoryRecord{
		RecordedAt: at,
		OperatorID: orNA(m.OperatorID),
		RunID:      orNA(m.RunID),
		SampleID:   m.SampleID,
		Nil:        m.Nil,
		TB1:        m.TB1,
		TB2:        m.TB2,
		Mitogen:    m.Mitogen,
		Result:     c.Result,
		Reason:     c.Reason,
		ReasonTag:  c.ReasonTag,
	}
}

// DeltaCheckResult flags a clinically significant change against the
// sample's most recent prior interpretation. Not persisted.
type DeltaCheckResult struct {
	Significant bool
	Message     string
}

// RowResult ties a processed batch row back to its originating row number
// (1-based, header is row 1).
type RowResult struct {
	RowNum int
	Record HistoryRecord
	Delta  DeltaCheckResult
}

// BatchOutcome summarizes one batch import. TotalRows counts every data row
// seen (header excluded, fully blank rows included); Skipped counts rows
// rejected by validation; fully blank rows are neither skipped nor processed.
type BatchOutcome struct {
	TotalRows int
	Skipped   int
	Results   []RowResult
}

func (o BatchOutcome) Processed() int { return len(o.Results) }

// AggregationSummary holds the counts and rates for one queried date range.
type AggregationSummary struct {
	From time.Time
	To   time.Time

	Total         int
	Positive      int
	Negative      int
	Indeterminate int

	HighNil            int
	LowMitogen         int
	OtherIndeterminate int

	// Rates are percentages; all 0 when Total is 0.
	PositiveRate      float64
	NegativeRate      float64
	IndeterminateRate float64

	UniqueRunIDs    int
	UniqueOperators int
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
