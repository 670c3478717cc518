package main

import (
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// ParseReportRange turns two date-only strings into the inclusive timestamp
// range [start 00:00:00, end 23:59:59].
func ParseReportRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateOnlyLayout, strings.TrimSpace(startStr), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, &DateFormatError{Value: startStr}
	}
	end, err := time.ParseInLocation(dateOnlyLayout, strings.TrimSpace(endStr), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, &DateFormatError{Value: endStr}
	}
	return start, endOfDay(end), nil
}

// DashboardRange is the rolling window ending today: days=7 covers today and
// the six days before it.
func DashboardRange(now time.Time, days int) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	return start, endOfDay(now)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// Aggregate computes the summary statistics for one queried range. It is a
// pure function of the record sequence: the live dashboard and the on-demand
// summary report both call it, so identical ranges always produce identical
// numbers. No cached counters.
func Aggregate(records []HistoryRecord, from, to time.Time) AggregationSummary {
	s := AggregationSummary{From: from, To: to}
	runIDs := make(map[string]struct{})
	operators := make(map[string]struct{})

	for _, rec := range records {
		s.Total++
		if rec.RunID != "" {
			runIDs[rec.RunID] = struct{}{}
		}
		if rec.OperatorID != "" {
			operators[rec.OperatorID] = struct{}{}
		}

		switch rec.Result {
		case ResultPositive:
			s.Positive++
		case ResultNegative:
			s.Negative++
		case ResultIndeterminate:
			s.Indeterminate++
			switch indReasonTag(rec) {
			case TagHighNil:
				s.HighNil++
			case TagLowMitogen:
				s.LowMitogen++
			default:
				s.OtherIndeterminate++
			}
		}
	}

	s.UniqueRunIDs = len(runIDs)
	s.UniqueOperators = len(operators)
	if s.Total > 0 {
		s.PositiveRate = float64(s.Positive) / float64(s.Total) * 100
		s.NegativeRate = float64(s.Negative) / float64(s.Total) * 100
		s.IndeterminateRate = float64(s.Indeterminate) / float64(s.Total) * 100
	}
	return s
}

// indReasonTag resolves the sub-reason of an indeterminate record. Rows
// written by this version carry a structured tag; rows from older databases
// predate it, so their free-text reason is matched by substring instead.
// The substrings must line up with what Classify writes, or migrated report
// numbers drift.
func indReasonTag(rec HistoryRecord) string {
	if rec.ReasonTag != "" {
		return rec.ReasonTag
	}
	switch {
	case strings.Contains(rec.Reason, "High Nil"):
		return TagHighNil
	case strings.Contains(rec.Reason, "Low Mitogen"):
		return TagLowMitogen
	default:
		return TagOther
	}
}

// RefreshDashboard recomputes the rolling dashboard summary on demand.
func RefreshDashboard(store *Store, days int, now time.Time) (AggregationSummary, error) {
	from, to := DashboardRange(now, days)
	records, err := store.QueryByDateRange(from, to)
	if err != nil {
		return AggregationSummary{}, err
	}
	return Aggregate(records, from, to), nil
}

// SummarizeRange runs an ad-hoc summary over a user-chosen date range.
func SummarizeRange(store *Store, startStr, endStr string) (AggregationSummary, error) {
	from, to, err := ParseReportRange(startStr, endStr)
	if err != nil {
		return AggregationSummary{}, err
	}
	records, err := store.QueryByDateRange(from, to)
	if err != nil {
		return AggregationSummary{}, err
	}
	return Aggregate(records, from, to), nil
}
