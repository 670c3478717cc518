package main

import (
	"fmt"
	"strings"
)

// HeaderError aborts a whole batch: one or more required columns are absent
// from the header row.
type HeaderError struct {
	Missing []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("batch header missing required columns: %s", strings.Join(e.Missing, ", "))
}

// InvalidNumericError reports a required numeric field that is missing or
// does not parse as a finite real number. Raised by callers before the
// decision rule runs, never by the rule itself.
type InvalidNumericError struct {
	Field string
	Value string
}

func (e *InvalidNumericError) Error() string {
	return fmt.Sprintf("%s: invalid numeric value %q", e.Field, e.Value)
}

// DateFormatError reports a report-range string that is not a YYYY-MM-DD
// calendar date.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Value)
}
