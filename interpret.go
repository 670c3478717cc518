package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decision thresholds from the QFT-Plus package insert.
const (
	highNilThreshold  = 8.0
	antigenThreshold  = 0.35
	mitogenThreshold  = 0.5
	nilQuarterPortion = 0.25
)

// Classify applies the fixed QFT-Plus decision rule to the four measured
// concentrations. Ordered, first match wins:
//
//  1. Nil above 8.0 invalidates the panel regardless of antigen response.
//  2. TB1, then TB2: background-corrected delta must reach 0.35 AND 25% of
//     Nil. TB1 is deliberately evaluated first; when both qualify only the
//     TB1 reason is reported.
//  3. Otherwise Mitogen-Nil >= 0.5 validates a negative, else low mitogen.
//
// Pure and deterministic; it performs no range validation (callers check
// numeric-ness, and negative inputs pass through with NilQuarter floored
// at 0, matching the original instrument-side behavior).
func Classify(nilVal, tb1, tb2, mitogen float64) Classification {
	c := Classification{
		TB1MinusNil: tb1 - nilVal,
		TB2MinusNil: tb2 - nilVal,
		MitMinusNil: mitogen - nilVal,
	}
	if nilVal >= 0 {
		c.NilQuarter = nilQuarterPortion * nilVal
	}

	if nilVal > highNilThreshold {
		c.Result = ResultIndeterminate
		c.Reason = fmt.Sprintf("High Nil Control (%.3f > 8.0 IU/mL)", nilVal)
		c.ReasonTag = TagHighNil
		return c
	}

	tb1Positive := c.TB1MinusNil >= antigenThreshold && c.TB1MinusNil >= c.NilQuarter
	tb2Positive := c.TB2MinusNil >= antigenThreshold && c.TB2MinusNil >= c.NilQuarter

	switch {
	case tb1Positive:
		c.Result = ResultPositive
		c.Reason = fmt.Sprintf("TB1 Antigen positive (TB1-Nil=%.3f IU/mL)", c.TB1MinusNil)
	case tb2Positive:
		c.Result = ResultPositive
		c.Reason = fmt.Sprintf("TB2 Antigen positive (TB2-Nil=%.3f IU/mL)", c.TB2MinusNil)
	case c.MitMinusNil >= mitogenThreshold:
		c.Result = ResultNegative
		c.Reason = "TB Antigens negative, Mitogen control valid"
	default:
		c.Result = ResultIndeterminate
		c.Reason = fmt.Sprintf("Low Mitogen Control (Mit-Nil=%.3f < 0.5 IU/mL difference)", c.MitMinusNil)
		c.ReasonTag = TagLowMitogen
	}
	return c
}

// MeasurementWarnings returns plausibility notes for a measurement that is
// still interpretable: a Nil inside the valid range but above 1.0, or an
// unusually strong mitogen response. Advisory only, never blocking.
func MeasurementWarnings(m PanelMeasurement) []string {
	var warnings []string
	if m.Nil > 1.0 && m.Nil <= highNilThreshold {
		warnings = append(warnings, fmt.Sprintf("Nil (%.3f) high but acceptable.", m.Nil))
	}
	if m.Mitogen > 15.0 {
		warnings = append(warnings, fmt.Sprintf("Mitogen (%.3f) very high.", m.Mitogen))
	}
	return warnings
}

// ParseConcentration validates one numeric input field on behalf of callers;
// the decision rule itself accepts any finite values.
func ParseConcentration(field, value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, &InvalidNumericError{Field: field, Value: value}
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InvalidNumericError{Field: field, Value: value}
	}
	return v, nil
}
