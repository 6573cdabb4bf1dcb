// Package grading derives the aggregate fields of a result from its subject
// entries. It is deterministic and performs no I/O; the result lifecycle
// service calls it on both the create and the update path so the two stay
// consistent.
package grading

import (
	"fmt"
	"math"

	"srms/internal/shared"
)

// DefaultSubjectTotal is assumed for a subject entry whose total marks are
// missing or non-positive.
const DefaultSubjectTotal = 100

// Aggregates holds the derived fields of a result.
type Aggregates struct {
	TotalMarks   float64
	Percentage   string // two-decimal string, e.g. "70.00"
	OverallGrade string
}

// gradeBands is evaluated top-down, first match wins.
var gradeBands = []struct {
	Floor float64
	Grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
	{33, "D"},
}

// Derive computes the aggregate fields from a subject list.
//
// TotalMarks is the sum of obtained marks. The percentage is
// 100 * obtained / max, where each subject contributes its own total marks
// to max, defaulting to DefaultSubjectTotal when unset. A zero max (empty
// list) yields percentage 0 rather than a division error. The overall grade
// is read off the band table from the two-decimal-rounded percentage.
func Derive(subjects []shared.SubjectEntry) Aggregates {
	var obtained, max float64
	for _, subject := range subjects {
		obtained += subject.MarksObtained
		if subject.TotalMarks > 0 {
			max += subject.TotalMarks
		} else {
			max += DefaultSubjectTotal
		}
	}

	var pct float64
	if max > 0 {
		pct = obtained / max * 100
	}
	pct = math.Round(pct*100) / 100

	return Aggregates{
		TotalMarks:   obtained,
		Percentage:   FormatPercentage(pct),
		OverallGrade: GradeFor(pct),
	}
}

// GradeFor maps a percentage in [0,100] to its letter grade.
func GradeFor(pct float64) string {
	for _, band := range gradeBands {
		if pct >= band.Floor {
			return band.Grade
		}
	}
	return "F"
}

// FormatPercentage renders a percentage with exactly two decimal places.
func FormatPercentage(pct float64) string {
	return fmt.Sprintf("%.2f", pct)
}
