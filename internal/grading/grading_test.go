package grading

import (
	"testing"

	"srms/internal/shared"
)

func TestGradeFor_Boundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{100, "A+"},
		{90.00, "A+"},
		{89.99, "A"},
		{80.00, "A"},
		{79.99, "B+"},
		{70.00, "B+"},
		{69.99, "B"},
		{60.00, "B"},
		{59.99, "C+"},
		{50.00, "C+"},
		{49.99, "C"},
		{40.00, "C"},
		{39.99, "D"},
		{33.00, "D"},
		{32.99, "F"},
		{0, "F"},
	}

	for _, c := range cases {
		if got := GradeFor(c.pct); got != c.want {
			t.Errorf("GradeFor(%.2f) = %s, want %s", c.pct, got, c.want)
		}
	}
}

func TestDerive(t *testing.T) {
	cases := []struct {
		name           string
		subjects       []shared.SubjectEntry
		wantTotal      float64
		wantPercentage string
		wantGrade      string
	}{
		{
			name: "two subjects",
			subjects: []shared.SubjectEntry{
				{Name: "Math", MarksObtained: 80, TotalMarks: 100},
				{Name: "Physics", MarksObtained: 60, TotalMarks: 100},
			},
			wantTotal:      140,
			wantPercentage: "70.00",
			wantGrade:      "B+",
		},
		{
			name: "single subject top grade",
			subjects: []shared.SubjectEntry{
				{Name: "Math", MarksObtained: 95, TotalMarks: 100},
			},
			wantTotal:      95,
			wantPercentage: "95.00",
			wantGrade:      "A+",
		},
		{
			name: "missing total defaults to 100",
			subjects: []shared.SubjectEntry{
				{Name: "Chemistry", MarksObtained: 45},
			},
			wantTotal:      45,
			wantPercentage: "45.00",
			wantGrade:      "C",
		},
		{
			name: "uneven totals",
			subjects: []shared.SubjectEntry{
				{Name: "English", MarksObtained: 30, TotalMarks: 50},
				{Name: "History", MarksObtained: 70, TotalMarks: 100},
			},
			wantTotal:      100,
			wantPercentage: "66.67",
			wantGrade:      "B",
		},
		{
			name:           "empty list avoids division by zero",
			subjects:       nil,
			wantTotal:      0,
			wantPercentage: "0.00",
			wantGrade:      "F",
		},
		{
			name: "all-zero marks",
			subjects: []shared.SubjectEntry{
				{Name: "Math", MarksObtained: 0, TotalMarks: 100},
			},
			wantTotal:      0,
			wantPercentage: "0.00",
			wantGrade:      "F",
		},
		{
			name: "rounds to two decimals at a band floor",
			subjects: []shared.SubjectEntry{
				{Name: "Math", MarksObtained: 33, TotalMarks: 100},
				{Name: "Physics", MarksObtained: 33, TotalMarks: 100},
				{Name: "English", MarksObtained: 33, TotalMarks: 100},
			},
			wantTotal:      99,
			wantPercentage: "33.00",
			wantGrade:      "D",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Derive(c.subjects)
			if got.TotalMarks != c.wantTotal {
				t.Errorf("TotalMarks = %v, want %v", got.TotalMarks, c.wantTotal)
			}
			if got.Percentage != c.wantPercentage {
				t.Errorf("Percentage = %q, want %q", got.Percentage, c.wantPercentage)
			}
			if got.OverallGrade != c.wantGrade {
				t.Errorf("OverallGrade = %q, want %q", got.OverallGrade, c.wantGrade)
			}
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	subjects := []shared.SubjectEntry{
		{Name: "Math", MarksObtained: 41.5, TotalMarks: 60},
		{Name: "Biology", MarksObtained: 28.25, TotalMarks: 40},
	}

	first := Derive(subjects)
	for i := 0; i < 10; i++ {
		if got := Derive(subjects); got != first {
			t.Fatalf("Derive not deterministic: %+v != %+v", got, first)
		}
	}
}
