// ============================================================================
// internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"
)

// ============================================================================
// User Models
// ============================================================================

// User represents an account (student or teacher). The required unique
// identifier depends on the role: teachers carry a unique email, students a
// unique roll number. Both fields are sparse-indexed so the other role can
// omit them.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string    `bson:"password_hash" json:"-"` // Never expose in JSON
	Role         string    `bson:"role" json:"role"`       // student, teacher, admin
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	// Student-specific fields
	RollNumber     string    `bson:"roll_number,omitempty" json:"roll_number,omitempty"`
	DateOfBirth    time.Time `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	Class          string    `bson:"class,omitempty" json:"class,omitempty"`
	Section        string    `bson:"section,omitempty" json:"section,omitempty"`
	ProfilePicture string    `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
}

// IsStudent reports whether the account carries the student role.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// CanManageResults reports whether the account may create or modify results.
func (u *User) CanManageResults() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

// ============================================================================
// Result Models
// ============================================================================

// SubjectEntry is one row of marks within a result. The per-subject letter
// grade is supplied by the caller and stored as-is.
type SubjectEntry struct {
	Name          string  `bson:"name" json:"name"`
	MarksObtained float64 `bson:"marks_obtained" json:"marks_obtained"`
	TotalMarks    float64 `bson:"total_marks" json:"total_marks"`
	Grade         string  `bson:"grade,omitempty" json:"grade,omitempty"`
}

// Result represents one exam outcome for one student. The aggregate fields
// (TotalMarks, Percentage, OverallGrade) are derived from Subjects whenever
// the list is non-empty; a result that only carries an attached document
// keeps the neutral defaults.
type Result struct {
	ID           string         `bson:"_id" json:"id"`
	StudentID    string         `bson:"student_id" json:"student_id"`
	ExamName     string         `bson:"exam_name" json:"exam_name"`
	ExamDate     time.Time      `bson:"exam_date" json:"exam_date"`
	PDFPath      string         `bson:"pdf_path,omitempty" json:"pdf_path,omitempty"`
	Subjects     []SubjectEntry `bson:"subjects" json:"subjects"`
	TotalMarks   float64        `bson:"total_marks" json:"total_marks"`
	Percentage   string         `bson:"percentage" json:"percentage"`
	OverallGrade string         `bson:"overall_grade" json:"overall_grade"`
	Remarks      string         `bson:"remarks,omitempty" json:"remarks,omitempty"`
	CreatedBy    string         `bson:"created_by" json:"created_by"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updated_at"`
}

// ============================================================================
// Response Models (for API responses)
// ============================================================================

// StudentSummary carries the student identity fields resolved into result
// responses.
type StudentSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number,omitempty"`
	Class      string `json:"class,omitempty"`
	Section    string `json:"section,omitempty"`
}

// TeacherSummary carries the creator identity fields resolved into result
// responses.
type TeacherSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ResultWithDetails extends Result with the resolved student and creator
// identities (the document-store equivalent of a join).
type ResultWithDetails struct {
	Result
	Student *StudentSummary `json:"student,omitempty"`
	Creator *TeacherSummary `json:"creator,omitempty"`
}

// ============================================================================
// Validation Constants
// ============================================================================

const (
	// User roles
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"

	// Neutral aggregate defaults for results without subject entries
	GradeNotApplicable = "N/A"
	PercentageZero     = "0"
)

// IsValidRole checks if a user role is valid.
func IsValidRole(role string) bool {
	validRoles := map[string]bool{
		RoleStudent: true, RoleTeacher: true, RoleAdmin: true,
	}
	return validRoles[role]
}
