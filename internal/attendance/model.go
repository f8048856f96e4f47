package attendance

import (
	"time"
)

// Status is the closed set of attendance outcomes.
type Status string

const (
	StatusPresent      Status = "Present"
	StatusSick         Status = "Sick"
	StatusExcusedLeave Status = "ExcusedLeave"
	StatusAbsent       Status = "Absent"
	StatusDispensation Status = "Dispensation"
)

// Statuses lists every valid status in reporting order.
var Statuses = []Status{StatusPresent, StatusSick, StatusExcusedLeave, StatusAbsent, StatusDispensation}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusSick, StatusExcusedLeave, StatusAbsent, StatusDispensation:
		return true
	}
	return false
}

// Class is a cohort of students sharing grade and academic-year labels.
type Class struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Grade        string    `json:"grade"`
	AcademicYear string    `json:"academic_year"`
	CreatedAt    time.Time `json:"created_at"`
}

// Student belongs to exactly one class. StudentNumber is the school-issued
// identifier and is unique across the system.
type Student struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	StudentNumber        string    `json:"student_id"`
	ClassID              string    `json:"class_id"`
	IsAttendanceRecorder bool      `json:"is_attendance_recorder"`
	CreatedAt            time.Time `json:"created_at"`
}

// Teacher gates access to reporting and roster management.
type Teacher struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Record is one (student, date, status) observation. ClassID is the
// student's class at the time of recording and is never re-derived.
type Record struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	ClassID    string    `json:"class_id"`
	Status     Status    `json:"status"`
	Date       Date      `json:"date"`
	RecordedBy string    `json:"recorded_by"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary is the per-student aggregate over a reporting window.
type Summary struct {
	StudentID            string `json:"student_id"`
	StudentName          string `json:"student_name"`
	TotalDays            int    `json:"total_days"`
	Present              int    `json:"present"`
	Sick                 int    `json:"sick"`
	ExcusedLeave         int    `json:"excused_leave"`
	Absent               int    `json:"absent"`
	Dispensation         int    `json:"dispensation"`
	AttendancePercentage int    `json:"attendance_percentage"`
}

// ClassPatch carries a partial class update; nil fields keep their stored value.
type ClassPatch struct {
	Name         *string
	Grade        *string
	AcademicYear *string
}

// Empty reports whether the patch changes nothing.
func (p ClassPatch) Empty() bool {
	return p.Name == nil && p.Grade == nil && p.AcademicYear == nil
}

// StudentPatch carries a partial student update; nil fields keep their stored value.
type StudentPatch struct {
	Name                 *string
	StudentNumber        *string
	ClassID              *string
	IsAttendanceRecorder *bool
}

func (p StudentPatch) Empty() bool {
	return p.Name == nil && p.StudentNumber == nil && p.ClassID == nil && p.IsAttendanceRecorder == nil
}
