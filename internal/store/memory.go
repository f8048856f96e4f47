package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"classattend/internal/attendance"
)

// ErrReferenced is returned when a delete would orphan rows pointing at the
// deleted entity. It mirrors the RESTRICT foreign keys of the SQL schema.
var ErrReferenced = errors.New("entity still referenced")

// Memory is an in-process attendance.Store. It keeps insertion order and
// enforces the same keys and references as the Postgres schema.
type Memory struct {
	mu       sync.RWMutex
	classes  []attendance.Class
	students []attendance.Student
	teachers []attendance.Teacher
	records  []attendance.Record
}

var _ attendance.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ---------- Classes ----------

func (m *Memory) CreateClass(ctx context.Context, c attendance.Class) (attendance.Class, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Class{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if m.classIndex(c.ID) >= 0 {
		return attendance.Class{}, fmt.Errorf("%w: class %s", attendance.ErrConflict, c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.classes = append(m.classes, c)
	return c, nil
}

func (m *Memory) GetClass(ctx context.Context, id string) (*attendance.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.classIndex(id)
	if i < 0 {
		return nil, nil
	}
	c := m.classes[i]
	return &c, nil
}

func (m *Memory) ListClasses(ctx context.Context) ([]attendance.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]attendance.Class, len(m.classes))
	copy(out, m.classes)
	return out, nil
}

func (m *Memory) UpdateClass(ctx context.Context, id string, patch attendance.ClassPatch) (*attendance.Class, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.classIndex(id)
	if i < 0 {
		return nil, nil
	}
	c := &m.classes[i]
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Grade != nil {
		c.Grade = *patch.Grade
	}
	if patch.AcademicYear != nil {
		c.AcademicYear = *patch.AcademicYear
	}
	out := *c
	return &out, nil
}

func (m *Memory) DeleteClass(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.classIndex(id)
	if i < 0 {
		return 0, nil
	}
	for _, s := range m.students {
		if s.ClassID == id {
			return 0, fmt.Errorf("delete class %s: %w by student %s", id, ErrReferenced, s.ID)
		}
	}
	for _, r := range m.records {
		if r.ClassID == id {
			return 0, fmt.Errorf("delete class %s: %w by record %s", id, ErrReferenced, r.ID)
		}
	}
	m.classes = append(m.classes[:i], m.classes[i+1:]...)
	return 1, nil
}

func (m *Memory) classIndex(id string) int {
	for i := range m.classes {
		if m.classes[i].ID == id {
			return i
		}
	}
	return -1
}

// ---------- Students ----------

func (m *Memory) CreateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Student{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if m.classIndex(s.ClassID) < 0 {
		return attendance.Student{}, fmt.Errorf("create student: class %s does not exist", s.ClassID)
	}
	for _, other := range m.students {
		if other.ID == s.ID {
			return attendance.Student{}, fmt.Errorf("%w: student %s", attendance.ErrConflict, s.ID)
		}
		if other.StudentNumber == s.StudentNumber {
			return attendance.Student{}, fmt.Errorf("%w: student number %s", attendance.ErrConflict, s.StudentNumber)
		}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.students = append(m.students, s)
	return s, nil
}

func (m *Memory) GetStudent(ctx context.Context, id string) (*attendance.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.studentIndex(id)
	if i < 0 {
		return nil, nil
	}
	s := m.students[i]
	return &s, nil
}

func (m *Memory) ListStudentsByClass(ctx context.Context, classID string) ([]attendance.Student, error) {
	return m.filterStudents(ctx, func(s attendance.Student) bool {
		return s.ClassID == classID
	})
}

func (m *Memory) ListRecorders(ctx context.Context, classID string) ([]attendance.Student, error) {
	return m.filterStudents(ctx, func(s attendance.Student) bool {
		return s.ClassID == classID && s.IsAttendanceRecorder
	})
}

func (m *Memory) filterStudents(ctx context.Context, keep func(attendance.Student) bool) ([]attendance.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []attendance.Student
	for _, s := range m.students {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) UpdateStudent(ctx context.Context, id string, patch attendance.StudentPatch) (*attendance.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.studentIndex(id)
	if i < 0 {
		return nil, nil
	}
	if patch.StudentNumber != nil {
		for _, other := range m.students {
			if other.ID != id && other.StudentNumber == *patch.StudentNumber {
				return nil, fmt.Errorf("%w: student number %s", attendance.ErrConflict, *patch.StudentNumber)
			}
		}
	}
	if patch.ClassID != nil && m.classIndex(*patch.ClassID) < 0 {
		return nil, fmt.Errorf("update student: class %s does not exist", *patch.ClassID)
	}

	s := &m.students[i]
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.StudentNumber != nil {
		s.StudentNumber = *patch.StudentNumber
	}
	if patch.ClassID != nil {
		s.ClassID = *patch.ClassID
	}
	if patch.IsAttendanceRecorder != nil {
		s.IsAttendanceRecorder = *patch.IsAttendanceRecorder
	}
	out := *s
	return &out, nil
}

func (m *Memory) DeleteStudent(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.studentIndex(id)
	if i < 0 {
		return 0, nil
	}
	if err := m.studentReferenced(id); err != nil {
		return 0, err
	}
	m.students = append(m.students[:i], m.students[i+1:]...)
	return 1, nil
}

func (m *Memory) DeleteStudentsByClass(ctx context.Context, classID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.students {
		if s.ClassID != classID {
			continue
		}
		if err := m.studentReferenced(s.ID); err != nil {
			return 0, err
		}
	}
	kept := m.students[:0]
	var n int64
	for _, s := range m.students {
		if s.ClassID == classID {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.students = kept
	return n, nil
}

func (m *Memory) studentReferenced(id string) error {
	for _, r := range m.records {
		if r.StudentID == id || r.RecordedBy == id {
			return fmt.Errorf("delete student %s: %w by record %s", id, ErrReferenced, r.ID)
		}
	}
	return nil
}

func (m *Memory) studentIndex(id string) int {
	for i := range m.students {
		if m.students[i].ID == id {
			return i
		}
	}
	return -1
}

// ---------- Teachers ----------

func (m *Memory) CreateTeacher(ctx context.Context, t attendance.Teacher) (attendance.Teacher, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Teacher{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	for _, other := range m.teachers {
		if other.ID == t.ID || other.Email == t.Email {
			return attendance.Teacher{}, fmt.Errorf("%w: teacher %s", attendance.ErrConflict, t.Email)
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.teachers = append(m.teachers, t)
	return t, nil
}

func (m *Memory) GetTeacherByEmail(ctx context.Context, email string) (*attendance.Teacher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.teachers {
		if t.Email == email {
			out := t
			return &out, nil
		}
	}
	return nil, nil
}

// ---------- Attendance records ----------

func (m *Memory) InsertRecord(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if m.classIndex(r.ClassID) < 0 {
		return attendance.Record{}, fmt.Errorf("insert record: class %s does not exist", r.ClassID)
	}
	if m.studentIndex(r.StudentID) < 0 || m.studentIndex(r.RecordedBy) < 0 {
		return attendance.Record{}, fmt.Errorf("insert record: student %s or recorder %s does not exist", r.StudentID, r.RecordedBy)
	}
	for _, other := range m.records {
		if other.ID == r.ID {
			return attendance.Record{}, fmt.Errorf("%w: record %s", attendance.ErrConflict, r.ID)
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.records = append(m.records, r)
	return r, nil
}

// ListRecords returns matching records ordered by date, then insertion.
func (m *Memory) ListRecords(ctx context.Context, classID string, from, to attendance.Date) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []attendance.Record
	for _, r := range m.records {
		if r.ClassID == classID && r.Date.Within(from, to) {
			out = append(out, r)
		}
	}
	sortRecordsByDate(out)
	return out, nil
}

func (m *Memory) DeleteRecordsByClass(ctx context.Context, classID string) (int64, error) {
	return m.deleteRecords(ctx, func(r attendance.Record) bool { return r.ClassID == classID })
}

func (m *Memory) DeleteRecordsByStudent(ctx context.Context, studentID string) (int64, error) {
	return m.deleteRecords(ctx, func(r attendance.Record) bool { return r.StudentID == studentID })
}

func (m *Memory) DeleteRecordsByRecorder(ctx context.Context, studentID string) (int64, error) {
	return m.deleteRecords(ctx, func(r attendance.Record) bool { return r.RecordedBy == studentID })
}

func (m *Memory) deleteRecords(ctx context.Context, match func(attendance.Record) bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var n int64
	for _, r := range m.records {
		if match(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n, nil
}

func sortRecordsByDate(recs []attendance.Record) {
	slices.SortStableFunc(recs, func(a, b attendance.Record) int {
		return a.Date.Time().Compare(b.Date.Time())
	})
}
