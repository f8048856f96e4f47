package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classattend/internal/attendance"
)

// Repository persists the attendance entities in a SQL database. Queries
// are written with $N placeholders and rebound per dialect.
type Repository struct {
	db      *sql.DB
	dialect dialect
}

var _ attendance.Store = (*Repository)(nil)

// NewPostgres creates a repository over an open Postgres database.
func NewPostgres(db *sql.DB) *Repository {
	return &Repository{db: db, dialect: postgresDialect}
}

// NewSQLite creates a repository over an open SQLite database.
func NewSQLite(db *sql.DB) *Repository {
	return &Repository{db: db, dialect: sqliteDialect}
}

// Ping verifies database connectivity.
func (p *Repository) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Migrate creates the schema if it does not exist yet.
func (p *Repository) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, p.dialect.schema); err != nil {
		return fmt.Errorf("migrate %s: %w", p.dialect.name, err)
	}
	return nil
}

// translate maps driver errors onto the store contract.
func (p *Repository) translate(err error) error {
	if p.dialect.uniqueViolation(err) {
		return fmt.Errorf("%w: %w", attendance.ErrConflict, err)
	}
	return err
}

func (p *Repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, p.dialect.rebind(query), args...)
}

func (p *Repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.db.QueryContext(ctx, p.dialect.rebind(query), args...)
}

type scanner interface {
	Scan(dest ...any) error
}

// ---------- Classes ----------

const classColumns = `id, name, grade, academic_year, created_at`

func scanClass(row scanner) (*attendance.Class, error) {
	var c attendance.Class
	if err := row.Scan(&c.ID, &c.Name, &c.Grade, &c.AcademicYear, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (p *Repository) CreateClass(ctx context.Context, c attendance.Class) (attendance.Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := p.exec(ctx, `
		INSERT INTO classes (id, name, grade, academic_year, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Grade, c.AcademicYear, c.CreatedAt)
	if err != nil {
		return attendance.Class{}, p.translate(err)
	}
	return c, nil
}

func (p *Repository) GetClass(ctx context.Context, id string) (*attendance.Class, error) {
	row := p.queryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
	return scanClass(row)
}

func (p *Repository) ListClasses(ctx context.Context) ([]attendance.Class, error) {
	rows, err := p.query(ctx, `SELECT `+classColumns+` FROM classes ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []attendance.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *c)
	}
	return res, rows.Err()
}

// UpdateClass changes only the non-nil fields of patch.
func (p *Repository) UpdateClass(ctx context.Context, id string, patch attendance.ClassPatch) (*attendance.Class, error) {
	row := p.queryRow(ctx, `
		UPDATE classes SET
			name = COALESCE($2, name),
			grade = COALESCE($3, grade),
			academic_year = COALESCE($4, academic_year)
		WHERE id = $1
		RETURNING `+classColumns,
		id, patch.Name, patch.Grade, patch.AcademicYear)
	c, err := scanClass(row)
	if err != nil {
		return nil, p.translate(err)
	}
	return c, nil
}

func (p *Repository) DeleteClass(ctx context.Context, id string) (int64, error) {
	return p.exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
}

// ---------- Students ----------

const studentColumns = `id, name, student_id, class_id, is_attendance_recorder, created_at`

func scanStudent(row scanner) (*attendance.Student, error) {
	var s attendance.Student
	if err := row.Scan(&s.ID, &s.Name, &s.StudentNumber, &s.ClassID, &s.IsAttendanceRecorder, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (p *Repository) CreateStudent(ctx context.Context, s attendance.Student) (attendance.Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := p.exec(ctx, `
		INSERT INTO students (id, name, student_id, class_id, is_attendance_recorder, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Name, s.StudentNumber, s.ClassID, s.IsAttendanceRecorder, s.CreatedAt)
	if err != nil {
		return attendance.Student{}, p.translate(err)
	}
	return s, nil
}

func (p *Repository) GetStudent(ctx context.Context, id string) (*attendance.Student, error) {
	row := p.queryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func (p *Repository) ListStudentsByClass(ctx context.Context, classID string) ([]attendance.Student, error) {
	return p.listStudents(ctx, `SELECT `+studentColumns+` FROM students WHERE class_id = $1 ORDER BY created_at, id`, classID)
}

func (p *Repository) ListRecorders(ctx context.Context, classID string) ([]attendance.Student, error) {
	return p.listStudents(ctx, `
		SELECT `+studentColumns+` FROM students
		WHERE class_id = $1 AND is_attendance_recorder = TRUE
		ORDER BY created_at, id`, classID)
}

func (p *Repository) listStudents(ctx context.Context, query string, args ...any) ([]attendance.Student, error) {
	rows, err := p.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []attendance.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}

// UpdateStudent changes only the non-nil fields of patch.
func (p *Repository) UpdateStudent(ctx context.Context, id string, patch attendance.StudentPatch) (*attendance.Student, error) {
	row := p.queryRow(ctx, `
		UPDATE students SET
			name = COALESCE($2, name),
			student_id = COALESCE($3, student_id),
			class_id = COALESCE($4, class_id),
			is_attendance_recorder = COALESCE($5, is_attendance_recorder)
		WHERE id = $1
		RETURNING `+studentColumns,
		id, patch.Name, patch.StudentNumber, patch.ClassID, patch.IsAttendanceRecorder)
	s, err := scanStudent(row)
	if err != nil {
		return nil, p.translate(err)
	}
	return s, nil
}

func (p *Repository) DeleteStudent(ctx context.Context, id string) (int64, error) {
	return p.exec(ctx, `DELETE FROM students WHERE id = $1`, id)
}

func (p *Repository) DeleteStudentsByClass(ctx context.Context, classID string) (int64, error) {
	return p.exec(ctx, `DELETE FROM students WHERE class_id = $1`, classID)
}

// ---------- Teachers ----------

func (p *Repository) CreateTeacher(ctx context.Context, t attendance.Teacher) (attendance.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := p.exec(ctx, `
		INSERT INTO teachers (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Name, t.Email, t.PasswordHash, t.CreatedAt)
	if err != nil {
		return attendance.Teacher{}, p.translate(err)
	}
	return t, nil
}

func (p *Repository) GetTeacherByEmail(ctx context.Context, email string) (*attendance.Teacher, error) {
	row := p.queryRow(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM teachers WHERE email = $1
	`, email)
	var t attendance.Teacher
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ---------- Attendance records ----------

// InsertRecord writes a new record.
func (p *Repository) InsertRecord(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := p.exec(ctx, `
		INSERT INTO attendance_records (id, student_id, class_id, status, date, recorded_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.StudentID, r.ClassID, string(r.Status), r.Date, r.RecordedBy, r.Notes, r.CreatedAt)
	if err != nil {
		return attendance.Record{}, p.translate(err)
	}
	return r, nil
}

// ListRecords returns the records of classID dated within [from, to].
func (p *Repository) ListRecords(ctx context.Context, classID string, from, to attendance.Date) ([]attendance.Record, error) {
	rows, err := p.query(ctx, `
		SELECT id, student_id, class_id, status, date, recorded_by, notes, created_at
		FROM attendance_records
		WHERE class_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, created_at, id
	`, classID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []attendance.Record
	for rows.Next() {
		var (
			r      attendance.Record
			status string
		)
		if err := rows.Scan(&r.ID, &r.StudentID, &r.ClassID, &status, &r.Date, &r.RecordedBy, &r.Notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = attendance.Status(status)
		res = append(res, r)
	}
	return res, rows.Err()
}

func (p *Repository) DeleteRecordsByClass(ctx context.Context, classID string) (int64, error) {
	return p.exec(ctx, `DELETE FROM attendance_records WHERE class_id = $1`, classID)
}

func (p *Repository) DeleteRecordsByStudent(ctx context.Context, studentID string) (int64, error) {
	return p.exec(ctx, `DELETE FROM attendance_records WHERE student_id = $1`, studentID)
}

func (p *Repository) DeleteRecordsByRecorder(ctx context.Context, studentID string) (int64, error) {
	return p.exec(ctx, `DELETE FROM attendance_records WHERE recorded_by = $1`, studentID)
}

func (p *Repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := p.db.ExecContext(ctx, p.dialect.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
