package store

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

type dialect struct {
	name            string
	schema          string
	rebind          func(query string) string
	uniqueViolation func(err error) bool
}

var postgresDialect = dialect{
	name:            "postgres",
	schema:          postgresSchema,
	rebind:          func(q string) string { return q },
	uniqueViolation: IsUniqueViolation,
}

// SQLite numbered parameters are ?N; the index binds by number, not by
// order of appearance.
var sqliteDialect = dialect{
	name:            "sqlite",
	schema:          sqliteSchema,
	rebind:          func(q string) string { return strings.ReplaceAll(q, "$", "?") },
	uniqueViolation: isSQLiteUniqueViolation,
}

func isSQLiteUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Foreign keys are RESTRICT: cascades are issued by the application in
// dependency order, never by the database.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS classes (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	grade         TEXT NOT NULL,
	academic_year TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS students (
	id                     TEXT PRIMARY KEY,
	name                   TEXT NOT NULL,
	student_id             TEXT NOT NULL UNIQUE,
	class_id               TEXT NOT NULL REFERENCES classes(id) ON DELETE RESTRICT,
	is_attendance_recorder BOOLEAN NOT NULL DEFAULT FALSE,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS teachers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL REFERENCES students(id) ON DELETE RESTRICT,
	class_id    TEXT NOT NULL REFERENCES classes(id) ON DELETE RESTRICT,
	status      TEXT NOT NULL CHECK (status IN ('Present', 'Sick', 'ExcusedLeave', 'Absent', 'Dispensation')),
	date        DATE NOT NULL,
	recorded_by TEXT NOT NULL REFERENCES students(id) ON DELETE RESTRICT,
	notes       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id);
CREATE INDEX IF NOT EXISTS idx_records_class_date ON attendance_records(class_id, date);
CREATE INDEX IF NOT EXISTS idx_records_student ON attendance_records(student_id);
CREATE INDEX IF NOT EXISTS idx_records_recorder ON attendance_records(recorded_by);
`

// Dates and timestamps are stored in go-sqlite3's text time format, which
// orders correctly as long as every value is UTC.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS classes (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	grade         TEXT NOT NULL,
	academic_year TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS students (
	id                     TEXT PRIMARY KEY,
	name                   TEXT NOT NULL,
	student_id             TEXT NOT NULL UNIQUE,
	class_id               TEXT NOT NULL REFERENCES classes(id) ON DELETE RESTRICT,
	is_attendance_recorder BOOLEAN NOT NULL DEFAULT 0,
	created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS teachers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL REFERENCES students(id) ON DELETE RESTRICT,
	class_id    TEXT NOT NULL REFERENCES classes(id) ON DELETE RESTRICT,
	status      TEXT NOT NULL CHECK (status IN ('Present', 'Sick', 'ExcusedLeave', 'Absent', 'Dispensation')),
	date        DATE NOT NULL,
	recorded_by TEXT NOT NULL REFERENCES students(id) ON DELETE RESTRICT,
	notes       TEXT,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id);
CREATE INDEX IF NOT EXISTS idx_records_class_date ON attendance_records(class_id, date);
CREATE INDEX IF NOT EXISTS idx_records_student ON attendance_records(student_id);
CREATE INDEX IF NOT EXISTS idx_records_recorder ON attendance_records(recorded_by);
`
