package attendance

import "context"

// Point lookups return (nil, nil) when the entity does not exist. Deletes
// report how many rows they removed. Implementations return ErrConflict
// (possibly wrapped) on unique-key violations.

// ClassStore persists classes.
type ClassStore interface {
	CreateClass(ctx context.Context, c Class) (Class, error)
	GetClass(ctx context.Context, id string) (*Class, error)
	ListClasses(ctx context.Context) ([]Class, error)
	UpdateClass(ctx context.Context, id string, patch ClassPatch) (*Class, error)
	DeleteClass(ctx context.Context, id string) (int64, error)
}

// StudentStore persists students.
type StudentStore interface {
	CreateStudent(ctx context.Context, s Student) (Student, error)
	GetStudent(ctx context.Context, id string) (*Student, error)
	ListStudentsByClass(ctx context.Context, classID string) ([]Student, error)
	ListRecorders(ctx context.Context, classID string) ([]Student, error)
	UpdateStudent(ctx context.Context, id string, patch StudentPatch) (*Student, error)
	DeleteStudent(ctx context.Context, id string) (int64, error)
	DeleteStudentsByClass(ctx context.Context, classID string) (int64, error)
}

// TeacherStore persists teachers.
type TeacherStore interface {
	CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
	GetTeacherByEmail(ctx context.Context, email string) (*Teacher, error)
}

// RecordStore persists attendance records.
type RecordStore interface {
	InsertRecord(ctx context.Context, r Record) (Record, error)
	// ListRecords returns records of classID dated within [from, to].
	ListRecords(ctx context.Context, classID string, from, to Date) ([]Record, error)
	DeleteRecordsByClass(ctx context.Context, classID string) (int64, error)
	DeleteRecordsByStudent(ctx context.Context, studentID string) (int64, error)
	DeleteRecordsByRecorder(ctx context.Context, studentID string) (int64, error)
}

// Store is the full entity store.
type Store interface {
	ClassStore
	StudentStore
	TeacherStore
	RecordStore
	Ping(ctx context.Context) error
}

// Lookup is the read side the validator needs.
type Lookup interface {
	GetClass(ctx context.Context, id string) (*Class, error)
	GetStudent(ctx context.Context, id string) (*Student, error)
}
