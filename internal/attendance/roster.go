package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RosterStore is what roster management needs from the entity store.
type RosterStore interface {
	ClassStore
	StudentStore
	DeleteRecordsByClass(ctx context.Context, classID string) (int64, error)
	DeleteRecordsByStudent(ctx context.Context, studentID string) (int64, error)
	DeleteRecordsByRecorder(ctx context.Context, studentID string) (int64, error)
}

// Roster manages classes and students.
type Roster struct {
	store RosterStore
	cache ReportCache
	log   *slog.Logger
	now   func() time.Time
}

func NewRoster(store RosterStore, log *slog.Logger) *Roster {
	if log == nil {
		log = slog.Default()
	}
	return &Roster{store: store, cache: NopCache{}, log: log, now: time.Now}
}

// WithCache makes roster changes invalidate cached reports of affected classes.
func (r *Roster) WithCache(c ReportCache) *Roster {
	if c != nil {
		r.cache = c
	}
	return r
}

// NewClass is the input of CreateClass.
type NewClass struct {
	Name         string
	Grade        string
	AcademicYear string
}

func (r *Roster) CreateClass(ctx context.Context, in NewClass) (Class, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Class{}, fmt.Errorf("%w: class name is required", ErrInvalidInput)
	}
	c, err := r.store.CreateClass(ctx, Class{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Grade:        in.Grade,
		AcademicYear: in.AcademicYear,
		CreatedAt:    r.now().UTC(),
	})
	if err != nil {
		return Class{}, storeFailure("create class", err)
	}
	return c, nil
}

func (r *Roster) ListClasses(ctx context.Context) ([]Class, error) {
	classes, err := r.store.ListClasses(ctx)
	if err != nil {
		return nil, storeFailure("list classes", err)
	}
	if classes == nil {
		classes = []Class{}
	}
	return classes, nil
}

// UpdateClass applies patch; omitted fields keep their stored value.
func (r *Roster) UpdateClass(ctx context.Context, id string, patch ClassPatch) (Class, error) {
	var (
		c   *Class
		err error
	)
	if patch.Empty() {
		c, err = r.store.GetClass(ctx, id)
	} else {
		c, err = r.store.UpdateClass(ctx, id, patch)
	}
	if err != nil {
		return Class{}, storeFailure("update class", err)
	}
	if c == nil {
		return Class{}, notFound(KindClass, id)
	}
	return *c, nil
}

// cascadeStep is one delete of an ordered cascade. Only the root step
// turns "nothing deleted" into a not-found error.
type cascadeStep struct {
	name string
	run  func(ctx context.Context) (int64, error)
	root bool
}

func (r *Roster) runCascade(ctx context.Context, kind EntityKind, id string, steps []cascadeStep) error {
	for _, step := range steps {
		n, err := step.run(ctx)
		if err != nil {
			return storeFailure(step.name, err)
		}
		r.log.Debug("cascade step", "entity", string(kind), "id", id, "step", step.name, "rows", n)
		if step.root && n == 0 {
			return notFound(kind, id)
		}
	}
	return nil
}

// DeleteClass removes the class, its students and every record filed under it.
// Children go first so each delete satisfies the store's foreign keys.
func (r *Roster) DeleteClass(ctx context.Context, id string) error {
	// Students of the class may have recorded attendance in other classes
	// (after a move) or been recorded there; those rows reference them too.
	students, err := r.store.ListStudentsByClass(ctx, id)
	if err != nil {
		return storeFailure("list students", err)
	}

	steps := []cascadeStep{
		{name: "delete class records", run: func(ctx context.Context) (int64, error) {
			return r.store.DeleteRecordsByClass(ctx, id)
		}},
	}
	for _, s := range students {
		studentID := s.ID
		steps = append(steps,
			cascadeStep{name: "delete student records", run: func(ctx context.Context) (int64, error) {
				return r.store.DeleteRecordsByStudent(ctx, studentID)
			}},
			cascadeStep{name: "delete recorder records", run: func(ctx context.Context) (int64, error) {
				return r.store.DeleteRecordsByRecorder(ctx, studentID)
			}},
		)
	}
	steps = append(steps,
		cascadeStep{name: "delete class students", run: func(ctx context.Context) (int64, error) {
			return r.store.DeleteStudentsByClass(ctx, id)
		}},
		cascadeStep{name: "delete class", root: true, run: func(ctx context.Context) (int64, error) {
			return r.store.DeleteClass(ctx, id)
		}},
	)

	if err := r.runCascade(ctx, KindClass, id, steps); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	if len(students) > 0 {
		r.invalidateAll(ctx)
	}
	r.log.Info("class deleted", "class_id", id, "students", len(students))
	return nil
}

// NewStudent is the input of CreateStudent.
type NewStudent struct {
	Name                 string
	StudentNumber        string
	ClassID              string
	IsAttendanceRecorder bool
}

func (r *Roster) CreateStudent(ctx context.Context, in NewStudent) (Student, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.StudentNumber) == "" {
		return Student{}, fmt.Errorf("%w: student name and number are required", ErrInvalidInput)
	}
	if err := r.requireClass(ctx, in.ClassID); err != nil {
		return Student{}, err
	}
	s, err := r.store.CreateStudent(ctx, Student{
		ID:                   uuid.NewString(),
		Name:                 in.Name,
		StudentNumber:        in.StudentNumber,
		ClassID:              in.ClassID,
		IsAttendanceRecorder: in.IsAttendanceRecorder,
		CreatedAt:            r.now().UTC(),
	})
	if err != nil {
		return Student{}, storeFailure("create student", err)
	}
	r.invalidate(ctx, s.ClassID)
	return s, nil
}

func (r *Roster) ListStudents(ctx context.Context, classID string) ([]Student, error) {
	students, err := r.store.ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, storeFailure("list students", err)
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

// ListRecorders returns the students of classID allowed to record attendance.
func (r *Roster) ListRecorders(ctx context.Context, classID string) ([]Student, error) {
	students, err := r.store.ListRecorders(ctx, classID)
	if err != nil {
		return nil, storeFailure("list recorders", err)
	}
	if students == nil {
		students = []Student{}
	}
	return students, nil
}

// UpdateStudent applies patch; omitted fields keep their stored value. An
// empty patch returns the stored student unchanged.
func (r *Roster) UpdateStudent(ctx context.Context, id string, patch StudentPatch) (Student, error) {
	current, err := r.store.GetStudent(ctx, id)
	if err != nil {
		return Student{}, storeFailure("get student", err)
	}
	if current == nil {
		return Student{}, notFound(KindStudent, id)
	}
	if patch.Empty() {
		return *current, nil
	}
	if patch.ClassID != nil && *patch.ClassID != current.ClassID {
		if err := r.requireClass(ctx, *patch.ClassID); err != nil {
			return Student{}, err
		}
	}

	updated, err := r.store.UpdateStudent(ctx, id, patch)
	if err != nil {
		return Student{}, storeFailure("update student", err)
	}
	if updated == nil {
		return Student{}, notFound(KindStudent, id)
	}
	r.invalidate(ctx, current.ClassID, updated.ClassID)
	return *updated, nil
}

// DeleteStudent removes the student and every record where the student is
// either the subject or the recorder.
func (r *Roster) DeleteStudent(ctx context.Context, id string) error {
	current, err := r.store.GetStudent(ctx, id)
	if err != nil {
		return storeFailure("get student", err)
	}

	steps := []cascadeStep{
		{name: "delete student records", run: func(ctx context.Context) (int64, error) {
			return r.store.DeleteRecordsByStudent(ctx, id)
		}},
		{name: "delete recorder records", run: func(ctx context.Context) (int64, error) {
			return r.store.DeleteRecordsByRecorder(ctx, id)
		}},
		{name: "delete student", root: true, run: func(ctx context.Context) (int64, error) {
			return r.store.DeleteStudent(ctx, id)
		}},
	}
	if err := r.runCascade(ctx, KindStudent, id, steps); err != nil {
		return err
	}
	if current != nil {
		// Recorder rows may sit in any class; drop every cached class report.
		r.invalidateAll(ctx)
	}
	return nil
}

func (r *Roster) requireClass(ctx context.Context, classID string) error {
	c, err := r.store.GetClass(ctx, classID)
	if err != nil {
		return storeFailure("get class", err)
	}
	if c == nil {
		return notFound(KindClass, classID)
	}
	return nil
}

func (r *Roster) invalidate(ctx context.Context, classIDs ...string) {
	if err := r.cache.Invalidate(ctx, classIDs...); err != nil {
		r.log.Warn("report cache invalidation failed", "class_ids", classIDs, "error", err)
	}
}

func (r *Roster) invalidateAll(ctx context.Context) {
	classes, err := r.store.ListClasses(ctx)
	if err != nil {
		r.log.Warn("report cache invalidation skipped", "error", err)
		return
	}
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	if len(ids) > 0 {
		r.invalidate(ctx, ids...)
	}
}
