package attendance

import (
	"context"
	"errors"
)

// RecordRequest is a proposed attendance event.
type RecordRequest struct {
	StudentID  string
	ClassID    string
	Status     Status
	Date       Date
	RecordedBy string
	Notes      *string
}

// Validator decides whether a proposed record may be written.
type Validator struct {
	lookup Lookup
}

func NewValidator(lookup Lookup) *Validator {
	return &Validator{lookup: lookup}
}

// validation state shared by the checks of one Check call.
type checkState struct {
	req      RecordRequest
	subject  *Student
	recorder *Student
}

type check func(ctx context.Context, v *Validator, st *checkState) error

// checks run in this order and the first failure wins. Callers rely on the
// order: a missing class is reported before a missing student.
var checks = []check{
	func(ctx context.Context, v *Validator, st *checkState) error {
		class, err := v.lookup.GetClass(ctx, st.req.ClassID)
		if err != nil {
			return storeFailure("get class", err)
		}
		if class == nil {
			return notFound(KindClass, st.req.ClassID)
		}
		return nil
	},
	func(ctx context.Context, v *Validator, st *checkState) error {
		student, err := v.lookup.GetStudent(ctx, st.req.StudentID)
		if err != nil {
			return storeFailure("get student", err)
		}
		if student == nil {
			return notFound(KindStudent, st.req.StudentID)
		}
		st.subject = student
		return nil
	},
	func(_ context.Context, _ *Validator, st *checkState) error {
		if st.subject.ClassID != st.req.ClassID {
			return ErrMismatchedClass
		}
		return nil
	},
	func(ctx context.Context, v *Validator, st *checkState) error {
		recorder, err := v.lookup.GetStudent(ctx, st.req.RecordedBy)
		if err != nil {
			return storeFailure("get recorder", err)
		}
		if recorder == nil {
			return notFound(KindRecorder, st.req.RecordedBy)
		}
		st.recorder = recorder
		return nil
	},
	func(_ context.Context, _ *Validator, st *checkState) error {
		if !st.recorder.IsAttendanceRecorder {
			return ErrUnauthorized
		}
		return nil
	},
}

// Check runs the precondition chain for req. It never writes.
func (v *Validator) Check(ctx context.Context, req RecordRequest) error {
	st := &checkState{req: req}
	for _, c := range checks {
		if err := c(ctx, v, st); err != nil {
			return err
		}
	}
	return nil
}

// rejectReason maps a validation error to a metrics label.
func rejectReason(err error) string {
	if kind, ok := NotFoundKind(err); ok {
		return string(kind) + "_not_found"
	}
	switch {
	case errors.Is(err, ErrMismatchedClass):
		return "mismatched_class"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrStoreFailure):
		return "store_failure"
	}
	return "other"
}
