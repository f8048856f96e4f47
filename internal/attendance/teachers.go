package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PasswordHasher turns passwords into opaque hashes and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// MinPasswordLength is the shortest accepted teacher password.
const MinPasswordLength = 6

// Teachers manages teacher accounts and credential checks.
type Teachers struct {
	store  TeacherStore
	hasher PasswordHasher
	log    *slog.Logger
	now    func() time.Time
}

func NewTeachers(store TeacherStore, hasher PasswordHasher, log *slog.Logger) *Teachers {
	if log == nil {
		log = slog.Default()
	}
	return &Teachers{store: store, hasher: hasher, log: log, now: time.Now}
}

// NewTeacher is the input of Create.
type NewTeacher struct {
	Name     string
	Email    string
	Password string
}

func (t *Teachers) Create(ctx context.Context, in NewTeacher) (Teacher, error) {
	email := normalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.Name) == "" {
		return Teacher{}, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return Teacher{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hash, err := t.hasher.Hash(in.Password)
	if err != nil {
		return Teacher{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := t.store.CreateTeacher(ctx, Teacher{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    t.now().UTC(),
	})
	if err != nil {
		return Teacher{}, storeFailure("create teacher", err)
	}
	t.log.Info("teacher created", "teacher_id", created.ID)
	return created, nil
}

// Authenticate returns the teacher owning email if password matches.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (t *Teachers) Authenticate(ctx context.Context, email, password string) (Teacher, error) {
	teacher, err := t.store.GetTeacherByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return Teacher{}, storeFailure("get teacher", err)
	}
	if teacher == nil || !t.hasher.Verify(teacher.PasswordHash, password) {
		return Teacher{}, ErrInvalidCredentials
	}
	return *teacher, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
