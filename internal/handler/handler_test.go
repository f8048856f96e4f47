package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/store"
)

type fixture struct {
	router   *gin.Engine
	roster   *attendance.Roster
	teachers *attendance.Teachers
	signer   *auth.Signer
	class    attendance.Class
	other    attendance.Class
	ana      attendance.Student // recorder
	ben      attendance.Student
	cara     attendance.Student // other class
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()

	f := &fixture{
		roster:   attendance.NewRoster(mem, log),
		teachers: attendance.NewTeachers(mem, auth.BcryptHasher{Cost: 4}, log),
		signer:   auth.NewSigner("classattend-test", "test-key", time.Minute, time.Hour),
	}
	h := New(Deps{
		Recorder: attendance.NewRecorder(mem, attendance.NewValidator(mem), log),
		Reports:  attendance.NewReports(mem, log),
		Roster:   f.roster,
		Teachers: f.teachers,
		Signer:   f.signer,
		Health:   map[string]HealthCheck{"store": mem.Ping},
		Log:      log,
	})
	f.router = gin.New()
	h.Register(f.router)

	ctx := context.Background()
	var err error
	f.class, err = f.roster.CreateClass(ctx, attendance.NewClass{Name: "7A", Grade: "7", AcademicYear: "2023/2024"})
	require.NoError(t, err)
	f.other, err = f.roster.CreateClass(ctx, attendance.NewClass{Name: "7B", Grade: "7", AcademicYear: "2023/2024"})
	require.NoError(t, err)
	f.ana, err = f.roster.CreateStudent(ctx, attendance.NewStudent{Name: "Ana", StudentNumber: "S-1", ClassID: f.class.ID, IsAttendanceRecorder: true})
	require.NoError(t, err)
	f.ben, err = f.roster.CreateStudent(ctx, attendance.NewStudent{Name: "Ben", StudentNumber: "S-2", ClassID: f.class.ID})
	require.NoError(t, err)
	f.cara, err = f.roster.CreateStudent(ctx, attendance.NewStudent{Name: "Cara", StudentNumber: "S-3", ClassID: f.other.ID})
	require.NoError(t, err)
	return f
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	pair, err := f.signer.Issue("teacher-1", auth.RoleTeacher, "t@example.com")
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) record(t *testing.T, student attendance.Student, status attendance.Status, date string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/v1/attendance", gin.H{
		"student_id": student.ID, "class_id": student.ClassID, "status": status,
		"date": date, "recorded_by": f.ana.ID,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRecordAttendanceEchoesInput(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/v1/attendance", gin.H{
		"student_id": f.ben.ID, "class_id": f.class.ID, "status": "Sick",
		"date": "2024-03-15", "recorded_by": f.ana.ID, "notes": "flu",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	rec := decode[attendance.Record](t, w)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, f.ben.ID, rec.StudentID)
	assert.Equal(t, f.class.ID, rec.ClassID)
	assert.Equal(t, attendance.StatusSick, rec.Status)
	assert.Equal(t, "2024-03-15", rec.Date.String())
	assert.Equal(t, f.ana.ID, rec.RecordedBy)
	require.NotNil(t, rec.Notes)
	assert.Equal(t, "flu", *rec.Notes)
	assert.False(t, rec.CreatedAt.IsZero())

	w = f.do(t, http.MethodPost, "/v1/attendance", gin.H{
		"student_id": f.ben.ID, "class_id": f.class.ID, "status": "Present",
		"date": "2024-03-16", "recorded_by": f.ana.ID,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"notes":null`)
}

func TestRecordAttendanceErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body gin.H
		code int
		want string
	}{
		{"unknown status", gin.H{"student_id": f.ben.ID, "class_id": f.class.ID, "status": "Late", "date": "2024-03-15", "recorded_by": f.ana.ID}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad date", gin.H{"student_id": f.ben.ID, "class_id": f.class.ID, "status": "Present", "date": "15/03/2024", "recorded_by": f.ana.ID}, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing field", gin.H{"class_id": f.class.ID, "status": "Present", "date": "2024-03-15", "recorded_by": f.ana.ID}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown class and student", gin.H{"student_id": "nope", "class_id": "nope", "status": "Present", "date": "2024-03-15", "recorded_by": f.ana.ID}, http.StatusNotFound, "class nope not found"},
		{"unknown student", gin.H{"student_id": "nope", "class_id": f.class.ID, "status": "Present", "date": "2024-03-15", "recorded_by": f.ana.ID}, http.StatusNotFound, "student nope not found"},
		{"wrong class", gin.H{"student_id": f.cara.ID, "class_id": f.class.ID, "status": "Present", "date": "2024-03-15", "recorded_by": f.ana.ID}, http.StatusUnprocessableEntity, "MISMATCHED_CLASS"},
		{"unknown recorder", gin.H{"student_id": f.ben.ID, "class_id": f.class.ID, "status": "Present", "date": "2024-03-15", "recorded_by": "nope"}, http.StatusNotFound, "recorder nope not found"},
		{"not a recorder", gin.H{"student_id": f.ana.ID, "class_id": f.class.ID, "status": "Present", "date": "2024-03-15", "recorded_by": f.ben.ID}, http.StatusForbidden, "UNAUTHORIZED_RECORDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/v1/attendance", tt.body, "")
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestReportsRequireTeacher(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/daily?date=2024-03-15", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/v1/classes", gin.H{"name": "8A"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDailyAndWeeklyReports(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)
	f.record(t, f.ben, attendance.StatusPresent, "2024-01-01")
	f.record(t, f.ben, attendance.StatusAbsent, "2024-01-02")
	f.record(t, f.ben, attendance.StatusPresent, "2024-01-07")
	f.record(t, f.ben, attendance.StatusPresent, "2024-01-08")

	w := f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/daily?date=2024-01-02", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	daily := decode[[]attendance.Record](t, w)
	require.Len(t, daily, 1)
	assert.Equal(t, attendance.StatusAbsent, daily[0].Status)

	w = f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/weekly?week_start=2024-01-01", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]attendance.Record](t, w), 3)

	w = f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/daily?date=2024-05-05", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/daily", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_RANGE")
}

func TestMonthlyReport(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)
	f.record(t, f.ben, attendance.StatusPresent, "2024-03-01")
	f.record(t, f.ben, attendance.StatusPresent, "2024-03-31")
	f.record(t, f.ben, attendance.StatusSick, "2024-03-12")
	f.record(t, f.ben, attendance.StatusPresent, "2024-02-29")

	w := f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/monthly?month=3&year=2024", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := decode[[]attendance.Summary](t, w)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ana", rows[0].StudentName)
	assert.Zero(t, rows[0].TotalDays)
	assert.Zero(t, rows[0].AttendancePercentage)

	assert.Equal(t, "Ben", rows[1].StudentName)
	assert.Equal(t, 3, rows[1].TotalDays)
	assert.Equal(t, 2, rows[1].Present)
	assert.Equal(t, 1, rows[1].Sick)
	assert.Equal(t, 67, rows[1].AttendancePercentage)

	for _, q := range []string{"month=13&year=2024", "month=0&year=2024", "month=x&year=2024", "month=3"} {
		w = f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/monthly?"+q, nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestRosterLifecycle(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)

	w := f.do(t, http.MethodPost, "/v1/classes", gin.H{"name": "8A", "grade": "8", "academic_year": "2023/2024"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	class := decode[attendance.Class](t, w)

	w = f.do(t, http.MethodPatch, "/v1/classes/"+class.ID, gin.H{"grade": "8+"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[attendance.Class](t, w)
	assert.Equal(t, "8A", updated.Name)
	assert.Equal(t, "8+", updated.Grade)

	w = f.do(t, http.MethodPatch, "/v1/classes/"+class.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "8+", decode[attendance.Class](t, w).Grade)

	w = f.do(t, http.MethodPost, "/v1/students", gin.H{"name": "Dan", "student_id": "S-9", "class_id": class.ID, "is_attendance_recorder": true}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	dan := decode[attendance.Student](t, w)
	assert.Equal(t, "S-9", dan.StudentNumber)

	w = f.do(t, http.MethodPost, "/v1/students", gin.H{"name": "Eve", "student_id": "S-9", "class_id": class.ID}, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/v1/students", gin.H{"name": "Eve", "student_id": "S-10", "class_id": "nope"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/v1/classes/"+class.ID+"/recorders", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]attendance.Student](t, w), 1)

	w = f.do(t, http.MethodPatch, "/v1/students/"+dan.ID, gin.H{"is_attendance_recorder": false}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[attendance.Student](t, w).IsAttendanceRecorder)

	w = f.do(t, http.MethodDelete, "/v1/classes/"+class.ID, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/v1/classes/"+class.ID+"/students", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = f.do(t, http.MethodDelete, "/v1/classes/"+class.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, "/v1/students/"+dan.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteStudentRemovesRecorderRecords(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)
	f.record(t, f.ben, attendance.StatusPresent, "2024-03-01")

	w := f.do(t, http.MethodDelete, "/v1/students/"+f.ana.ID, nil, token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/daily?date=2024-03-01", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestTeacherSignupLoginRefresh(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/v1/teachers", gin.H{"name": "Tia", "email": "Tia@Example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = f.do(t, http.MethodPost, "/v1/teachers", gin.H{"name": "Tia", "email": "tia@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/v1/teachers", gin.H{"name": "Tim", "email": "tim@example.com", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "tia@example.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")

	w = f.do(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "tia@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[loginResponse](t, w)
	assert.Equal(t, "tia@example.com", login.Teacher.Email)
	require.NotEmpty(t, login.AccessToken)

	w = f.do(t, http.MethodGet, "/v1/classes/"+f.class.ID+"/attendance/daily?date=2024-03-01", nil, login.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/v1/auth/refresh", gin.H{"refresh_token": login.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/v1/auth/refresh", gin.H{"refresh_token": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[auth.TokenPair](t, w).AccessToken)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","store":true}`, w.Body.String())

	down := gin.New()
	New(Deps{
		Signer: f.signer,
		Health: map[string]HealthCheck{"redis": func(context.Context) error { return errors.New("down") }},
	}).Register(down)
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
