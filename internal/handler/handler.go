package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
	"classattend/internal/auth"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Recorder *attendance.Recorder
	Reports  *attendance.Reports
	Roster   *attendance.Roster
	Teachers *attendance.Teachers
	Signer   *auth.Signer
	Health   map[string]HealthCheck
	Log      *slog.Logger
}

// Handler serves the attendance HTTP API.
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Handler{Deps: d}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	RegisterValidators()

	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	v1.POST("/attendance", h.recordAttendance)
	v1.GET("/classes", h.listClasses)
	v1.GET("/classes/:id/students", h.listStudents)
	v1.GET("/classes/:id/recorders", h.listRecorders)
	v1.POST("/teachers", h.createTeacher)
	v1.POST("/auth/login", h.login)
	v1.POST("/auth/refresh", h.refresh)

	teacher := v1.Group("", auth.TeacherAuth(h.Signer))
	teacher.POST("/classes", h.createClass)
	teacher.PATCH("/classes/:id", h.updateClass)
	teacher.DELETE("/classes/:id", h.deleteClass)
	teacher.POST("/students", h.createStudent)
	teacher.PATCH("/students/:id", h.updateStudent)
	teacher.DELETE("/students/:id", h.deleteStudent)
	teacher.GET("/classes/:id/attendance/daily", h.dailyAttendance)
	teacher.GET("/classes/:id/attendance/weekly", h.weeklyAttendance)
	teacher.GET("/classes/:id/attendance/monthly", h.monthlyAttendance)
}

func (h *Handler) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{}
	for name, check := range h.Health {
		ok := check(ctx) == nil
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
		}
	}
	if status == http.StatusOK {
		body["status"] = "ok"
	} else {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
