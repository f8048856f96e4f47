package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
)

type createClassRequest struct {
	Name         string `json:"name" binding:"required"`
	Grade        string `json:"grade"`
	AcademicYear string `json:"academic_year"`
}

type updateClassRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1"`
	Grade        *string `json:"grade"`
	AcademicYear *string `json:"academic_year"`
}

type createStudentRequest struct {
	Name                 string `json:"name" binding:"required"`
	StudentID            string `json:"student_id" binding:"required"`
	ClassID              string `json:"class_id" binding:"required"`
	IsAttendanceRecorder bool   `json:"is_attendance_recorder"`
}

type updateStudentRequest struct {
	Name                 *string `json:"name" binding:"omitempty,min=1"`
	StudentID            *string `json:"student_id" binding:"omitempty,min=1"`
	ClassID              *string `json:"class_id" binding:"omitempty,min=1"`
	IsAttendanceRecorder *bool   `json:"is_attendance_recorder"`
}

func (h *Handler) listClasses(c *gin.Context) {
	classes, err := h.Roster.ListClasses(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

func (h *Handler) createClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	class, err := h.Roster.CreateClass(c.Request.Context(), attendance.NewClass{
		Name:         req.Name,
		Grade:        req.Grade,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

func (h *Handler) updateClass(c *gin.Context) {
	var req updateClassRequest
	if err := bindPatch(c, &req); err != nil {
		h.respondBindError(c, err)
		return
	}
	class, err := h.Roster.UpdateClass(c.Request.Context(), c.Param("id"), attendance.ClassPatch{
		Name:         req.Name,
		Grade:        req.Grade,
		AcademicYear: req.AcademicYear,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

func (h *Handler) deleteClass(c *gin.Context) {
	if err := h.Roster.DeleteClass(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.Roster.ListStudents(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) listRecorders(c *gin.Context) {
	students, err := h.Roster.ListRecorders(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) createStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	student, err := h.Roster.CreateStudent(c.Request.Context(), attendance.NewStudent{
		Name:                 req.Name,
		StudentNumber:        req.StudentID,
		ClassID:              req.ClassID,
		IsAttendanceRecorder: req.IsAttendanceRecorder,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *Handler) updateStudent(c *gin.Context) {
	var req updateStudentRequest
	if err := bindPatch(c, &req); err != nil {
		h.respondBindError(c, err)
		return
	}
	student, err := h.Roster.UpdateStudent(c.Request.Context(), c.Param("id"), attendance.StudentPatch{
		Name:                 req.Name,
		StudentNumber:        req.StudentID,
		ClassID:              req.ClassID,
		IsAttendanceRecorder: req.IsAttendanceRecorder,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *Handler) deleteStudent(c *gin.Context) {
	if err := h.Roster.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindPatch binds a partial update; an empty body is an empty patch.
func bindPatch(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
