package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
)

type recordAttendanceRequest struct {
	StudentID  string  `json:"student_id" binding:"required"`
	ClassID    string  `json:"class_id" binding:"required"`
	Status     string  `json:"status" binding:"required,attendance_status"`
	Date       string  `json:"date" binding:"required,datetime=2006-01-02"`
	RecordedBy string  `json:"recorded_by" binding:"required"`
	Notes      *string `json:"notes"`
}

func (h *Handler) recordAttendance(c *gin.Context) {
	var req recordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	date, err := attendance.ParseDate(req.Date)
	if err != nil {
		h.respondBindError(c, err)
		return
	}

	rec, err := h.Recorder.Record(c.Request.Context(), attendance.RecordRequest{
		StudentID:  req.StudentID,
		ClassID:    req.ClassID,
		Status:     attendance.Status(req.Status),
		Date:       date,
		RecordedBy: req.RecordedBy,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) dailyAttendance(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		h.respondError(c, err)
		return
	}
	recs, err := h.Reports.Daily(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) weeklyAttendance(c *gin.Context) {
	start, err := queryDate(c, "week_start")
	if err != nil {
		h.respondError(c, err)
		return
	}
	recs, err := h.Reports.Weekly(c.Request.Context(), c.Param("id"), start)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) monthlyAttendance(c *gin.Context) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		h.respondError(c, rangeError("month must be a number from 1 to 12"))
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		h.respondError(c, rangeError("year must be a number"))
		return
	}
	rows, err := h.Reports.Monthly(c.Request.Context(), c.Param("id"), time.Month(month), year)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func queryDate(c *gin.Context, name string) (attendance.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return attendance.Date{}, rangeError(name + " is required")
	}
	d, err := attendance.ParseDate(raw)
	if err != nil {
		return attendance.Date{}, rangeError(name + " must be YYYY-MM-DD")
	}
	return d, nil
}

func rangeError(msg string) error {
	return fmt.Errorf("%w: %s", attendance.ErrInvalidRange, msg)
}
