package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
	"classattend/internal/auth"
)

type createTeacherRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type loginResponse struct {
	Teacher attendance.Teacher `json:"teacher"`
	auth.TokenPair
}

func (h *Handler) createTeacher(c *gin.Context) {
	var req createTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	teacher, err := h.Teachers.Create(c.Request.Context(), attendance.NewTeacher{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, teacher)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	teacher, err := h.Teachers.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	tokens, err := h.Signer.Issue(teacher.ID, auth.RoleTeacher, teacher.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Log.Info("teacher logged in", "teacher_id", teacher.ID)
	c.JSON(http.StatusOK, loginResponse{Teacher: teacher, TokenPair: tokens})
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}
	claims, err := h.Signer.Parse(req.RefreshToken, auth.TypeRefresh)
	if err != nil || claims.Role != auth.RoleTeacher {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid refresh token", Code: "UNAUTHENTICATED"})
		return
	}
	tokens, err := h.Signer.Issue(claims.Subject, claims.Role, claims.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}
