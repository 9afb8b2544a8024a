package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	"github.com/FleerJam/appGestionAcademica/internal/service"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List returns enriched enrollments matching query filters.
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		PersonID:  c.Query("personId"),
		CourseID:  c.Query("courseId"),
		CenterID:  c.Query("centerId"),
		Status:    models.EnrollmentStatus(c.Query("status")),
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 20),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	details, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, pagination)
}

// Matriculate enrolls a person in a course by hand.
func (h *EnrollmentHandler) Matriculate(c *gin.Context) {
	var req service.MatriculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Matriculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// RecordScore stores one evaluation score and recomputes the final grade.
func (h *EnrollmentHandler) RecordScore(c *gin.Context) {
	var req service.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.RecordScore(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
