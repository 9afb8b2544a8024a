package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	"github.com/FleerJam/appGestionAcademica/internal/service"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/response"
)

// CourseHandler exposes course and evaluation-schema endpoints.
type CourseHandler struct {
	courses  *service.CourseService
	statuses *service.StatusService
}

// NewCourseHandler constructs handler.
func NewCourseHandler(courses *service.CourseService, statuses *service.StatusService) *CourseHandler {
	return &CourseHandler{courses: courses, statuses: statuses}
}

// List returns courses matching query filters.
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Search:     c.Query("search"),
		Type:       c.Query("type"),
		Modality:   c.Query("modality"),
		ActiveOnly: c.Query("active") == "true",
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "pageSize", 20),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}
	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get returns one course with its evaluation schema.
func (h *CourseHandler) Get(c *gin.Context) {
	course, evaluations, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course": course, "evaluations": evaluations}, nil)
}

// Create registers a new course.
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update rewrites a course and recomputes statuses if its rules moved.
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ReplaceEvaluations swaps a course's evaluation schema.
func (h *CourseHandler) ReplaceEvaluations(c *gin.Context) {
	var reqs []service.EvaluationRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	evaluations, err := h.courses.ReplaceEvaluations(c.Request.Context(), c.Param("id"), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluations, nil)
}

// Recompute re-derives the status of every enrollment in the course.
func (h *CourseHandler) Recompute(c *gin.Context) {
	changed, err := h.statuses.RecomputeCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"changed": changed}, nil)
}
