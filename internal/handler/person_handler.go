package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	"github.com/FleerJam/appGestionAcademica/internal/service"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/response"
)

// PersonHandler exposes people endpoints.
type PersonHandler struct {
	people *service.PersonService
}

// NewPersonHandler constructs handler.
func NewPersonHandler(people *service.PersonService) *PersonHandler {
	return &PersonHandler{people: people}
}

// List returns people matching query filters.
func (h *PersonHandler) List(c *gin.Context) {
	filter := models.PersonFilter{
		NationalID: c.Query("nationalId"),
		CenterID:   c.Query("centerId"),
		Role:       models.PersonRole(c.Query("role")),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "pageSize", 20),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}
	people, pagination, err := h.people.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, people, pagination)
}

// Get returns one person.
func (h *PersonHandler) Get(c *gin.Context) {
	person, err := h.people.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// Create registers a new person.
func (h *PersonHandler) Create(c *gin.Context) {
	var req service.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	person, err := h.people.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, person)
}

// Update rewrites a person's profile.
func (h *PersonHandler) Update(c *gin.Context) {
	var req service.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	person, err := h.people.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
