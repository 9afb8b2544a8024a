package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FleerJam/appGestionAcademica/internal/service"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/response"
)

// CenterHandler exposes center endpoints.
type CenterHandler struct {
	centers *service.CenterService
}

// NewCenterHandler constructs handler.
func NewCenterHandler(centers *service.CenterService) *CenterHandler {
	return &CenterHandler{centers: centers}
}

// List returns every center.
func (h *CenterHandler) List(c *gin.Context) {
	centers, err := h.centers.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centers, nil)
}

// Create registers a new center.
func (h *CenterHandler) Create(c *gin.Context) {
	var req service.CenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	center, err := h.centers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, center)
}
