package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	"github.com/FleerJam/appGestionAcademica/internal/service"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/response"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login issues an access token for valid credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
