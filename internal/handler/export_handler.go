package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FleerJam/appGestionAcademica/internal/service"
	"github.com/FleerJam/appGestionAcademica/pkg/response"
)

// ExportHandler exposes file export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// CourseReportPDF streams the course roster as a PDF.
func (h *ExportHandler) CourseReportPDF(c *gin.Context) {
	courseID := c.Param("id")
	data, err := h.exports.CourseReportPDF(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=reporte_%s.pdf", courseID))
	c.Data(http.StatusOK, "application/pdf", data)
}

// CourseRosterCSV streams the course roster as CSV.
func (h *ExportHandler) CourseRosterCSV(c *gin.Context) {
	courseID := c.Param("id")
	data, err := h.exports.CourseRosterCSV(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=nomina_%s.csv", courseID))
	c.Data(http.StatusOK, "text/csv", data)
}
