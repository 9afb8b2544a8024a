package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FleerJam/appGestionAcademica/internal/importer"
	"github.com/FleerJam/appGestionAcademica/internal/service"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/response"
)

// ImportHandler exposes the spreadsheet import endpoints. The client parses
// the workbook and posts its grid; file-format handling stays out of the API
// except for plain CSV bodies.
type ImportHandler struct {
	imports *service.ImportService
	exports *service.ExportService
	metrics *service.MetricsService
}

// NewImportHandler constructs handler.
func NewImportHandler(imports *service.ImportService, exports *service.ExportService, metrics *service.MetricsService) *ImportHandler {
	return &ImportHandler{imports: imports, exports: exports, metrics: metrics}
}

// Run processes one import batch against a course.
func (h *ImportHandler) Run(c *gin.Context) {
	var req service.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.run(c, req)
}

// RunCSV processes a raw CSV body whose first record is the header row. The
// course and review flags come from the query string.
func (h *ImportHandler) RunCSV(c *gin.Context) {
	courseID := c.Query("course_id")
	if courseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id query parameter is required"))
		return
	}

	reader := csv.NewReader(c.Request.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "malformed csv body"))
		return
	}
	if len(records) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "csv body is empty"))
		return
	}

	req := service.ImportRequest{
		CourseID:           courseID,
		Table:              importer.Table{Headers: records[0], Rows: records[1:]},
		OverwriteConflicts: queryBool(c, "overwrite_conflicts"),
		ConfirmMerges:      queryBool(c, "confirm_merges"),
	}
	h.run(c, req)
}

func (h *ImportHandler) run(c *gin.Context, req service.ImportRequest) {
	result, err := h.imports.Import(c.Request.Context(), req, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveImport(result.AcceptedValid, result.AcceptedCorrected, result.OmittedRows)

	if strings.EqualFold(c.Query("log"), "csv") {
		data, err := h.exports.ImportLogCSV(result)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=log_importacion.csv")
		c.Data(http.StatusOK, "text/csv", data)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func queryBool(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(c.DefaultQuery(name, "false"))
	if err != nil {
		return false
	}
	return value
}
