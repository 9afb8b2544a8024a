package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FleerJam/appGestionAcademica/internal/service"
)

func TestImportHandlerInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(nil, nil, service.NewMetricsService())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Run(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerCSVRequiresCourseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(nil, nil, service.NewMetricsService())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports/csv", bytes.NewReader([]byte("cedula\n1710034065\n")))
	req.Header.Set("Content-Type", "text/csv")
	c.Request = req

	handler.RunCSV(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerInvalidScoreBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments/enr-1/scores", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.RecordScore(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
