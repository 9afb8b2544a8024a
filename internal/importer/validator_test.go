package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FleerJam/appGestionAcademica/internal/grading"
	"github.com/FleerJam/appGestionAcademica/internal/models"
)

func testTable(rows [][]string) Table {
	return Table{
		Headers: []string{"CEDULA", "NOMBRE", "APELLIDO", "CORREO", "CENTRO", "TALLER", "EXAMEN"},
		Rows:    rows,
	}
}

func newTestValidator(t *testing.T, table Table, course grading.CourseRules, aliases map[string]string) *RowValidator {
	t.Helper()
	cm, err := MapColumns(table.Headers, nil)
	require.NoError(t, err)

	activities := map[int]string{5: "eval-taller", 6: "eval-examen"}
	weights := map[string]float64{"eval-taller": 40, "eval-examen": 60}
	v := NewRowValidator(table, cm, course, aliases, activities, weights)
	v.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return v
}

func openCourse() grading.CourseRules {
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return grading.CourseRules{PassThreshold: 7.0, EndDate: &end}
}

func TestRowValidatorBuckets(t *testing.T) {
	table := testTable([][]string{
		{"171.003.406-5", "María", "Pérez", "maria@example.com", "Centro Zonal ECU 911 Quito", "8", "6"},
		{"999", "Juan", "Lopez", "juan@example.com", "Centro Zonal ECU 911 Quito", "7", "7"},
	})

	valid, review := newTestValidator(t, table, openCourse(), nil).Process()
	require.Len(t, valid, 1)
	require.Len(t, review, 1)

	ok := valid[0]
	assert.Equal(t, 2, ok.RowNumber)
	assert.Equal(t, "1710034065", ok.Identifier)
	assert.Equal(t, "PEREZ MARIA", ok.FullName)
	assert.Equal(t, "maria@example.com", ok.Email)
	assert.True(t, ok.ChecksumValid)
	// (8/10*40 + 6/10*60)/10 = 6.8
	assert.Equal(t, 6.8, ok.FinalGrade)
	assert.Equal(t, models.StatusInProgress, ok.SuggestedStatus)

	bad := review[0]
	assert.Equal(t, 3, bad.RowNumber)
	assert.Equal(t, "999", bad.Identifier)
	assert.False(t, bad.ChecksumValid)
}

func TestRowValidatorKnownAlias(t *testing.T) {
	table := testTable([][]string{
		{"17-1003406", "Ana", "Mora", "", "Planta Central", "9", "9"},
	})
	aliases := map[string]string{"171003406": "1710034065"}

	valid, review := newTestValidator(t, table, openCourse(), aliases).Process()
	require.Len(t, valid, 1)
	assert.Empty(t, review)

	row := valid[0]
	assert.True(t, row.KnownAlias)
	assert.Equal(t, "1710034065", row.Identifier)
	assert.Equal(t, "171003406", row.OriginalIdentifier)
	// Center corrections table rewrites legacy names.
	assert.Equal(t, "CENTRO ZONAL ECU 911 QUITO", row.CenterName)
}

func TestRowValidatorSkipsBlankIdentifiers(t *testing.T) {
	table := testTable([][]string{
		{"", "Pedro", "Paz", "", "Quito", "5", "5"},
		{"nan", "Lucía", "Paz", "", "Quito", "5", "5"},
	})

	valid, review := newTestValidator(t, table, openCourse(), nil).Process()
	assert.Empty(t, valid)
	assert.Empty(t, review)
}

func TestRowValidatorAllBlankIsWithdrawal(t *testing.T) {
	table := testTable([][]string{
		{"1710034065", "Eva", "Ruiz", "", "Quito", "-", ""},
	})

	valid, _ := newTestValidator(t, table, openCourse(), nil).Process()
	require.Len(t, valid, 1)

	row := valid[0]
	assert.True(t, row.NonAttendance)
	assert.Equal(t, 0.0, row.FinalGrade)
	assert.Equal(t, models.StatusNoShow, row.SuggestedStatus)
	require.Len(t, row.Details, 2)
	assert.Equal(t, 0.0, row.Details[0].Score)
}

func TestRowValidatorFallbackName(t *testing.T) {
	table := testTable([][]string{
		{"1710034065", "", "", "", "Quito", "3", "3"},
	})

	valid, _ := newTestValidator(t, table, openCourse(), nil).Process()
	require.Len(t, valid, 1)
	assert.Equal(t, FallbackName, valid[0].FullName)
}

func TestRowValidatorCommaScores(t *testing.T) {
	table := testTable([][]string{
		{"1710034065", "Iván", "Soto", "", "Quito", "7,5", "8,25"},
	})

	valid, _ := newTestValidator(t, table, openCourse(), nil).Process()
	require.Len(t, valid, 1)
	// (7.5/10*40 + 8.25/10*60)/10 = (30+49.5)/10 = 7.95
	assert.Equal(t, 7.95, valid[0].FinalGrade)
	assert.Equal(t, models.StatusPassed, valid[0].SuggestedStatus)
}
