package importer

import (
	"sort"
	"strings"
	"time"

	"github.com/FleerJam/appGestionAcademica/internal/grading"
	"github.com/FleerJam/appGestionAcademica/internal/models"
	"github.com/FleerJam/appGestionAcademica/pkg/sanitize"
)

// FallbackName is persisted when a row carries neither name nor surname.
const FallbackName = "SIN NOMBRE"

// blankCell reports whether a raw activity cell counts as "no participation".
func blankCell(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "", "-", "nan":
		return true
	}
	return false
}

// RowValidator walks the sheet rows, cleans them, computes provisional grade
// and status, and splits them into directly-acceptable rows and rows needing
// human review.
type RowValidator struct {
	table      Table
	columns    *ColumnMap
	course     grading.CourseRules
	aliases    map[string]string  // identifier variant -> canonical identifier
	activities map[int]string     // column index -> evaluation ID
	weights    map[string]float64 // evaluation ID -> weight percent
	now        time.Time
}

// NewRowValidator wires a validator for one sheet against one course.
func NewRowValidator(table Table, columns *ColumnMap, course grading.CourseRules, aliases map[string]string, activities map[int]string, weights map[string]float64) *RowValidator {
	return &RowValidator{
		table:      table,
		columns:    columns,
		course:     course,
		aliases:    aliases,
		activities: activities,
		weights:    weights,
		now:        time.Now(),
	}
}

// Process classifies every row. Rows with a blank or literal "nan" identifier
// are skipped outright; a row lands in the valid bucket when its identifier
// is a known alias or passes the checksum, otherwise in the review bucket.
func (v *RowValidator) Process() (valid, review []models.ImportedRow) {
	idCol := v.columns.Column(FieldIdentifier)

	for i, row := range v.table.Rows {
		rowNumber := i + 2 // sheet rows are 1-based and row 1 is the header

		original := sanitize.CleanIdentifier(v.cell(row, idCol))
		if original == "" || strings.EqualFold(original, "nan") {
			continue
		}

		identifier := original
		knownAlias := false
		if canonical, ok := v.aliases[original]; ok {
			identifier = canonical
			knownAlias = true
		}
		checksumValid := sanitize.ValidateNationalID(identifier)

		name := sanitize.CleanText(v.fieldCell(row, FieldName))
		surname := sanitize.CleanText(v.fieldCell(row, FieldSurname))
		fullName := strings.TrimSpace(surname + " " + name)
		if fullName == "" {
			fullName = FallbackName
		}

		center := sanitize.CleanText(v.fieldCell(row, FieldCenter))
		if corrected, ok := CenterCorrections[center]; ok {
			center = corrected
		}

		grade, status, details, allBlank := v.processScores(row)

		record := models.ImportedRow{
			RowNumber:          rowNumber,
			Identifier:         identifier,
			OriginalIdentifier: original,
			FullName:           fullName,
			CenterName:         center,
			Email:              strings.TrimSpace(v.fieldCell(row, FieldEmail)),
			Institution:        sanitize.CleanText(v.fieldCell(row, FieldInstitution)),
			FinalGrade:         grade,
			SuggestedStatus:    status,
			Details:            details,
			KnownAlias:         knownAlias,
			ChecksumValid:      checksumValid,
			NonAttendance:      allBlank,
		}

		if knownAlias || checksumValid {
			valid = append(valid, record)
		} else {
			review = append(review, record)
		}
	}
	return valid, review
}

// processScores extracts every mapped activity cell, pairs it with the
// evaluation's weight and delegates the math and the status decision to the
// grading package. A row where every activity cell is blank is flagged as
// non-attendance, which acts as the withdrawal signal during import.
func (v *RowValidator) processScores(row []string) (float64, models.EnrollmentStatus, []models.ScoreDetail, bool) {
	entries := make([]grading.WeightedEntry, 0, len(v.activities))
	details := make([]models.ScoreDetail, 0, len(v.activities))
	allBlank := true

	for _, col := range v.sortedActivityColumns() {
		evaluationID := v.activities[col]
		raw := v.cell(row, col)

		if !blankCell(raw) {
			allBlank = false
		}

		score := sanitize.CleanScore(raw)
		entries = append(entries, grading.WeightedEntry{
			Score:         score,
			WeightPercent: v.weights[evaluationID],
		})
		details = append(details, models.ScoreDetail{EvaluationID: evaluationID, Score: score})
	}

	grade := grading.WeightedAverage(entries)
	status := grading.ResolveAt(grade, v.course, allBlank, v.now)
	return grade, status, details, allBlank
}

func (v *RowValidator) sortedActivityColumns() []int {
	cols := make([]int, 0, len(v.activities))
	for col := range v.activities {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	return cols
}

func (v *RowValidator) fieldCell(row []string, field string) string {
	return v.cell(row, v.columns.Column(field))
}

func (v *RowValidator) cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
