package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FleerJam/appGestionAcademica/internal/importer"
	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
)

type mockCourseReader struct {
	course *models.Course
	err    error
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.course, nil
}

type mockEvaluationReader struct {
	evaluations []models.Evaluation
}

func (m *mockEvaluationReader) ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error) {
	return m.evaluations, nil
}

type mockPersonStore struct {
	people  []models.Person
	created []*models.Person
	moved   map[string]string
}

func (m *mockPersonStore) All(ctx context.Context) ([]models.Person, error) {
	return m.people, nil
}

func (m *mockPersonStore) Create(ctx context.Context, person *models.Person) error {
	person.ID = fmt.Sprintf("per-new-%d", len(m.created)+1)
	m.created = append(m.created, person)
	m.people = append(m.people, *person)
	return nil
}

func (m *mockPersonStore) UpdateCenter(ctx context.Context, personID, centerID string) error {
	if m.moved == nil {
		m.moved = make(map[string]string)
	}
	m.moved[personID] = centerID
	return nil
}

type mockCenterReader struct {
	centers []models.Center
}

func (m *mockCenterReader) All(ctx context.Context) ([]models.Center, error) {
	return m.centers, nil
}

type mockEnrollmentStore struct {
	existing  map[string]*models.Enrollment // personID -> enrollment
	created   []*models.Enrollment
	updated   []*models.Enrollment
	listCalls int
}

func (m *mockEnrollmentStore) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	m.listCalls++
	out := make([]models.Enrollment, 0, len(m.existing))
	for _, e := range m.existing {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEnrollmentStore) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = fmt.Sprintf("enr-new-%d", len(m.created)+1)
	m.created = append(m.created, enrollment)
	return nil
}

func (m *mockEnrollmentStore) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.updated = append(m.updated, enrollment)
	return nil
}

type mockGradeDetailStore struct {
	upserts []models.GradeDetail
	zeroed  []string
}

func (m *mockGradeDetailStore) Upsert(ctx context.Context, detail *models.GradeDetail) error {
	m.upserts = append(m.upserts, *detail)
	return nil
}

func (m *mockGradeDetailStore) ZeroByEnrollment(ctx context.Context, enrollmentID string) error {
	m.zeroed = append(m.zeroed, enrollmentID)
	return nil
}

type mockAliasStore struct {
	dict    map[string]string
	created []*models.IdentifierAlias
}

func (m *mockAliasStore) All(ctx context.Context) (map[string]string, error) {
	if m.dict == nil {
		return map[string]string{}, nil
	}
	return m.dict, nil
}

func (m *mockAliasStore) Create(ctx context.Context, alias *models.IdentifierAlias) error {
	m.created = append(m.created, alias)
	return nil
}

type importFixture struct {
	courses     *mockCourseReader
	evaluations *mockEvaluationReader
	people      *mockPersonStore
	centers     *mockCenterReader
	enrollments *mockEnrollmentStore
	details     *mockGradeDetailStore
	aliases     *mockAliasStore
	service     *ImportService
}

func newImportFixture() *importFixture {
	past := time.Now().AddDate(0, -1, 0)
	f := &importFixture{
		courses: &mockCourseReader{course: &models.Course{
			ID:            "crs-1",
			Name:          "PRIMEROS AUXILIOS",
			PassThreshold: 7.0,
			EndDate:       &past,
		}},
		evaluations: &mockEvaluationReader{evaluations: []models.Evaluation{
			{ID: "ev-1", CourseID: "crs-1", Name: "TALLER 1", WeightPercent: 60, Position: 1},
			{ID: "ev-2", CourseID: "crs-1", Name: "TALLER 2", WeightPercent: 40, Position: 2},
		}},
		people: &mockPersonStore{},
		centers: &mockCenterReader{centers: []models.Center{
			{ID: "ctr-1", Name: "ECU 911 QUITO", Active: true},
		}},
		enrollments: &mockEnrollmentStore{existing: map[string]*models.Enrollment{}},
		details:     &mockGradeDetailStore{},
		aliases:     &mockAliasStore{},
	}
	f.service = NewImportService(f.courses, f.evaluations, f.people, f.centers, f.enrollments, f.details, f.aliases, nil, 0, 0, nil, nil)
	return f
}

func importHeaders() []string {
	return []string{"CEDULA", "NOMBRE", "APELLIDO", "CORREO", "CENTRO", "TALLER 1", "TALLER 2"}
}

func TestImportServiceAcceptsValidRow(t *testing.T) {
	f := newImportFixture()

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"1710034065", "María", "Pérez", "maria@mail.com", "ECU 911 Quito", "8", "9"},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalRows)
	assert.Equal(t, 1, result.AcceptedValid)
	assert.Equal(t, 0, result.AcceptedCorrected)
	assert.Equal(t, 0, result.OmittedRows)
	assert.Equal(t, 1, result.NewPeople)
	assert.Equal(t, 1, result.NewEnrollments)

	require.Len(t, f.people.created, 1)
	assert.Equal(t, "1710034065", f.people.created[0].NationalID)
	assert.Equal(t, "PEREZ MARIA", f.people.created[0].FullName)
	assert.Equal(t, models.RoleStudent, f.people.created[0].Role)

	require.Len(t, f.enrollments.created, 1)
	enr := f.enrollments.created[0]
	require.NotNil(t, enr.FinalGrade)
	assert.InDelta(t, 8.4, *enr.FinalGrade, 0.001)
	assert.Equal(t, models.StatusPassed, enr.Status)
	assert.Len(t, f.details.upserts, 2)
}

func TestImportServiceOmitsUnknownCenter(t *testing.T) {
	f := newImportFixture()

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"1710034065", "María", "Pérez", "", "CENTRO FANTASMA", "8", "9"},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.OmittedRows)
	assert.Equal(t, 0, result.AcceptedValid)
	assert.Equal(t, result.TotalRows, result.AcceptedValid+result.AcceptedCorrected+result.OmittedRows)
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], "not registered")
	assert.Empty(t, f.enrollments.created)
}

func TestImportServiceScriptedCorrectionRegistersAlias(t *testing.T) {
	f := newImportFixture()

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"999", "Juan", "Lema", "", "ECU 911 Quito", "6", "5"},
			},
		},
		Corrections: map[string]string{"999": "0901234567"},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.AcceptedValid)
	assert.Equal(t, 1, result.AcceptedCorrected)
	assert.Equal(t, 0, result.OmittedRows)
	assert.Equal(t, 1, result.TotalRows)

	require.Len(t, f.aliases.created, 1)
	assert.Equal(t, "999", f.aliases.created[0].Value)
	require.Len(t, f.people.created, 1)
	assert.Equal(t, "0901234567", f.people.created[0].NationalID)
	assert.Equal(t, f.people.created[0].ID, f.aliases.created[0].PersonID)
}

func TestImportServiceOmitsUncorrectedReviewRows(t *testing.T) {
	f := newImportFixture()

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"12345", "Ana", "Torres", "", "ECU 911 Quito", "9", "9"},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.OmittedRows)
	assert.Equal(t, 1, result.TotalRows)
	assert.Empty(t, f.enrollments.created)
	require.Len(t, result.Notes, 1)
	assert.Contains(t, result.Notes[0], "omitted after review")
}

func TestImportServiceDuplicateLaterRowWins(t *testing.T) {
	f := newImportFixture()

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"1710034065", "María", "Pérez", "", "ECU 911 Quito", "5", "5"},
				{"1710034065", "María", "Pérez", "", "ECU 911 Quito", "9", "9"},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.AcceptedValid)
	assert.Equal(t, 1, result.OmittedRows)

	require.Len(t, f.enrollments.created, 1)
	require.NotNil(t, f.enrollments.created[0].FinalGrade)
	assert.InDelta(t, 9.0, *f.enrollments.created[0].FinalGrade, 0.001)

	duplicateNoted := false
	for _, note := range result.Notes {
		if strings.Contains(note, "duplicate") {
			duplicateNoted = true
		}
	}
	assert.True(t, duplicateNoted)
}

func TestImportServiceBlankScoresMeanNoShow(t *testing.T) {
	f := newImportFixture()
	f.people.people = []models.Person{
		{ID: "per-1", NationalID: "1710034065", FullName: "PEREZ MARIA", CenterID: "ctr-1"},
	}

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"1710034065", "María", "Pérez", "", "ECU 911 Quito", "-", ""},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AcceptedValid)
	require.Len(t, f.enrollments.created, 1)
	enr := f.enrollments.created[0]
	assert.Equal(t, models.StatusNoShow, enr.Status)
	require.NotNil(t, enr.FinalGrade)
	assert.Zero(t, *enr.FinalGrade)
	assert.Contains(t, f.details.zeroed, enr.ID)
	for _, d := range f.details.upserts {
		assert.Zero(t, d.Score)
	}
}

func TestImportServiceUpdatesExistingEnrollmentAndCenter(t *testing.T) {
	f := newImportFixture()
	f.centers.centers = append(f.centers.centers, models.Center{ID: "ctr-2", Name: "ECU 911 GUAYAQUIL"})
	f.people.people = []models.Person{
		{ID: "per-1", NationalID: "1710034065", FullName: "PEREZ MARIA", CenterID: "ctr-1"},
	}
	old := 3.0
	f.enrollments.existing["per-1"] = &models.Enrollment{
		ID: "enr-1", PersonID: "per-1", CourseID: "crs-1", CenterID: "ctr-1",
		FinalGrade: &old, Status: models.StatusFailed,
	}

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"1710034065", "María", "Pérez", "", "ECU 911 Guayaquil", "8", "8"},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewPeople)
	assert.Equal(t, 0, result.NewEnrollments)
	assert.Equal(t, 1, result.UpdatedEnrollments)
	assert.Equal(t, "ctr-2", f.people.moved["per-1"])

	require.Len(t, f.enrollments.updated, 1)
	updated := f.enrollments.updated[0]
	assert.Equal(t, models.StatusPassed, updated.Status)
	assert.Equal(t, "ctr-2", updated.CenterID)
}

func TestImportServicePrimesEnrollmentsOnce(t *testing.T) {
	f := newImportFixture()
	old := 3.0
	f.people.people = []models.Person{
		{ID: "per-1", NationalID: "1710034065", FullName: "PEREZ MARIA", CenterID: "ctr-1"},
	}
	f.enrollments.existing["per-1"] = &models.Enrollment{
		ID: "enr-1", PersonID: "per-1", CourseID: "crs-1", CenterID: "ctr-1",
		FinalGrade: &old, Status: models.StatusFailed,
	}

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"1710034065", "María", "Pérez", "", "ECU 911 Quito", "8", "8"},
				{"0901234567", "Juan", "Lema", "", "ECU 911 Quito", "9", "9"},
				{"0102030400", "Ana", "Torres", "", "ECU 911 Quito", "7", "7"},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.enrollments.listCalls) // one priming query, no per-row lookups
	assert.Equal(t, 1, result.UpdatedEnrollments)
	assert.Equal(t, 2, result.NewEnrollments)
}

func TestImportServiceMissingCourseAbortsBatch(t *testing.T) {
	f := newImportFixture()
	f.courses.err = sql.ErrNoRows

	req := ImportRequest{
		CourseID: "crs-missing",
		Table:    importer.Table{Headers: importHeaders()},
	}

	_, err := f.service.Import(context.Background(), req, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCourseNotFound.Code, appErr.Code)
}

func TestImportServiceKnownAliasSkipsReview(t *testing.T) {
	f := newImportFixture()
	f.aliases.dict = map[string]string{"999": "1710034065"}
	f.people.people = []models.Person{
		{ID: "per-1", NationalID: "1710034065", FullName: "PEREZ MARIA", CenterID: "ctr-1"},
	}

	req := ImportRequest{
		CourseID: "crs-1",
		Table: importer.Table{
			Headers: importHeaders(),
			Rows: [][]string{
				{"999", "María", "Pérez", "", "ECU 911 Quito", "8", "8"},
			},
		},
	}

	result, err := f.service.Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.AcceptedValid)
	assert.Equal(t, 0, result.AcceptedCorrected)
	assert.Empty(t, f.aliases.created) // already registered
	require.Len(t, f.enrollments.created, 1)
	assert.Equal(t, "per-1", f.enrollments.created[0].PersonID)
}
