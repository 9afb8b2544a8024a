package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/grading"
	"github.com/FleerJam/appGestionAcademica/internal/importer"
	"github.com/FleerJam/appGestionAcademica/internal/models"
	rediscache "github.com/FleerJam/appGestionAcademica/pkg/cache"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/sanitize"
)

const aliasCacheKey = "import:alias_dictionary"

type importCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type importEvaluationReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error)
}

type importPersonStore interface {
	All(ctx context.Context) ([]models.Person, error)
	Create(ctx context.Context, person *models.Person) error
	UpdateCenter(ctx context.Context, personID, centerID string) error
}

type importCenterReader interface {
	All(ctx context.Context) ([]models.Center, error)
}

type importEnrollmentStore interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
}

type importGradeDetailStore interface {
	Upsert(ctx context.Context, detail *models.GradeDetail) error
	ZeroByEnrollment(ctx context.Context, enrollmentID string) error
}

type importAliasStore interface {
	All(ctx context.Context) (map[string]string, error)
	Create(ctx context.Context, alias *models.IdentifierAlias) error
}

// ImportRequest carries one spreadsheet batch targeting one course. The
// activity map binds leftover sheet columns (by normalized header) to
// evaluation IDs; when empty, leftover columns pair with the course's
// evaluations by position.
type ImportRequest struct {
	CourseID   string            `json:"course_id" validate:"required"`
	Table      importer.Table    `json:"table" validate:"required"`
	Activities map[string]string `json:"activities"`

	// Corrections optionally scripts the review of rows whose identifier
	// failed validation, keyed by the identifier as read from the sheet.
	Corrections        map[string]string `json:"corrections"`
	OverwriteConflicts bool              `json:"overwrite_conflicts"`
	ConfirmMerges      bool              `json:"confirm_merges"`
}

// ImportService reconciles spreadsheet batches against the database. One call
// processes one sheet against one course; row-level problems become omissions
// with notes, and only a missing course aborts the batch.
type ImportService struct {
	courses     importCourseReader
	evaluations importEvaluationReader
	people      importPersonStore
	centers     importCenterReader
	enrollments importEnrollmentStore
	details     importGradeDetailStore
	aliases     importAliasStore
	cache       *redis.Client
	cacheTTL    time.Duration
	maxRows     int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewImportService constructs ImportService. The Redis client is optional;
// without it the alias dictionary loads from the database on every batch.
func NewImportService(courses importCourseReader, evaluations importEvaluationReader, people importPersonStore, centers importCenterReader, enrollments importEnrollmentStore, details importGradeDetailStore, aliases importAliasStore, cache *redis.Client, cacheTTL time.Duration, maxRows int, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		courses:     courses,
		evaluations: evaluations,
		people:      people,
		centers:     centers,
		enrollments: enrollments,
		details:     details,
		aliases:     aliases,
		cache:       cache,
		cacheTTL:    cacheTTL,
		maxRows:     maxRows,
		validator:   validate,
		logger:      logger,
	}
}

// batchContext holds the lookups primed once per batch so row commits never
// re-query what the batch already knows.
type batchContext struct {
	course              *models.Course
	rules               grading.CourseRules
	peopleByNID         map[string]*models.Person     // national id -> person
	centersByName       map[string]string             // cleaned center name -> center id
	enrollmentsByPerson map[string]*models.Enrollment // person id -> existing enrollment in the course
}

// Import runs the full reconciliation pipeline for one batch.
func (s *ImportService) Import(ctx context.Context, req ImportRequest, policy importer.ReviewPolicy) (*models.ImportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	if s.maxRows > 0 && len(req.Table.Rows) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds the %d row limit", s.maxRows))
	}
	if policy == nil {
		if len(req.Corrections) > 0 || req.OverwriteConflicts || req.ConfirmMerges {
			policy = importer.ScriptedPolicy{
				Corrections:        req.Corrections,
				OverwriteConflicts: req.OverwriteConflicts,
				ConfirmMerges:      req.ConfirmMerges,
			}
		} else {
			policy = importer.OmitAllPolicy{}
		}
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	evaluations, err := s.evaluations.ListByCourse(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation schema")
	}

	columns, err := importer.MapColumns(req.Table.Headers, nil)
	if err != nil {
		return nil, err
	}

	activities, err := s.bindActivities(columns, evaluations, req.Activities)
	if err != nil {
		return nil, err
	}
	weights := make(map[string]float64, len(evaluations))
	for _, ev := range evaluations {
		weights[ev.ID] = ev.WeightPercent
	}

	aliasDict, err := s.loadAliases(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alias dictionary")
	}

	bctx, err := s.primeBatch(ctx, course)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prime batch caches")
	}

	valid, review := importer.NewRowValidator(req.Table, columns, bctx.rules, aliasDict, activities, weights).Process()

	result := &models.ImportResult{}
	accepted := s.resolveReview(review, valid, policy, bctx, result)
	accepted = dedupLaterWins(accepted, result)

	for _, row := range accepted {
		if err := s.commitRow(ctx, bctx, row, result); err != nil {
			result.OmittedRows++
			result.Notes = append(result.Notes, fmt.Sprintf("row %d: %v", row.RowNumber, err))
			s.logger.Warn("import row failed", zap.Int("row", row.RowNumber), zap.Error(err))
			continue
		}
		// a row counts as valid or corrected only once it actually lands
		if row.KnownAlias || row.ChecksumValid {
			result.AcceptedValid++
		} else {
			result.AcceptedCorrected++
		}
	}

	result.TotalRows = result.AcceptedValid + result.AcceptedCorrected + result.OmittedRows
	s.logger.Info("import batch finished",
		zap.String("course_id", course.ID),
		zap.Int("total", result.TotalRows),
		zap.Int("valid", result.AcceptedValid),
		zap.Int("corrected", result.AcceptedCorrected),
		zap.Int("omitted", result.OmittedRows),
	)
	return result, nil
}

// bindActivities maps leftover sheet columns to evaluation IDs. An explicit
// binding by header wins; otherwise leftover columns pair with evaluations in
// position order.
func (s *ImportService) bindActivities(columns *importer.ColumnMap, evaluations []models.Evaluation, explicit map[string]string) (map[int]string, error) {
	activities := make(map[int]string)

	if len(explicit) > 0 {
		known := make(map[string]bool, len(evaluations))
		for _, ev := range evaluations {
			known[ev.ID] = true
		}
		for _, col := range columns.Remaining {
			if evaluationID, ok := explicit[columns.Headers[col]]; ok {
				if !known[evaluationID] {
					return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("column %q bound to unknown evaluation %s", columns.Headers[col], evaluationID))
				}
				activities[col] = evaluationID
			}
		}
		return activities, nil
	}

	for i, col := range columns.Remaining {
		if i >= len(evaluations) {
			break
		}
		activities[col] = evaluations[i].ID
	}
	return activities, nil
}

// loadAliases returns the alias dictionary, going through Redis when wired.
func (s *ImportService) loadAliases(ctx context.Context) (map[string]string, error) {
	if s.cache != nil {
		cached := make(map[string]string)
		hit, err := rediscache.GetJSON(ctx, s.cache, aliasCacheKey, &cached)
		if err != nil {
			s.logger.Warn("alias cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	dict, err := s.aliases.All(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := rediscache.SetJSON(ctx, s.cache, aliasCacheKey, dict, s.cacheTTL); err != nil {
			s.logger.Warn("alias cache write failed", zap.Error(err))
		}
	}
	return dict, nil
}

// primeBatch loads the lookups every review and row commit consults.
func (s *ImportService) primeBatch(ctx context.Context, course *models.Course) (*batchContext, error) {
	people, err := s.people.All(ctx)
	if err != nil {
		return nil, err
	}
	byNID := make(map[string]*models.Person, len(people))
	for i := range people {
		byNID[people[i].NationalID] = &people[i]
	}

	centers, err := s.centers.All(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(centers))
	for _, c := range centers {
		byName[sanitize.CleanText(c.Name)] = c.ID
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	byPerson := make(map[string]*models.Enrollment, len(enrollments))
	for i := range enrollments {
		byPerson[enrollments[i].PersonID] = &enrollments[i]
	}

	return &batchContext{
		course:              course,
		rules:               grading.CourseRules{PassThreshold: course.PassThreshold, EndDate: course.EndDate},
		peopleByNID:         byNID,
		centersByName:       byName,
		enrollmentsByPerson: byPerson,
	}, nil
}

// resolveReview walks the review bucket through the policy. Accepted rows get
// their corrected identifier and join the batch; everything else turns into an
// omission with a note.
func (s *ImportService) resolveReview(review, valid []models.ImportedRow, policy importer.ReviewPolicy, bctx *batchContext, result *models.ImportResult) []models.ImportedRow {
	accepted := make([]models.ImportedRow, len(valid))
	copy(accepted, valid)

	claimed := make(map[string]int, len(accepted)) // identifier -> index in accepted
	for i, row := range accepted {
		claimed[row.Identifier] = i
	}

	for _, row := range review {
		resolved, placed := s.reviewRow(row, policy, accepted, claimed, bctx, result)
		if !placed {
			continue
		}
		accepted = append(accepted, resolved)
		claimed[resolved.Identifier] = len(accepted) - 1
	}
	return accepted
}

// reviewRow negotiates one identifier with the policy. It returns the row and
// whether it should be appended to the batch; overwrite conflicts mutate the
// accepted slice in place and report placed=false.
func (s *ImportService) reviewRow(row models.ImportedRow, policy importer.ReviewPolicy, accepted []models.ImportedRow, claimed map[string]int, bctx *batchContext, result *models.ImportResult) (models.ImportedRow, bool) {
	for attempt := 0; ; attempt++ {
		proposed, ok := policy.ProposeIdentifier(row, attempt)
		if !ok {
			result.OmittedRows++
			result.Notes = append(result.Notes, fmt.Sprintf("row %d: identifier %s omitted after review", row.RowNumber, row.OriginalIdentifier))
			return row, false
		}

		candidate := sanitize.CleanIdentifier(proposed)
		if !sanitize.ValidateNationalID(candidate) {
			continue
		}

		if idx, taken := claimed[candidate]; taken {
			switch policy.ResolveConflict(candidate, accepted[idx], row) {
			case importer.ConflictKeepExisting:
				result.OmittedRows++
				result.Notes = append(result.Notes, fmt.Sprintf("row %d: identifier %s already claimed by row %d", row.RowNumber, candidate, accepted[idx].RowNumber))
				return row, false
			case importer.ConflictOverwrite:
				result.OmittedRows++
				result.Notes = append(result.Notes, fmt.Sprintf("row %d replaces row %d for identifier %s", row.RowNumber, accepted[idx].RowNumber, candidate))
				row.Identifier = candidate
				accepted[idx] = row
				return row, false
			default:
				continue
			}
		}

		if existing, known := bctx.peopleByNID[candidate]; known && existing.FullName != row.FullName {
			if !policy.ConfirmMerge(candidate, existing.FullName, row) {
				continue
			}
			// the merge keeps the registered name, not the sheet's
			row.FullName = existing.FullName
		}

		row.Identifier = candidate
		return row, true
	}
}

// dedupLaterWins collapses rows sharing an identifier: the later sheet row
// replaces the earlier one, which counts as an omission.
func dedupLaterWins(rows []models.ImportedRow, result *models.ImportResult) []models.ImportedRow {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RowNumber < rows[j].RowNumber })

	last := make(map[string]int, len(rows))
	for i, row := range rows {
		last[row.Identifier] = i
	}

	out := make([]models.ImportedRow, 0, len(rows))
	for i, row := range rows {
		if last[row.Identifier] != i {
			result.OmittedRows++
			result.Notes = append(result.Notes, fmt.Sprintf("row %d: duplicate of identifier %s inside the batch, later row kept", row.RowNumber, row.Identifier))
			continue
		}
		out = append(out, row)
	}
	return out
}

// commitRow persists one accepted row: person, alias, enrollment and grade
// details. Errors abort only this row.
func (s *ImportService) commitRow(ctx context.Context, bctx *batchContext, row models.ImportedRow, result *models.ImportResult) error {
	centerID, ok := bctx.centersByName[row.CenterName]
	if !ok {
		return fmt.Errorf("center %q is not registered", row.CenterName)
	}

	person, known := bctx.peopleByNID[row.Identifier]
	if !known {
		created := &models.Person{
			NationalID:  row.Identifier,
			FullName:    row.FullName,
			Role:        models.RoleStudent,
			CenterID:    centerID,
			Institution: row.Institution,
		}
		if row.Email != "" {
			email := row.Email
			created.Email = &email
		}
		if err := s.people.Create(ctx, created); err != nil {
			return fmt.Errorf("create person: %w", err)
		}
		bctx.peopleByNID[row.Identifier] = created
		person = created
		result.NewPeople++
	} else if person.CenterID != centerID {
		// last import wins for center membership
		if err := s.people.UpdateCenter(ctx, person.ID, centerID); err != nil {
			return fmt.Errorf("reassign center: %w", err)
		}
		person.CenterID = centerID
	}

	if row.OriginalIdentifier != row.Identifier && !row.KnownAlias {
		s.registerAlias(ctx, person.ID, row.OriginalIdentifier)
	}

	withdrawal := row.NonAttendance || row.SuggestedStatus == models.StatusNoShow
	status := grading.Resolve(row.FinalGrade, bctx.rules, withdrawal)
	grade := row.FinalGrade
	if status == models.StatusNoShow {
		grade = 0.0
	}

	enrollment, enrolled := bctx.enrollmentsByPerson[person.ID]
	if enrolled {
		enrollment.FinalGrade = &grade
		enrollment.Status = status
		enrollment.CenterID = centerID
		if err := s.enrollments.Update(ctx, enrollment); err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}
		result.UpdatedEnrollments++
	} else {
		enrollment = &models.Enrollment{
			PersonID:   person.ID,
			CourseID:   bctx.course.ID,
			CenterID:   centerID,
			FinalGrade: &grade,
			Status:     status,
		}
		if err := s.enrollments.Create(ctx, enrollment); err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
		bctx.enrollmentsByPerson[person.ID] = enrollment
		result.NewEnrollments++
	}

	if status == models.StatusNoShow {
		for i := range row.Details {
			row.Details[i].Score = 0.0
		}
		if err := s.details.ZeroByEnrollment(ctx, enrollment.ID); err != nil {
			return fmt.Errorf("zero grade details: %w", err)
		}
	}
	for _, detail := range row.Details {
		if err := s.details.Upsert(ctx, &models.GradeDetail{
			EnrollmentID: enrollment.ID,
			EvaluationID: detail.EvaluationID,
			Score:        detail.Score,
		}); err != nil {
			return fmt.Errorf("upsert grade detail: %w", err)
		}
	}
	return nil
}

// registerAlias stores a malformed identifier variant so the next import
// resolves it without review, and drops the cached dictionary.
func (s *ImportService) registerAlias(ctx context.Context, personID, value string) {
	if err := s.aliases.Create(ctx, &models.IdentifierAlias{PersonID: personID, Value: value}); err != nil {
		s.logger.Warn("failed to register identifier alias", zap.String("value", value), zap.Error(err))
		return
	}
	if s.cache != nil {
		if err := rediscache.Invalidate(ctx, s.cache, aliasCacheKey); err != nil {
			s.logger.Warn("alias cache invalidation failed", zap.Error(err))
		}
	}
}
