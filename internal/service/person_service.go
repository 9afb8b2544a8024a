package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/sanitize"
)

type personRepo interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.PersonDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Person, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Person, error)
	Create(ctx context.Context, person *models.Person) error
	Update(ctx context.Context, person *models.Person) error
}

type personCenterReader interface {
	FindByID(ctx context.Context, id string) (*models.Center, error)
}

// PersonRequest is the create/update payload for a person.
type PersonRequest struct {
	NationalID  string            `json:"national_id" validate:"required"`
	FullName    string            `json:"full_name" validate:"required"`
	Email       string            `json:"email" validate:"omitempty,email"`
	Role        models.PersonRole `json:"role"`
	CenterID    string            `json:"center_id" validate:"required"`
	Institution string            `json:"institution"`
}

// PersonService manages the people registry.
type PersonService struct {
	people    personRepo
	centers   personCenterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPersonService constructs PersonService.
func NewPersonService(people personRepo, centers personCenterReader, validate *validator.Validate, logger *zap.Logger) *PersonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonService{people: people, centers: centers, validator: validate, logger: logger}
}

// List returns people matching the filter.
func (s *PersonService) List(ctx context.Context, filter models.PersonFilter) ([]models.PersonDetail, *models.Pagination, error) {
	people, total, err := s.people.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list people")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return people, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one person.
func (s *PersonService) Get(ctx context.Context, id string) (*models.Person, error) {
	person, err := s.people.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}
	return person, nil
}

// Create registers a new person. The national ID is cleaned and must pass the
// checksum; duplicates are conflicts.
func (s *PersonService) Create(ctx context.Context, req PersonRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid person payload")
	}

	nationalID := sanitize.CleanIdentifier(req.NationalID)
	if !sanitize.ValidateNationalID(nationalID) {
		return nil, appErrors.Clone(appErrors.ErrInvalidNationalID, "")
	}

	if _, err := s.centers.FindByID(ctx, req.CenterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "center does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load center")
	}

	if _, err := s.people.FindByNationalID(ctx, nationalID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a person with this national id already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check national id")
	}

	person := &models.Person{
		NationalID:  nationalID,
		FullName:    sanitize.CleanText(req.FullName),
		Role:        req.Role,
		CenterID:    req.CenterID,
		Institution: sanitize.CleanText(req.Institution),
	}
	if req.Email != "" {
		email := req.Email
		person.Email = &email
	}
	if err := s.people.Create(ctx, person); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create person")
	}
	return person, nil
}

// Update rewrites a person's profile. The national ID is immutable; aliasing
// handles identifier corrections instead.
func (s *PersonService) Update(ctx context.Context, id string, req PersonRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid person payload")
	}

	person, err := s.people.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}

	person.FullName = sanitize.CleanText(req.FullName)
	person.Role = req.Role
	person.CenterID = req.CenterID
	person.Institution = sanitize.CleanText(req.Institution)
	if req.Email != "" {
		email := req.Email
		person.Email = &email
	} else {
		person.Email = nil
	}

	if err := s.people.Update(ctx, person); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update person")
	}
	return person, nil
}
