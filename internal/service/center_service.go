package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/FleerJam/appGestionAcademica/internal/models"
	appErrors "github.com/FleerJam/appGestionAcademica/pkg/errors"
	"github.com/FleerJam/appGestionAcademica/pkg/sanitize"
)

type centerRepo interface {
	All(ctx context.Context) ([]models.Center, error)
	Create(ctx context.Context, center *models.Center) error
}

// CenterRequest is the create payload for a center.
type CenterRequest struct {
	Name   string `json:"name" validate:"required"`
	Zone   string `json:"zone"`
	Active bool   `json:"active"`
}

// CenterService manages the center registry.
type CenterService struct {
	centers   centerRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCenterService constructs CenterService.
func NewCenterService(centers centerRepo, validate *validator.Validate, logger *zap.Logger) *CenterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CenterService{centers: centers, validator: validate, logger: logger}
}

// List returns every center.
func (s *CenterService) List(ctx context.Context) ([]models.Center, error) {
	centers, err := s.centers.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list centers")
	}
	return centers, nil
}

// Create registers a new center. Names are stored normalized so imports match
// them after cleaning.
func (s *CenterService) Create(ctx context.Context, req CenterRequest) (*models.Center, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid center payload")
	}
	center := &models.Center{
		Name:   sanitize.CleanText(req.Name),
		Zone:   req.Zone,
		Active: req.Active,
	}
	if err := s.centers.Create(ctx, center); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create center")
	}
	return center, nil
}
