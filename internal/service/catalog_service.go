package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
)

// ── catalog module errors ──

var (
	ErrDescentTypeNotFound = errors.New("descent type not found")
	ErrRitualNotFound      = errors.New("ritual not found")
)

// CatalogService descent types and rituals. Reads are public; every write
// requires CapCatalogAdmin.
type CatalogService interface {
	ListDescentTypes(ctx context.Context, actor Actor, req *dto.DescentTypeListRequest) ([]dto.DescentTypeResponse, error)
	GetDescentType(ctx context.Context, actor Actor, id string) (*dto.DescentTypeResponse, error)
	CreateDescentType(ctx context.Context, actor Actor, req *dto.CreateDescentTypeRequest) (*dto.DescentTypeResponse, error)
	UpdateDescentType(ctx context.Context, actor Actor, id string, req *dto.UpdateDescentTypeRequest) (*dto.DescentTypeResponse, error)
	DeleteDescentType(ctx context.Context, actor Actor, id string) error

	ListRituals(ctx context.Context, req *dto.RitualListRequest) ([]dto.RitualResponse, error)
	CreateRitual(ctx context.Context, actor Actor, req *dto.CreateRitualRequest) (*dto.RitualResponse, error)
	UpdateRitual(ctx context.Context, actor Actor, id string, req *dto.UpdateRitualRequest) (*dto.RitualResponse, error)
	DeleteRitual(ctx context.Context, actor Actor, id string) error
}

type catalogService struct {
	repo   *repository.Repository
	authz  Authorizer
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService gated by authz
func NewCatalogService(repo *repository.Repository, authz Authorizer, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, authz: authz, logger: logger}
}

// ────────────────────── descent types ──────────────────────

func (s *catalogService) ListDescentTypes(ctx context.Context, actor Actor, req *dto.DescentTypeListRequest) ([]dto.DescentTypeResponse, error) {
	includeInactive := req.IncludeInactive && s.authz.Require(actor, CapCatalogAdmin) == nil

	types, err := s.repo.DescentType.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("list descent types failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DescentTypeResponse, 0, len(types))
	for i := range types {
		result = append(result, *toDescentTypeResponse(&types[i]))
	}
	return result, nil
}

func (s *catalogService) GetDescentType(ctx context.Context, actor Actor, id string) (*dto.DescentTypeResponse, error) {
	dt, err := s.loadDescentType(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dt.IsActive && s.authz.Require(actor, CapCatalogAdmin) != nil {
		return nil, ErrDescentTypeNotFound
	}
	return toDescentTypeResponse(dt), nil
}

func (s *catalogService) CreateDescentType(ctx context.Context, actor Actor, req *dto.CreateDescentTypeRequest) (*dto.DescentTypeResponse, error) {
	if err := s.authz.Require(actor, CapCatalogAdmin); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.Add("name", "name is required")
	}
	category, err := model.ParseDescentCategory(req.Category)
	if err != nil {
		verr.Add("category", "unknown category")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	dt := &model.DescentType{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		IsActive:    true,
	}
	if req.IsActive != nil {
		dt.IsActive = *req.IsActive
	}
	dt.CreatedBy = &actor.UserID
	dt.UpdatedBy = &actor.UserID

	if err := s.repo.DescentType.Create(ctx, dt); err != nil {
		s.logger.Error("create descent type failed", zap.Error(err))
		return nil, err
	}
	return toDescentTypeResponse(dt), nil
}

func (s *catalogService) UpdateDescentType(ctx context.Context, actor Actor, id string, req *dto.UpdateDescentTypeRequest) (*dto.DescentTypeResponse, error) {
	if err := s.authz.Require(actor, CapCatalogAdmin); err != nil {
		return nil, err
	}

	dt, err := s.loadDescentType(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name == "" {
			verr.Add("name", "name is required")
		} else {
			dt.Name = name
		}
	}
	if req.Category != nil {
		if category, err := model.ParseDescentCategory(*req.Category); err != nil {
			verr.Add("category", "unknown category")
		} else {
			dt.Category = category
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if req.Description != nil {
		dt.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsActive != nil {
		dt.IsActive = *req.IsActive
	}
	dt.UpdatedBy = &actor.UserID

	if err := s.repo.DescentType.Update(ctx, dt); err != nil {
		s.logger.Error("update descent type failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toDescentTypeResponse(dt), nil
}

// DeleteDescentType soft-deletes; existing sessions keep their reference
func (s *catalogService) DeleteDescentType(ctx context.Context, actor Actor, id string) error {
	if err := s.authz.Require(actor, CapCatalogAdmin); err != nil {
		return err
	}
	if _, err := s.loadDescentType(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DescentType.Delete(ctx, id, actor.UserID); err != nil {
		s.logger.Error("delete descent type failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("descent type deleted", zap.String("id", id), zap.String("by", actor.UserID))
	return nil
}

func (s *catalogService) loadDescentType(ctx context.Context, id string) (*model.DescentType, error) {
	if !isUUID(id) {
		return nil, ErrDescentTypeNotFound
	}
	dt, err := s.repo.DescentType.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDescentTypeNotFound
		}
		s.logger.Error("load descent type failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dt, nil
}

// ────────────────────── rituals ──────────────────────

func (s *catalogService) ListRituals(ctx context.Context, req *dto.RitualListRequest) ([]dto.RitualResponse, error) {
	var phase model.RitualPhase
	if req.Phase != "" {
		p, err := model.ParseRitualPhase(req.Phase)
		if err != nil {
			verr := &ValidationError{}
			verr.Add("phase", "phase must be one of PRE, DURING, POST")
			return nil, verr
		}
		phase = p
	}
	if req.DescentTypeID != "" {
		if _, err := s.loadDescentType(ctx, req.DescentTypeID); err != nil {
			return nil, err
		}
	}

	rituals, err := s.repo.Ritual.List(ctx, req.DescentTypeID, phase)
	if err != nil {
		s.logger.Error("list rituals failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RitualResponse, 0, len(rituals))
	for i := range rituals {
		result = append(result, *toRitualResponse(&rituals[i]))
	}
	return result, nil
}

func (s *catalogService) CreateRitual(ctx context.Context, actor Actor, req *dto.CreateRitualRequest) (*dto.RitualResponse, error) {
	if err := s.authz.Require(actor, CapCatalogAdmin); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.Add("name", "name is required")
	}
	phase, err := model.ParseRitualPhase(req.Phase)
	if err != nil {
		verr.Add("phase", "phase must be one of PRE, DURING, POST")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.loadDescentType(ctx, req.DescentTypeID); err != nil {
		if errors.Is(err, ErrDescentTypeNotFound) {
			return nil, ErrInvalidReference
		}
		return nil, err
	}

	ritual := &model.Ritual{
		DescentTypeID: req.DescentTypeID,
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		Instructions:  strings.TrimSpace(req.Instructions),
		Phase:         phase,
	}
	ritual.CreatedBy = &actor.UserID
	ritual.UpdatedBy = &actor.UserID

	if err := s.repo.Ritual.Create(ctx, ritual); err != nil {
		s.logger.Error("create ritual failed", zap.Error(err))
		return nil, err
	}
	return toRitualResponse(ritual), nil
}

func (s *catalogService) UpdateRitual(ctx context.Context, actor Actor, id string, req *dto.UpdateRitualRequest) (*dto.RitualResponse, error) {
	if err := s.authz.Require(actor, CapCatalogAdmin); err != nil {
		return nil, err
	}

	ritual, err := s.loadRitual(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name == "" {
			verr.Add("name", "name is required")
		} else {
			ritual.Name = name
		}
	}
	if req.Phase != nil {
		if phase, err := model.ParseRitualPhase(*req.Phase); err != nil {
			verr.Add("phase", "phase must be one of PRE, DURING, POST")
		} else {
			ritual.Phase = phase
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if req.Description != nil {
		ritual.Description = strings.TrimSpace(*req.Description)
	}
	if req.Instructions != nil {
		ritual.Instructions = strings.TrimSpace(*req.Instructions)
	}
	ritual.UpdatedBy = &actor.UserID

	if err := s.repo.Ritual.Update(ctx, ritual); err != nil {
		s.logger.Error("update ritual failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toRitualResponse(ritual), nil
}

func (s *catalogService) DeleteRitual(ctx context.Context, actor Actor, id string) error {
	if err := s.authz.Require(actor, CapCatalogAdmin); err != nil {
		return err
	}
	if !isUUID(id) {
		return ErrRitualNotFound
	}

	if err := s.repo.Ritual.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRitualNotFound
		}
		s.logger.Error("delete ritual failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *catalogService) loadRitual(ctx context.Context, id string) (*model.Ritual, error) {
	if !isUUID(id) {
		return nil, ErrRitualNotFound
	}
	ritual, err := s.repo.Ritual.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRitualNotFound
		}
		s.logger.Error("load ritual failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return ritual, nil
}
