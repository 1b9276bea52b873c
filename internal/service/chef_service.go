package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
)

// ChefService manages kitchen accounts of a tenant
type ChefService interface {
	Create(ctx context.Context, tenantID string, req *dto.CreateChefRequest) (*domain.Chef, error)
	Login(ctx context.Context, req *dto.ChefLoginRequest) (*dto.ChefAuthResponse, error)
	Verify(ctx context.Context, tenantID, id string) (*domain.Chef, error)
	List(ctx context.Context, tenantID string) ([]*domain.Chef, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type chefService struct {
	partitions PartitionSource
	tokens     *auth.Manager
	log        *logger.Logger
}

// NewChefService creates a new ChefService
func NewChefService(partitions PartitionSource, tokens *auth.Manager, log *logger.Logger) ChefService {
	if log == nil {
		log = logger.NewNop()
	}
	return &chefService{partitions: partitions, tokens: tokens, log: log}
}

func (s *chefService) Create(ctx context.Context, tenantID string, req *dto.CreateChefRequest) (*domain.Chef, error) {
	chefID := strings.TrimSpace(req.ChefID)
	if chefID == "" {
		return nil, domain.NewValidationError("chefId", "is required")
	}

	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	chef := &domain.Chef{
		ID:           newID(),
		ChefID:       chefID,
		PasswordHash: hash,
		Role:         domain.RoleChef,
		CreatedAt:    now(),
	}
	if err := p.Chefs.Create(ctx, chef); err != nil {
		return nil, storageError(err)
	}

	s.log.InfoContext(ctx, "chef created", zap.String("tenant_id", tenantID), zap.String("chef_id", chefID))
	return chef, nil
}

// Login never tells apart an unknown hotel, an unknown chef and a wrong password
func (s *chefService) Login(ctx context.Context, req *dto.ChefLoginRequest) (*dto.ChefAuthResponse, error) {
	tenantID, err := domain.TenantIDFromHotelName(req.HotelName)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	chef, err := p.Chefs.GetByChefID(ctx, strings.TrimSpace(req.ChefID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, storageError(err)
	}
	if err := auth.CheckPassword(chef.PasswordHash, req.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueChefToken(chef.ID, chef.ChefID, tenantID)
	if err != nil {
		return nil, err
	}
	return &dto.ChefAuthResponse{Token: token, Chef: chef}, nil
}

func (s *chefService) Verify(ctx context.Context, tenantID, id string) (*domain.Chef, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chef, err := p.Chefs.GetByID(ctx, id)
	return chef, storageError(err)
}

func (s *chefService) List(ctx context.Context, tenantID string) ([]*domain.Chef, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	chefs, err := p.Chefs.List(ctx)
	return chefs, storageError(err)
}

func (s *chefService) Delete(ctx context.Context, tenantID, id string) error {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	return storageError(p.Chefs.Delete(ctx, id))
}
