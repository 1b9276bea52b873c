package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/repository"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
)

// AdminService registers hotels and authenticates their admins
type AdminService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AdminAuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AdminAuthResponse, error)
	// Verify returns the admin behind a verified admin token
	Verify(ctx context.Context, adminID string) (*domain.Admin, error)
}

type adminService struct {
	admins     repository.AdminRepository
	partitions PartitionSource
	tokens     *auth.Manager
	log        *logger.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(admins repository.AdminRepository, partitions PartitionSource, tokens *auth.Manager, log *logger.Logger) AdminService {
	if log == nil {
		log = logger.NewNop()
	}
	return &adminService{admins: admins, partitions: partitions, tokens: tokens, log: log}
}

func (s *adminService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AdminAuthResponse, error) {
	tenantID, err := domain.TenantIDFromHotelName(req.HotelName)
	if err != nil {
		return nil, err
	}
	adminName := domain.NormalizeName(req.AdminName)
	if adminName == "" {
		return nil, domain.NewValidationError("adminName", "is required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	admin := &domain.Admin{
		ID:           newID(),
		HotelName:    strings.TrimSpace(req.HotelName),
		TenantID:     tenantID,
		AdminName:    strings.TrimSpace(req.AdminName),
		Username:     domain.LoginHandle(req.HotelName, req.AdminName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now(),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, storageError(err)
	}

	// The partition is created lazily on first use anyway; opening it here
	// only surfaces schema problems early.
	if _, err := s.partitions.Get(ctx, tenantID); err != nil {
		s.log.WarnContext(ctx, "tenant partition not ready after registration",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}

	s.log.InfoContext(ctx, "hotel registered",
		zap.String("tenant_id", tenantID),
		zap.String("username", admin.Username),
	)
	return s.authResponse(admin)
}

func (s *adminService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AdminAuthResponse, error) {
	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, storageError(err)
	}
	if err := auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.authResponse(admin)
}

func (s *adminService) Verify(ctx context.Context, adminID string) (*domain.Admin, error) {
	admin, err := s.admins.GetByID(ctx, adminID)
	return admin, storageError(err)
}

func (s *adminService) authResponse(admin *domain.Admin) (*dto.AdminAuthResponse, error) {
	token, err := s.tokens.IssueAdminToken(admin.ID, admin.Username, admin.TenantID)
	if err != nil {
		return nil, err
	}
	return &dto.AdminAuthResponse{Token: token, Admin: admin}, nil
}
