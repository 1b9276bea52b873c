package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/storage"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
)

// Upload is an image file attached to a menu item request
type Upload struct {
	Filename string
	Body     io.Reader
}

// MenuService manages categories and menu items of a tenant
type MenuService interface {
	ListCategories(ctx context.Context, tenantID string) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, tenantID, name string) (*domain.Category, error)
	RenameCategory(ctx context.Context, tenantID, id, name string) (*domain.Category, error)
	// DeleteCategory fails with domain.ErrCategoryInUse while items reference it
	DeleteCategory(ctx context.Context, tenantID, id string) error

	ListItems(ctx context.Context, tenantID string) ([]*domain.MenuItem, error)
	CreateItem(ctx context.Context, tenantID string, req *dto.MenuItemRequest, image *Upload) (*domain.MenuItem, error)
	// UpdateItem replaces the item's fields; the image only when one is given
	UpdateItem(ctx context.Context, tenantID, id string, req *dto.MenuItemRequest, image *Upload) (*domain.MenuItem, error)
	DeleteItem(ctx context.Context, tenantID, id string) error

	// Menu returns categories and items together for the guest view
	Menu(ctx context.Context, tenantID string) (*dto.MenuResponse, error)
}

type menuService struct {
	partitions PartitionSource
	images     storage.ImageStore
	log        *logger.Logger
}

// NewMenuService creates a new MenuService
func NewMenuService(partitions PartitionSource, images storage.ImageStore, log *logger.Logger) MenuService {
	if log == nil {
		log = logger.NewNop()
	}
	return &menuService{partitions: partitions, images: images, log: log}
}

func categoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "is required")
	}
	return name, nil
}

func (s *menuService) ListCategories(ctx context.Context, tenantID string) ([]*domain.Category, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	categories, err := p.Categories.List(ctx)
	return categories, storageError(err)
}

func (s *menuService) CreateCategory(ctx context.Context, tenantID, name string) (*domain.Category, error) {
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	c := &domain.Category{ID: newID(), Name: name, CreatedAt: now()}
	if err := p.Categories.Create(ctx, c); err != nil {
		return nil, storageError(err)
	}
	return c, nil
}

func (s *menuService) RenameCategory(ctx context.Context, tenantID, id, name string) (*domain.Category, error) {
	name, err := categoryName(name)
	if err != nil {
		return nil, err
	}
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c, err := p.Categories.Rename(ctx, id, name)
	return c, storageError(err)
}

func (s *menuService) DeleteCategory(ctx context.Context, tenantID, id string) error {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	return storageError(p.Categories.Delete(ctx, id))
}

func (s *menuService) ListItems(ctx context.Context, tenantID string) ([]*domain.MenuItem, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	items, err := p.MenuItems.List(ctx)
	return items, storageError(err)
}

func (s *menuService) CreateItem(ctx context.Context, tenantID string, req *dto.MenuItemRequest, image *Upload) (*domain.MenuItem, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	ts := now()
	item := &domain.MenuItem{ID: newID(), CreatedAt: ts, UpdatedAt: ts}
	applyItemRequest(item, req)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if _, err := p.Categories.GetByID(ctx, item.CategoryID); err != nil {
		return nil, categoryRefError(err)
	}

	if image != nil {
		url, err := s.saveImage(ctx, tenantID, image)
		if err != nil {
			return nil, err
		}
		item.Image = url
	}

	if err := p.MenuItems.Create(ctx, item); err != nil {
		s.removeImage(ctx, item.Image)
		return nil, storageError(err)
	}
	return item, nil
}

func (s *menuService) UpdateItem(ctx context.Context, tenantID, id string, req *dto.MenuItemRequest, image *Upload) (*domain.MenuItem, error) {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	item, err := p.MenuItems.GetByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	applyItemRequest(item, req)
	item.UpdatedAt = now()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if _, err := p.Categories.GetByID(ctx, item.CategoryID); err != nil {
		return nil, categoryRefError(err)
	}

	oldImage := item.Image
	if image != nil {
		url, err := s.saveImage(ctx, tenantID, image)
		if err != nil {
			return nil, err
		}
		item.Image = url
	}

	if err := p.MenuItems.Update(ctx, item); err != nil {
		if item.Image != oldImage {
			s.removeImage(ctx, item.Image)
		}
		return nil, storageError(err)
	}
	if item.Image != oldImage {
		s.removeImage(ctx, oldImage)
	}
	return item, nil
}

func (s *menuService) DeleteItem(ctx context.Context, tenantID, id string) error {
	p, err := s.partitions.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	item, err := p.MenuItems.GetByID(ctx, id)
	if err != nil {
		return storageError(err)
	}
	if err := p.MenuItems.Delete(ctx, id); err != nil {
		return storageError(err)
	}
	s.removeImage(ctx, item.Image)
	return nil
}

func (s *menuService) Menu(ctx context.Context, tenantID string) (*dto.MenuResponse, error) {
	categories, err := s.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	items, err := s.ListItems(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &dto.MenuResponse{Categories: categories, Items: items}, nil
}

func (s *menuService) saveImage(ctx context.Context, tenantID string, image *Upload) (string, error) {
	if s.images == nil {
		return "", domain.NewValidationError("image", "uploads are disabled")
	}
	return s.images.Save(ctx, tenantID, image.Filename, image.Body)
}

// removeImage is best-effort; an orphaned file is harmless
func (s *menuService) removeImage(ctx context.Context, url string) {
	if url == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.log.WarnContext(ctx, "menu image not removed", zap.String("url", url), zap.Error(err))
	}
}

func applyItemRequest(item *domain.MenuItem, req *dto.MenuItemRequest) {
	item.Name = strings.TrimSpace(req.Name)
	if req.Price != nil {
		item.Price = *req.Price
	}
	item.Description = strings.TrimSpace(req.Description)
	item.CategoryID = strings.TrimSpace(req.Category)
}

func categoryRefError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("category", "does not exist")
	}
	return storageError(err)
}
