package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// MenuHandler handles categories, menu items and the guest menu
type MenuHandler struct {
	menuService   service.MenuService
	maxImageBytes int64
}

// NewMenuHandler creates a new MenuHandler
func NewMenuHandler(menuService service.MenuService, maxImageBytes int64) *MenuHandler {
	return &MenuHandler{menuService: menuService, maxImageBytes: maxImageBytes}
}

// Menu returns categories and items for the caller's hotel
// GET /user/menu
func (h *MenuHandler) Menu(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	menu, err := h.menuService.Menu(c.Request.Context(), tenantID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(menu))
}

// ListCategories GET /admin/categories
func (h *MenuHandler) ListCategories(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	categories, err := h.menuService.ListCategories(c.Request.Context(), tenantID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(categories))
}

// CreateCategory POST /admin/categories
func (h *MenuHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tenantID, _ := middleware.GetTenantID(c)

	category, err := h.menuService.CreateCategory(c.Request.Context(), tenantID, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(category))
}

// RenameCategory PUT /admin/categories/:id
func (h *MenuHandler) RenameCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tenantID, _ := middleware.GetTenantID(c)

	category, err := h.menuService.RenameCategory(c.Request.Context(), tenantID, c.Param("id"), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(category))
}

// DeleteCategory DELETE /admin/categories/:id
func (h *MenuHandler) DeleteCategory(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	if err := h.menuService.DeleteCategory(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Category deleted successfully"}))
}

// ListItems GET /admin/items
func (h *MenuHandler) ListItems(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	items, err := h.menuService.ListItems(c.Request.Context(), tenantID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(items))
}

// CreateItem accepts multipart/form-data with an optional "image" file
// POST /admin/items
func (h *MenuHandler) CreateItem(c *gin.Context) {
	req, file, ok := h.bindItem(c)
	if !ok {
		return
	}
	var image *service.Upload
	if file != nil {
		defer file.Close()
		image = &service.Upload{Filename: file.name, Body: file}
	}
	tenantID, _ := middleware.GetTenantID(c)

	item, err := h.menuService.CreateItem(c.Request.Context(), tenantID, req, image)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(item))
}

// UpdateItem PUT /admin/items/:id
func (h *MenuHandler) UpdateItem(c *gin.Context) {
	req, file, ok := h.bindItem(c)
	if !ok {
		return
	}
	var image *service.Upload
	if file != nil {
		defer file.Close()
		image = &service.Upload{Filename: file.name, Body: file}
	}
	tenantID, _ := middleware.GetTenantID(c)

	item, err := h.menuService.UpdateItem(c.Request.Context(), tenantID, c.Param("id"), req, image)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(item))
}

// DeleteItem DELETE /admin/items/:id
func (h *MenuHandler) DeleteItem(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	if err := h.menuService.DeleteItem(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Menu item deleted successfully"}))
}

type uploadedFile struct {
	multipart.File
	name string
}

// bindItem reads the form fields and the optional image. The caller closes
// the returned file.
func (h *MenuHandler) bindItem(c *gin.Context) (*dto.MenuItemRequest, *uploadedFile, bool) {
	if h.maxImageBytes > 0 {
		// leave room for the text fields around the file
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+64<<10)
	}

	var req dto.MenuItemRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Abort(c, response.Error(response.ErrCodePayloadTooLarge, "Image is too large"))
			return nil, nil, false
		}
		bindError(c, err)
		return nil, nil, false
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return &req, nil, true
		}
		response.Abort(c, response.BadRequest("Invalid image upload"))
		return nil, nil, false
	}

	f, err := fh.Open()
	if err != nil {
		response.Abort(c, response.BadRequest("Invalid image upload"))
		return nil, nil, false
	}
	return &req, &uploadedFile{File: f, name: fh.Filename}, true
}
