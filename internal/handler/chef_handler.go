package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// ChefHandler handles kitchen sessions and the admin's chef management
type ChefHandler struct {
	chefService service.ChefService
}

// NewChefHandler creates a new ChefHandler
func NewChefHandler(chefService service.ChefService) *ChefHandler {
	return &ChefHandler{chefService: chefService}
}

// Login handles chef login
// POST /chef/login
func (h *ChefHandler) Login(c *gin.Context) {
	var req dto.ChefLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.chefService.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Verify returns the chef behind the presented token
// GET /chef/verify
func (h *ChefHandler) Verify(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)
	chefID, _ := middleware.GetSubject(c)

	chef, err := h.chefService.Verify(c.Request.Context(), tenantID, chefID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(chef))
}

// Create adds a chef to the admin's hotel
// POST /admin/chefs
func (h *ChefHandler) Create(c *gin.Context) {
	var req dto.CreateChefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tenantID, _ := middleware.GetTenantID(c)

	chef, err := h.chefService.Create(c.Request.Context(), tenantID, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(chef))
}

// List returns the hotel's chefs
// GET /admin/chefs
func (h *ChefHandler) List(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	chefs, err := h.chefService.List(c.Request.Context(), tenantID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(chefs))
}

// Delete removes a chef
// DELETE /admin/chefs/:id
func (h *ChefHandler) Delete(c *gin.Context) {
	tenantID, _ := middleware.GetTenantID(c)

	if err := h.chefService.Delete(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Chef deleted successfully"}))
}
