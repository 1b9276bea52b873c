package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// AdminHandler handles hotel registration and admin sessions
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Register handles hotel registration
// POST /global/register
func (h *AdminHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.adminService.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(result))
}

// Login handles admin login
// POST /global/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.adminService.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Verify returns the admin behind the presented token
// GET /global/verify
func (h *AdminHandler) Verify(c *gin.Context) {
	adminID, _ := middleware.GetSubject(c)

	admin, err := h.adminService.Verify(c.Request.Context(), adminID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(admin))
}
