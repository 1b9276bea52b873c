package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// QRHandler handles table QR codes and the guest sessions they start
type QRHandler struct {
	qrService service.QRService
}

// NewQRHandler creates a new QRHandler
func NewQRHandler(qrService service.QRService) *QRHandler {
	return &QRHandler{qrService: qrService}
}

// GuestToken exchanges a scanned hotel and table for a guest token
// POST /user/getTokenFromQR
func (h *QRHandler) GuestToken(c *gin.Context) {
	var req dto.GuestTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, err := h.qrService.IssueGuestToken(c.Request.Context(), req.HotelName, req.TableNumber)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.TokenResponse{Token: token}))
}

// GenerateQR renders the QR code for one table of the admin's hotel
// GET /admin/generate-qr?tableNumber=N
func (h *QRHandler) GenerateQR(c *gin.Context) {
	var query dto.GenerateQRQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	tenantID, _ := middleware.GetTenantID(c)

	qr, err := h.qrService.GenerateTableQR(c.Request.Context(), tenantID, query.TableNumber)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(qr))
}
