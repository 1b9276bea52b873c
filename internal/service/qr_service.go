package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
)

// DefaultQRImageSize is the PNG edge length in pixels
const DefaultQRImageSize = 256

// QRService bootstraps guest sessions from table QR codes
type QRService interface {
	// IssueGuestToken binds a token to a hotel table. It checks only that
	// both are present; whether the hotel exists is decided when the token
	// is used.
	IssueGuestToken(ctx context.Context, hotelName string, table int) (string, error)
	// GenerateTableQR renders the QR code an admin prints for a table
	GenerateTableQR(ctx context.Context, tenantID string, table int) (*dto.QRResponse, error)
}

type qrService struct {
	tokens      *auth.Manager
	frontendURL string
	imageSize   int
}

// NewQRService creates a new QRService. frontendURL is the guest app base,
// e.g. "https://menu.example.com/".
func NewQRService(tokens *auth.Manager, frontendURL string, imageSize int) QRService {
	if imageSize <= 0 {
		imageSize = DefaultQRImageSize
	}
	if !strings.HasSuffix(frontendURL, "/") {
		frontendURL += "/"
	}
	return &qrService{tokens: tokens, frontendURL: frontendURL, imageSize: imageSize}
}

func (s *qrService) IssueGuestToken(ctx context.Context, hotelName string, table int) (string, error) {
	ve := &domain.ValidationError{}
	tenantID := domain.NormalizeName(hotelName)
	if tenantID == "" {
		ve.Add("hotelName", "is required")
	}
	if table <= 0 {
		ve.Add("tableNumber", "must be positive")
	}
	if err := ve.OrNil(); err != nil {
		return "", err
	}
	return s.tokens.IssueGuestToken(tenantID, table)
}

// TableURL is the address encoded in a table's QR code
func (s *qrService) TableURL(tenantID string, table int) string {
	q := url.Values{}
	q.Set("hotel", tenantID)
	q.Set("table", strconv.Itoa(table))
	return s.frontendURL + "scan?" + q.Encode()
}

func (s *qrService) GenerateTableQR(ctx context.Context, tenantID string, table int) (*dto.QRResponse, error) {
	if table <= 0 {
		return nil, domain.NewValidationError("tableNumber", "must be positive")
	}

	link := s.TableURL(tenantID, table)
	png, err := qrcode.Encode(link, qrcode.Medium, s.imageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return &dto.QRResponse{
		QRImage: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		QRURL:   link,
	}, nil
}
