package dto

// GuestTokenRequest is sent by the page a table QR code opens
type GuestTokenRequest struct {
	HotelName   string `json:"hotelName" binding:"required"`
	TableNumber int    `json:"tableNumber" binding:"required,min=1"`
}

// TokenResponse carries a freshly issued token
type TokenResponse struct {
	Token string `json:"token"`
}

// GenerateQRQuery is the query of the admin QR endpoint
type GenerateQRQuery struct {
	TableNumber int `form:"tableNumber" binding:"required,min=1"`
}

// QRResponse is a printable table QR code
type QRResponse struct {
	QRImage string `json:"qrImage"`
	QRURL   string `json:"qrUrl"`
}
