package domain

import "time"

// RoleAdmin and RoleChef are the role markers stored with staff records
const (
	RoleAdmin = "admin"
	RoleChef  = "chef"
)

// Admin is the single administrator of a hotel. Stored globally, not in a partition.
type Admin struct {
	ID           string    `json:"id"`
	HotelName    string    `json:"hotelName"`
	TenantID     string    `json:"tenantId"`
	AdminName    string    `json:"adminName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Chef is a kitchen account. ChefID is unique only inside its tenant.
type Chef struct {
	ID           string    `json:"id"`
	ChefID       string    `json:"chefId"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
