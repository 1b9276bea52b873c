package dto

import "github.com/werewolfcoder/OrderingSystem/internal/domain"

// RegisterRequest represents a hotel registration by its admin
type RegisterRequest struct {
	HotelName string `json:"hotelName" binding:"required,max=100"`
	AdminName string `json:"adminName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest represents an admin login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminAuthResponse is returned by register and login
type AdminAuthResponse struct {
	Token string        `json:"token"`
	Admin *domain.Admin `json:"admin"`
}

// ChefLoginRequest represents a kitchen login
type ChefLoginRequest struct {
	HotelName string `json:"hotelName" binding:"required"`
	ChefID    string `json:"chefId" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// ChefAuthResponse is returned by chef login
type ChefAuthResponse struct {
	Token string       `json:"token"`
	Chef  *domain.Chef `json:"chef"`
}

// CreateChefRequest represents an admin adding a kitchen account
type CreateChefRequest struct {
	ChefID   string `json:"chefId" binding:"required,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}
