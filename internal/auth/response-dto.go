package auth

import "boutique/internal/users"

// body of login, refresh and register
type UserResponse struct {
	User users.PublicUser `json:"user"`
}

// body of /me; User is null for anonymous visitors
type MeResponse struct {
	User *users.PublicUser `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
