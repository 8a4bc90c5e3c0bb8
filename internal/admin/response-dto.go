package admin

import "boutique/internal/users"

type UserListResponse struct {
	Users      []users.PublicUser `json:"users"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

type UserResponse struct {
	User users.PublicUser `json:"user"`
}
