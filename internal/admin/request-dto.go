package admin

// query of the back-office user list
type ListUsersQuery struct {
	Role  string `form:"role" json:"role" validate:"omitempty,oneof=client admin superadmin"`
	Page  int    `form:"page" json:"page" validate:"omitempty,min=1,max=100000"`
	Limit int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=client admin superadmin"`
}
