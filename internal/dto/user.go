package dto

// ── user administration ──

// UserListRequest account listing filters
type UserListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword"` // matches username or email
}

// UpdateUserRequest partial account edit; nil fields are left unchanged
type UpdateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	IsSuperuser *bool   `json:"is_superuser"`
	Password    *string `json:"password"`
}

// ResetPasswordResponse the generated password, shown once
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}
