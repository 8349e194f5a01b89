package dto

// ── descent types ──

// CreateDescentTypeRequest admin create
type CreateDescentTypeRequest struct {
	Name        string `json:"name"        binding:"required,max=100"`
	Description string `json:"description"`
	Category    string `json:"category"    binding:"required"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateDescentTypeRequest admin partial update
type UpdateDescentTypeRequest struct {
	Name        *string `json:"name"        binding:"omitempty,max=100"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

// DescentTypeListRequest list filters
type DescentTypeListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DescentTypeResponse descent type view
type DescentTypeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ── rituals ──

// CreateRitualRequest admin create
type CreateRitualRequest struct {
	DescentTypeID string `json:"descent_type_id" binding:"required"`
	Name          string `json:"name"            binding:"required,max=100"`
	Description   string `json:"description"`
	Instructions  string `json:"instructions"`
	Phase         string `json:"phase"           binding:"required"`
}

// UpdateRitualRequest admin partial update
type UpdateRitualRequest struct {
	Name         *string `json:"name"         binding:"omitempty,max=100"`
	Description  *string `json:"description"`
	Instructions *string `json:"instructions"`
	Phase        *string `json:"phase"`
}

// RitualListRequest list filters
type RitualListRequest struct {
	DescentTypeID string `form:"descent_type_id"`
	Phase         string `form:"phase"`
}

// RitualResponse ritual view
type RitualResponse struct {
	ID            string `json:"id"`
	DescentTypeID string `json:"descent_type_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Instructions  string `json:"instructions"`
	Phase         string `json:"phase"`
}
