package dto

// ── pagination ──

// PaginationRequest common paging parameters
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number, 1 when unset
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size, def when unset
func (p *PaginationRequest) GetPageSize(def int) int {
	if p.PageSize <= 0 {
		if def <= 0 {
			return 20
		}
		return def
	}
	return p.PageSize
}

// GetOffset row offset for the page
func (p *PaginationRequest) GetOffset(def int) int {
	return (p.GetPage() - 1) * p.GetPageSize(def)
}
