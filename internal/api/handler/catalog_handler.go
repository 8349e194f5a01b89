package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

// CatalogHandler descent type and ritual HTTP handlers
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler creates a CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListDescentTypes active types; admins may pass include_inactive=true
// GET /api/v1/descent-types
// GET /api/v1/admin/descent-types
func (h *CatalogHandler) ListDescentTypes(c *gin.Context) {
	var req dto.DescentTypeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	types, err := h.catalogSvc.ListDescentTypes(c.Request.Context(), ActorFromContext(c), &req)
	if err != nil {
		h.handleCatalogError(c, err, nil)
		return
	}

	response.OK(c, gin.H{"list": types})
}

// GetDescentType
// GET /api/v1/descent-types/:id
func (h *CatalogHandler) GetDescentType(c *gin.Context) {
	dt, err := h.catalogSvc.GetDescentType(c.Request.Context(), ActorFromContext(c), c.Param("id"))
	if err != nil {
		h.handleCatalogError(c, err, nil)
		return
	}

	response.OK(c, dt)
}

// ListRituals rituals of one descent type, optionally filtered by phase
// GET /api/v1/descent-types/:id/rituals
func (h *CatalogHandler) ListRituals(c *gin.Context) {
	var req dto.RitualListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}
	req.DescentTypeID = c.Param("id")

	rituals, err := h.catalogSvc.ListRituals(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err, nil)
		return
	}

	response.OK(c, gin.H{"list": rituals})
}

// CreateDescentType
// POST /api/v1/admin/descent-types
func (h *CatalogHandler) CreateDescentType(c *gin.Context) {
	var req dto.CreateDescentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	dt, err := h.catalogSvc.CreateDescentType(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleCatalogError(c, err, req)
		return
	}

	response.Created(c, dt)
}

// UpdateDescentType
// PUT /api/v1/admin/descent-types/:id
func (h *CatalogHandler) UpdateDescentType(c *gin.Context) {
	var req dto.UpdateDescentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	dt, err := h.catalogSvc.UpdateDescentType(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleCatalogError(c, err, req)
		return
	}

	response.OK(c, dt)
}

// DeleteDescentType soft delete
// DELETE /api/v1/admin/descent-types/:id
func (h *CatalogHandler) DeleteDescentType(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.catalogSvc.DeleteDescentType(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleCatalogError(c, err, nil)
		return
	}

	response.OK(c, nil)
}

// CreateRitual
// POST /api/v1/admin/rituals
func (h *CatalogHandler) CreateRitual(c *gin.Context) {
	var req dto.CreateRitualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	ritual, err := h.catalogSvc.CreateRitual(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleCatalogError(c, err, req)
		return
	}

	response.Created(c, ritual)
}

// UpdateRitual
// PUT /api/v1/admin/rituals/:id
func (h *CatalogHandler) UpdateRitual(c *gin.Context) {
	var req dto.UpdateRitualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	ritual, err := h.catalogSvc.UpdateRitual(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleCatalogError(c, err, req)
		return
	}

	response.OK(c, ritual)
}

// DeleteRitual
// DELETE /api/v1/admin/rituals/:id
func (h *CatalogHandler) DeleteRitual(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.catalogSvc.DeleteRitual(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleCatalogError(c, err, nil)
		return
	}

	response.OK(c, nil)
}

// handleCatalogError maps catalog module errors
func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error, input interface{}) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(c, 22004, verr, input)
	case errors.Is(err, service.ErrDescentTypeNotFound):
		response.NotFound(c, 22001, "descent type not found")
	case errors.Is(err, service.ErrRitualNotFound):
		response.NotFound(c, 22002, "ritual not found")
	case errors.Is(err, service.ErrInvalidReference):
		response.Error(c, http.StatusConflict, 22003, "descent type does not exist")
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, 10003, "permission denied")
	default:
		response.InternalError(c)
	}
}
