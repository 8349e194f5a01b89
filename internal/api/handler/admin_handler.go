package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler superuser statistics HTTP handlers
type AdminHandler struct {
	statsSvc  service.StatsService
	exportSvc service.ExportService
}

// NewAdminHandler creates an AdminHandler
func NewAdminHandler(statsSvc service.StatsService, exportSvc service.ExportService) *AdminHandler {
	return &AdminHandler{statsSvc: statsSvc, exportSvc: exportSvc}
}

// Dashboard
// GET /api/v1/admin/stats
func (h *AdminHandler) Dashboard(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	stats, err := h.statsSvc.Dashboard(c.Request.Context(), actor)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OK(c, stats)
}

// ListSessions every user's sessions, newest first
// GET /api/v1/admin/sessions
func (h *AdminHandler) ListSessions(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid pagination parameters")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	rows, total, err := h.statsSvc.AllSessions(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	response.OKPage(c, rows, total, req.GetPage(), req.GetPageSize(0))
}

// ExportStats workbook download
// GET /api/v1/admin/stats/export
func (h *AdminHandler) ExportStats(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportStats(c.Request.Context(), actor)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	sendFile(c, filename, xlsxContentType, buf.Bytes())
}

// handleAdminError maps admin module errors
func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, 10003, "permission denied")
	default:
		response.InternalError(c)
	}
}
