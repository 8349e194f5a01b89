package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

// SessionHandler descent session HTTP handlers
type SessionHandler struct {
	sessionSvc service.SessionService
	exportSvc  service.ExportService
	pageSize   int
}

// NewSessionHandler creates a SessionHandler
func NewSessionHandler(sessionSvc service.SessionService, exportSvc service.ExportService, pageSize int) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, exportSvc: exportSvc, pageSize: pageSize}
}

// StartSession begin a descent
// POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	sess, err := h.sessionSvc.Start(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleSessionError(c, err, req)
		return
	}

	response.Created(c, sess)
}

// ListHistory the caller's sessions, newest first
// GET /api/v1/sessions
func (h *SessionHandler) ListHistory(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid pagination parameters")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, total, err := h.sessionSvc.History(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleSessionError(c, err, nil)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize(h.pageSize))
}

// GetSession session detail with entries
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	sess, err := h.sessionSvc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err, nil)
		return
	}

	response.OK(c, sess)
}

// UpdateNotes replace the session notes
// PUT /api/v1/sessions/:id
func (h *SessionHandler) UpdateNotes(c *gin.Context) {
	var req dto.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	sess, err := h.sessionSvc.UpdateNotes(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleSessionError(c, err, req)
		return
	}

	response.OK(c, sess)
}

// ContinueSession add an entry, then save, keep journaling or complete
// POST /api/v1/sessions/:id/continue
func (h *SessionHandler) ContinueSession(c *gin.Context) {
	var req dto.ContinueSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.sessionSvc.Continue(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleSessionError(c, err, req)
		return
	}

	response.OKWithWarnings(c, result, result.Warnings)
}

// CompleteSession
// POST /api/v1/sessions/:id/complete
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.sessionSvc.Complete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err, nil)
		return
	}

	response.OKWithWarnings(c, result.Session, result.Warnings)
}

// AbandonSession
// POST /api/v1/sessions/:id/abandon
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.sessionSvc.Abandon(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err, nil)
		return
	}

	response.OKWithWarnings(c, result.Session, result.Warnings)
}

// DeleteSession removes the session and all its entries
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleSessionError(c, err, nil)
		return
	}

	response.OK(c, nil)
}

// ExportHistory the caller's sessions as an iCalendar file
// GET /api/v1/sessions/export.ics
func (h *SessionHandler) ExportHistory(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportHistoryICS(c.Request.Context(), actor)
	if err != nil {
		response.InternalError(c)
		return
	}

	sendFile(c, filename, "text/calendar; charset=utf-8", buf.Bytes())
}

// handleSessionError maps session module errors
func (h *SessionHandler) handleSessionError(c *gin.Context, err error, input interface{}) {
	if handleJournalError(c, err, 20004, input) {
		return
	}
	response.InternalError(c)
}

// sendFile writes body as an attachment download
func sendFile(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, body)
}
