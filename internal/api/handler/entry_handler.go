package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

// EntryHandler journal entry HTTP handlers
type EntryHandler struct {
	entrySvc service.EntryService
}

// NewEntryHandler creates an EntryHandler
func NewEntryHandler(entrySvc service.EntryService) *EntryHandler {
	return &EntryHandler{entrySvc: entrySvc}
}

// ListEntries entries of a session, oldest first
// GET /api/v1/sessions/:id/entries
func (h *EntryHandler) ListEntries(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	entries, err := h.entrySvc.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleEntryError(c, err, nil)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// AddEntry
// POST /api/v1/sessions/:id/entries
func (h *EntryHandler) AddEntry(c *gin.Context) {
	var req dto.EntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	entry, err := h.entrySvc.Add(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleEntryError(c, err, req)
		return
	}

	response.Created(c, entry)
}

// EditEntry
// PUT /api/v1/entries/:id
func (h *EntryHandler) EditEntry(c *gin.Context) {
	var req dto.EntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	entry, err := h.entrySvc.Edit(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleEntryError(c, err, req)
		return
	}

	response.OK(c, entry)
}

// DeleteEntry
// DELETE /api/v1/entries/:id
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.entrySvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleEntryError(c, err, nil)
		return
	}

	response.OK(c, nil)
}

// handleEntryError maps entry module errors
func (h *EntryHandler) handleEntryError(c *gin.Context, err error, input interface{}) {
	if errors.Is(err, service.ErrEntryNotFound) {
		response.NotFound(c, 21001, "entry not found")
		return
	}
	if handleJournalError(c, err, 21004, input) {
		return
	}
	response.InternalError(c)
}
