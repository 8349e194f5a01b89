package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

// UserHandler account administration HTTP handlers
type UserHandler struct {
	userSvc  service.UserService
	pageSize int
}

// NewUserHandler creates a UserHandler
func NewUserHandler(userSvc service.UserService, pageSize int) *UserHandler {
	return &UserHandler{userSvc: userSvc, pageSize: pageSize}
}

// ListUsers
// GET /api/v1/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleUserError(c, err, nil)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize(h.pageSize))
}

// GetUser
// GET /api/v1/admin/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleUserError(c, err, nil)
		return
	}

	response.OK(c, user)
}

// UpdateUser edit account fields, superuser flag or password
// PUT /api/v1/admin/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		echo := req
		echo.Password = nil
		h.handleUserError(c, err, echo)
		return
	}

	response.OK(c, user)
}

// DeleteUser removes the account together with its journal
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleUserError(c, err, nil)
		return
	}

	response.OK(c, nil)
}

// ResetPassword replaces the password with a generated one
// POST /api/v1/admin/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.userSvc.ResetPassword(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleUserError(c, err, nil)
		return
	}

	response.OK(c, resp)
}

// handleUserError maps user administration errors
func (h *UserHandler) handleUserError(c *gin.Context, err error, input interface{}) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(c, 24004, verr, input)
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 24001, "user not found")
	case errors.Is(err, service.ErrUsernameTaken):
		response.Conflict(c, 24002, "username already registered")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 24003, "email already registered")
	case errors.Is(err, service.ErrLastSuperuser):
		response.Conflict(c, 24005, "cannot remove the last superuser")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.Error(c, http.StatusBadRequest, 24006, "cannot delete your own account")
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, 10003, "permission denied")
	default:
		response.InternalError(c)
	}
}
