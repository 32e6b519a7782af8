package editpermission

import (
	"context"
	"net/http"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/transport"
)

type ServiceAPI interface {
	Grant(ctx context.Context, grantedBy int64, dto GrantDTO) (*GrantResult, error)
	Revoke(ctx context.Context, id, revokedBy int64) (*Permission, error)
	Check(ctx context.Context, userID int64, projectID *int64) (*Permission, error)
	ListActive(ctx context.Context) ([]*Permission, error)
}

// Authorizer decides who may grant and revoke.
type Authorizer interface {
	CanGrantEditPermissions(ctx context.Context, userID int64) (bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	Authorizer Authorizer
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, authorizer Authorizer) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Authorizer:  authorizer,
	}
}

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireGranter(w, r)
	if !ok {
		return
	}
	var dto GrantDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.Grant(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Toggled {
		status = http.StatusOK
	}
	h.WriteJSON(w, status, result)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireGranter(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	permission, err := h.Service.Revoke(r.Context(), id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permission)
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireGranter(w, r); !ok {
		return
	}

	permissions, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: permissions})
}

// Check answers for the caller. Absence is a 200 with has_permission=false.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.OptionalInt64Query(w, r, "project_id")
	if !ok {
		return
	}

	permission, err := h.Service.Check(r.Context(), user.ID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CheckResponse{HasPermission: permission != nil, Permission: permission})
}

func (h *Handler) requireGranter(w http.ResponseWriter, r *http.Request) (*internal.User, bool) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return nil, false
	}
	allowed, err := h.Authorizer.CanGrantEditPermissions(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, internal.NewInternalError("failed to check permissions", err))
		return nil, false
	}
	if !allowed {
		h.Logger.Warn("edit permission management denied", "user_id", user.ID)
		h.WriteAppError(w, internal.ErrUnauthorizedAccess)
		return nil, false
	}
	return user, true
}
