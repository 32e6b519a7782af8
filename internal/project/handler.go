package project

import (
	"context"
	"net/http"

	"github.com/frahmantamala/project-ledger/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, userID int64, dto CreateDTO) (*Project, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]*Project, error)
	Get(ctx context.Context, userID, projectID int64) (*Project, error)
	Assign(ctx context.Context, userID, projectID int64, dto AssignDTO) (*Assignment, error)
	Unassign(ctx context.Context, userID, projectID, assigneeID int64) error
	ListAssignments(ctx context.Context, userID, projectID int64) ([]*Assignment, error)
	DeleteFund(ctx context.Context, userID, projectID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	var dto CreateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.Create(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	limit, offset := h.Pagination(r)

	projects, err := h.Service.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{Projects: projects})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := h.Service.Get(r.Context(), user.ID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto AssignDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	a, err := h.Service.Assign(r.Context(), user.ID, projectID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	assigneeID, ok := h.IDParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.Service.Unassign(r.Context(), user.ID, projectID, assigneeID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	assignments, err := h.Service.ListAssignments(r.Context(), user.ID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AssignmentsResponse{Assignments: assignments})
}

func (h *Handler) DeleteFund(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteFund(r.Context(), user.ID, projectID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
