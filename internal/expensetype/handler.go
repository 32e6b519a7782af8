package expensetype

import (
	"context"
	"net/http"

	"github.com/frahmantamala/project-ledger/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, userID int64, dto CreateDTO) (*ExpenseType, error)
	List(ctx context.Context, userID int64, projectID *int64) ([]*ExpenseType, error)
	Deactivate(ctx context.Context, userID, id int64) error
	Classify(ctx context.Context, projectID *int64, label string) (string, error)
	Summary(ctx context.Context, userID int64, projectID *int64) (*Summary, error)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.OptionalInt64Query(w, r, "project_id")
	if !ok {
		return
	}

	types, err := h.Service.List(r.Context(), user.ID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{ExpenseTypes: types})
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

	e, err := h.Service.Create(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Deactivate(r.Context(), user.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.CurrentUser(w, r); !ok {
		return
	}
	projectID, ok := h.OptionalInt64Query(w, r, "project_id")
	if !ok {
		return
	}
	label := r.URL.Query().Get("label")

	name, err := h.Service.Classify(r.Context(), projectID, label)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ClassifyResponse{Label: label, ExpenseType: name})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.OptionalInt64Query(w, r, "project_id")
	if !ok {
		return
	}

	summary, err := h.Service.Summary(r.Context(), user.ID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
