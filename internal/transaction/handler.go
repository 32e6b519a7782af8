package transaction

import (
	"context"
	"net/http"

	"github.com/frahmantamala/project-ledger/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error)
	Get(ctx context.Context, userID, id int64) (*Transaction, error)
	Update(ctx context.Context, userID, id int64, dto UpdateDTO) (*Transaction, error)
	Archive(ctx context.Context, userID, id int64) (*Transaction, error)
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
	limit, offset := h.Pagination(r)

	transactions, err := h.Service.List(r.Context(), user.ID, ListFilter{
		ProjectID:       projectID,
		Type:            r.URL.Query().Get("type"),
		IncludeArchived: r.URL.Query().Get("include_archived") == "true",
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{Transactions: transactions})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.Service.Get(r.Context(), user.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	t, err := h.Service.Update(r.Context(), user.ID, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.Service.Archive(r.Context(), user.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}
