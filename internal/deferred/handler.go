package deferred

import (
	"context"
	"net/http"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, userID int64, dto CreateDTO) (*DeferredPayment, error)
	Get(ctx context.Context, userID, id int64) (*DeferredPayment, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]*DeferredPayment, error)
	PayInstallment(ctx context.Context, userID, id int64, dto PayInstallmentDTO) (*InstallmentResult, error)
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

	d, err := h.Service.Create(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, d)
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

	d, err := h.Service.Get(r.Context(), user.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
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

	payments, err := h.Service.List(r.Context(), user.ID, ListFilter{
		ProjectID: projectID,
		Status:    r.URL.Query().Get("status"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{DeferredPayments: payments})
}

// PayInstallment answers 201 on full success and 207 when the installment
// committed but its expense transaction did not.
func (h *Handler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto PayInstallmentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.PayInstallment(r.Context(), user.ID, id, dto)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodePartialSuccess && result != nil {
			h.WritePartialSuccess(w, result, appErr)
			return
		}
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}
