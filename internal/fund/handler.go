package fund

import (
	"context"
	"net/http"

	fundDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/fund"
	"github.com/frahmantamala/project-ledger/internal/transport"
)

type ServiceAPI interface {
	Deposit(ctx context.Context, userID, projectID int64, dto DepositDTO) (*TransferResult, error)
	Withdraw(ctx context.Context, userID, projectID int64, dto WithdrawDTO) (*TransferResult, error)
	AdminTransaction(ctx context.Context, userID int64, dto AdminTransactionDTO) (*TransferResult, error)
	GetProjectFund(ctx context.Context, userID, projectID int64) (*Fund, error)
	GetAdminFund(ctx context.Context, userID int64) (*Fund, error)
	ListProjectLedger(ctx context.Context, userID, projectID int64, limit, offset int) ([]*fundDatamodel.LedgerEntry, error)
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

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto DepositDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.Deposit(r.Context(), user.ID, projectID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto WithdrawDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.Withdraw(r.Context(), user.ID, projectID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) AdminTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	var dto AdminTransactionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.AdminTransaction(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetProjectFund(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	f, err := h.Service.GetProjectFund(r.Context(), user.ID, projectID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) GetProjectLedger(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	projectID, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	limit, offset := h.Pagination(r)

	entries, err := h.Service.ListProjectLedger(r.Context(), user.ID, projectID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *Handler) GetAdminFund(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	f, err := h.Service.GetAdminFund(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}
