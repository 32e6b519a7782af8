package transaction_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/transaction"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	err        error
	lastFilter transaction.ListFilter
	lastUpdate transaction.UpdateDTO
}

func (s *stubService) List(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	s.lastFilter = filter
	return []*transaction.Transaction{}, s.err
}

func (s *stubService) Get(ctx context.Context, userID, id int64) (*transaction.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &transaction.Transaction{ID: id, Type: "expense", Amount: 1_000}, nil
}

func (s *stubService) Update(ctx context.Context, userID, id int64, dto transaction.UpdateDTO) (*transaction.Transaction, error) {
	s.lastUpdate = dto
	if s.err != nil {
		return nil, s.err
	}
	t := &transaction.Transaction{ID: id, Type: "expense", Amount: 1_000}
	if dto.Description != nil {
		t.Description = *dto.Description
	}
	return t, nil
}

func (s *stubService) Archive(ctx context.Context, userID, id int64) (*transaction.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &transaction.Transaction{ID: id}, nil
}

var _ = Describe("Transaction Handler", func() {
	var (
		stub   *stubService
		router *chi.Mux
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: memberID, Role: "user"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		stub = &stubService{}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := transaction.NewHandler(&transport.BaseHandler{Logger: slogger}, stub)
		router = chi.NewRouter()
		router.Get("/transactions", handler.List)
		router.Get("/transactions/{id}", handler.Get)
		router.Patch("/transactions/{id}", handler.Update)
		router.Post("/transactions/{id}/archive", handler.Archive)
	})

	It("builds the list filter from the query string", func() {
		w := do(http.MethodGet, "/transactions?project_id=7&type=expense&include_archived=true&limit=10", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(stub.lastFilter.ProjectID).NotTo(BeNil())
		Expect(*stub.lastFilter.ProjectID).To(Equal(bridgeID))
		Expect(stub.lastFilter.Type).To(Equal("expense"))
		Expect(stub.lastFilter.IncludeArchived).To(BeTrue())
		Expect(stub.lastFilter.Limit).To(Equal(10))
	})

	It("rejects a non-numeric project filter", func() {
		w := do(http.MethodGet, "/transactions?project_id=bridge", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
	})

	It("maps a missing transaction to 404", func() {
		stub.err = internal.ErrTransactionNotFound
		w := do(http.MethodGet, "/transactions/99", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("decodes partial updates", func() {
		w := do(http.MethodPatch, "/transactions/5", `{"description":"cement, 20 bags"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(stub.lastUpdate.Description).NotTo(BeNil())
		Expect(stub.lastUpdate.Amount).To(BeNil())

		var t transaction.Transaction
		Expect(json.Unmarshal(w.Body.Bytes(), &t)).To(Succeed())
		Expect(t.Description).To(Equal("cement, 20 bags"))
	})

	It("answers 403 when the caller holds no edit grant", func() {
		stub.err = internal.ErrUnauthorizedAccess
		w := do(http.MethodPatch, "/transactions/5", `{"description":"x"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).To(ContainSubstring("UNAUTHORIZED_ACCESS"))
	})

	It("archives with 200", func() {
		w := do(http.MethodPost, "/transactions/5/archive", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
