package deferred_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/deferred"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	result *deferred.InstallmentResult
	err    error
}

func (s *stubService) Create(ctx context.Context, userID int64, dto deferred.CreateDTO) (*deferred.DeferredPayment, error) {
	return &deferred.DeferredPayment{ID: 1, BeneficiaryName: dto.BeneficiaryName, TotalAmount: dto.TotalAmount}, s.err
}

func (s *stubService) Get(ctx context.Context, userID, id int64) (*deferred.DeferredPayment, error) {
	return nil, s.err
}

func (s *stubService) List(ctx context.Context, userID int64, filter deferred.ListFilter) ([]*deferred.DeferredPayment, error) {
	return nil, s.err
}

func (s *stubService) PayInstallment(ctx context.Context, userID, id int64, dto deferred.PayInstallmentDTO) (*deferred.InstallmentResult, error) {
	return s.result, s.err
}

var _ = Describe("Deferred Payment Handler", func() {
	var (
		stub   *stubService
		router *chi.Mux
	)

	pay := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/deferred-payments/5/installments", bytes.NewBufferString(body))
		req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: memberID}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		stub = &stubService{}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := deferred.NewHandler(&transport.BaseHandler{Logger: slogger}, stub)
		router = chi.NewRouter()
		router.Post("/deferred-payments/{id}/installments", handler.PayInstallment)
		router.Get("/deferred-payments/{id}", handler.Get)
	})

	It("answers 201 with the installment result", func() {
		stub.result = &deferred.InstallmentResult{Payment: &deferred.DeferredPayment{ID: 5, PaidAmount: 30_000}, Amount: 30_000}
		w := pay(`{"amount":30000}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
	})

	It("answers 207 carrying both the payment and the error on partial success", func() {
		stub.result = &deferred.InstallmentResult{Payment: &deferred.DeferredPayment{ID: 5, PaidAmount: 30_000, RemainingAmount: 60_000}, Amount: 30_000}
		stub.err = internal.NewPartialSuccessError("installment recorded but the linked expense transaction was not created", errors.New("boom"))

		w := pay(`{"amount":30000}`)
		Expect(w.Code).To(Equal(http.StatusMultiStatus))

		var body struct {
			Result deferred.InstallmentResult `json:"result"`
			Error  struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Result.Payment.RemainingAmount).To(Equal(int64(60_000)))
		Expect(body.Error.Code).To(Equal("PARTIAL_SUCCESS"))
	})

	It("maps domain errors", func() {
		stub.err = internal.ErrInvalidAmount
		Expect(pay(`{"amount":0}`).Code).To(Equal(http.StatusBadRequest))

		stub.err = internal.ErrDeferredPaymentMissing
		Expect(pay(`{"amount":1}`).Code).To(Equal(http.StatusNotFound))

		stub.err = internal.ErrUnauthorizedAccess
		Expect(pay(`{"amount":1}`).Code).To(Equal(http.StatusForbidden))
	})

	It("rejects a malformed body", func() {
		Expect(pay(`{"amount":`).Code).To(Equal(http.StatusBadRequest))
	})
})
