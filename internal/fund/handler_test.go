package fund_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/fund"
	fundPostgres "github.com/frahmantamala/project-ledger/internal/fund/postgres"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fund Handler Integration", func() {
	var router *chi.Mux

	withUser := func(req *http.Request, id int64) *http.Request {
		return req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: id}))
	}

	BeforeEach(func() {
		db := openLedgerDB()
		seedAdminBalance(db, 1_000_000)
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := fund.NewService(fundPostgres.NewFundRepository(db), NewMockGate(), nil, "IDR", slogger)
		handler := fund.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Post("/projects/{id}/deposit", handler.Deposit)
		router.Post("/projects/{id}/withdraw", handler.Withdraw)
		router.Get("/projects/{id}/fund", handler.GetProjectFund)
	})

	It("answers 201 with the fund pair on deposit", func() {
		body, _ := json.Marshal(fund.DepositDTO{Amount: 200_000, Description: "Phase 1"})
		req := withUser(httptest.NewRequest(http.MethodPost, "/projects/7/deposit", bytes.NewReader(body)), adminID)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var result fund.TransferResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.AdminFund.Balance).To(Equal(int64(800_000)))
		Expect(result.ProjectFund.Balance).To(Equal(int64(200_000)))
	})

	It("answers 422 with the remaining balance when overdrawing", func() {
		body, _ := json.Marshal(fund.WithdrawDTO{Amount: 1, Description: "x"})
		req := withUser(httptest.NewRequest(http.MethodPost, "/projects/7/withdraw", bytes.NewReader(body)), memberID)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["error"]["code"]).To(Equal("INSUFFICIENT_FUNDS"))
		Expect(resp["error"]["message"]).To(ContainSubstring("remaining balance"))
	})

	It("answers 403 for outsiders", func() {
		req := withUser(httptest.NewRequest(http.MethodGet, "/projects/7/fund", nil), outsideID)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("answers 401 without a principal", func() {
		req := httptest.NewRequest(http.MethodGet, "/projects/7/fund", nil).WithContext(context.Background())
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 400 on malformed ids", func() {
		req := withUser(httptest.NewRequest(http.MethodGet, "/projects/abc/fund", nil), adminID)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
