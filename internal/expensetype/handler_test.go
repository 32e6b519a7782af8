package expensetype_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/core/datamodel"
	projectDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/project"
	transactionDatamodel "github.com/frahmantamala/project-ledger/internal/core/datamodel/transaction"
	"github.com/frahmantamala/project-ledger/internal/expensetype"
	expenseTypePostgres "github.com/frahmantamala/project-ledger/internal/expensetype/postgres"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Expense Type Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	do := func(method, path string, body interface{}, userID int64) *httptest.ResponseRecorder {
		var payload []byte
		if body != nil {
			payload, _ = json.Marshal(body)
		}
		req := httptest.NewRequest(method, path, bytes.NewReader(payload))
		req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: userID}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(datamodel.Models()...)).To(Succeed())
		Expect(db.Create(&projectDatamodel.Project{ID: projectID, Name: "Bridge", CreatedBy: adminID}).Error).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := expensetype.NewService(expenseTypePostgres.NewExpenseTypeRepository(db), MockGate{}, "IDR", slogger)
		handler := expensetype.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Get("/expense-types", handler.List)
		router.Post("/expense-types", handler.Create)
		router.Get("/expense-types/classify", handler.Classify)
		router.Delete("/expense-types/{id}", handler.Deactivate)
		router.Get("/reports/expense-types", handler.Summary)
	})

	It("creates, lists and classifies", func() {
		w := do(http.MethodPost, "/expense-types", expensetype.CreateDTO{Name: "Cement", ProjectID: ptr(projectID)}, managerID)
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodPost, "/expense-types", expensetype.CreateDTO{Name: "cement", ProjectID: ptr(projectID)}, managerID)
		Expect(w.Code).To(Equal(http.StatusConflict))

		w = do(http.MethodGet, "/expense-types?project_id=7", nil, managerID)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list expensetype.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.ExpenseTypes).To(HaveLen(1))

		w = do(http.MethodGet, "/expense-types/classify?project_id=7&label=%20CEMENT", nil, managerID)
		var classified expensetype.ClassifyResponse
		Expect(json.NewDecoder(w.Body).Decode(&classified)).To(Succeed())
		Expect(classified.ExpenseType).To(Equal("Cement"))
	})

	It("answers 403 for a global type created by a manager", func() {
		w := do(http.MethodPost, "/expense-types", expensetype.CreateDTO{Name: "Fuel"}, managerID)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("deactivates with 204 then 404", func() {
		w := do(http.MethodPost, "/expense-types", expensetype.CreateDTO{Name: "Fuel"}, adminID)
		var created expensetype.ExpenseType
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		path := "/expense-types/" + strconv.FormatInt(created.ID, 10)
		Expect(do(http.MethodDelete, path, nil, adminID).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, path, nil, adminID).Code).To(Equal(http.StatusNotFound))
	})

	It("reports the expense summary", func() {
		fuel := "fuel"
		for _, amount := range []int64{300, 100} {
			Expect(db.Create(&transactionDatamodel.Transaction{
				Date: time.Now(), Type: transactionDatamodel.TypeExpense, Amount: amount,
				Description: "spend", ProjectID: ptr(projectID), ExpenseType: &fuel, CreatedBy: adminID,
			}).Error).To(Succeed())
		}
		do(http.MethodPost, "/expense-types", expensetype.CreateDTO{Name: "Fuel"}, adminID)

		w := do(http.MethodGet, "/reports/expense-types?project_id=7", nil, managerID)
		Expect(w.Code).To(Equal(http.StatusOK))
		var summary expensetype.Summary
		Expect(json.NewDecoder(w.Body).Decode(&summary)).To(Succeed())
		Expect(summary.Total).To(Equal(int64(400)))
		Expect(summary.Buckets).To(HaveLen(1))
		Expect(summary.Buckets[0].ExpenseType).To(Equal("Fuel"))
		Expect(summary.Buckets[0].Share).To(Equal("100.00"))
	})

	It("rejects a malformed project filter", func() {
		w := do(http.MethodGet, "/reports/expense-types?project_id=abc", nil, managerID)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
