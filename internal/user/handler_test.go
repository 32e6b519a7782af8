package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/frahmantamala/project-ledger/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	users map[int64]*user.User
}

func (s *stubService) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

var _ = Describe("User Handler", func() {
	var router *chi.Mux

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc := &stubService{users: map[int64]*user.User{
			7: {ID: 7, Email: "member@ledger.io", Role: "user", IsActive: true, Permissions: []string{"reports.read"}},
		}}
		h := user.NewHandler(transport.NewBaseHandler(slogger), svc)
		router = chi.NewRouter()
		router.Get("/users/me", h.GetCurrentUser)
	})

	serve := func(principal *internal.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if principal != nil {
			req = req.WithContext(internal.ContextWithUser(req.Context(), principal))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("returns the current user", func() {
		rec := serve(&internal.User{ID: 7})
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body user.User
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Email).To(Equal("member@ledger.io"))
		Expect(body.Permissions).To(ConsistOf("reports.read"))
	})

	It("answers 401 without a principal", func() {
		rec := serve(nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 404 when the principal no longer exists", func() {
		rec := serve(&internal.User{ID: 8})
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("USER_NOT_FOUND"))
	})
})
