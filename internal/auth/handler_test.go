package auth_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/auth"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type stubAuthenticator struct {
	principals map[string]*internal.User
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	switch token {
	case "expired":
		return nil, internal.ErrTokenExpired
	case "inactive":
		return nil, internal.ErrUserInactive
	}
	if p, ok := s.principals[token]; ok {
		return p, nil
	}
	return nil, internal.ErrInvalidToken
}

var _ = ginkgo.Describe("Auth middleware", func() {
	var router *chi.Mux

	ginkgo.BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base := transport.NewBaseHandler(slogger)
		h := auth.NewHandler(base, &stubAuthenticator{principals: map[string]*internal.User{
			"admin-token":   {ID: 1, Role: "admin"},
			"manager-token": {ID: 2, Role: "manager"},
			"viewer-token":  {ID: 3, Role: "viewer"},
		}})
		rbac := auth.NewRBACAuthorization(base)

		whoami := func(w http.ResponseWriter, r *http.Request) {
			u, _ := internal.UserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(u.Role))
		}

		router = chi.NewRouter()
		router.Use(h.AuthMiddleware)
		router.Get("/me", whoami)
		router.With(rbac.RequireAdmin()).Get("/admin", whoami)
		router.With(rbac.RequireManager()).Get("/manage", whoami)
	})

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("puts the principal on the context", func() {
		rec := do("/me", "viewer-token")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.Equal("viewer"))
	})

	ginkgo.It("answers 401 for missing, invalid and expired tokens", func() {
		gomega.Expect(do("/me", "").Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(do("/me", "garbage").Code).To(gomega.Equal(http.StatusUnauthorized))

		rec := do("/me", "expired")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("TOKEN_EXPIRED"))
	})

	ginkgo.It("answers 403 for inactive users", func() {
		rec := do("/me", "inactive")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("USER_INACTIVE"))
	})

	ginkgo.Describe("role gates", func() {
		ginkgo.It("lets only admins through RequireAdmin", func() {
			gomega.Expect(do("/admin", "admin-token").Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(do("/admin", "manager-token").Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("lets admins and managers through RequireManager", func() {
			gomega.Expect(do("/manage", "admin-token").Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(do("/manage", "manager-token").Code).To(gomega.Equal(http.StatusOK))

			rec := do("/manage", "viewer-token")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("UNAUTHORIZED_ACCESS"))
		})
	})

	ginkgo.It("reports role membership", func() {
		gomega.Expect(auth.HasAnyRole(&internal.User{Role: "manager"}, "admin", "manager")).To(gomega.BeTrue())
		gomega.Expect(auth.HasAnyRole(nil, "admin")).To(gomega.BeFalse())
	})
})
