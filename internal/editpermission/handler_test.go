package editpermission_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/editpermission"
	editPostgres "github.com/frahmantamala/project-ledger/internal/editpermission/postgres"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type adminOnly struct{}

func (adminOnly) CanGrantEditPermissions(ctx context.Context, userID int64) (bool, error) {
	return userID == adminID, nil
}

var _ = Describe("Edit Permission Handler Integration", func() {
	var router *chi.Mux

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
		db := openDB()
		clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := editpermission.NewService(editPostgres.NewEditPermissionRepository(db), nil, slogger, editpermission.WithClock(clock.Now))
		handler := editpermission.NewHandler(&transport.BaseHandler{Logger: slogger}, service, adminOnly{})

		router = chi.NewRouter()
		router.Post("/edit-permissions", handler.Grant)
		router.Get("/edit-permissions", handler.ListActive)
		router.Get("/edit-permissions/check", handler.Check)
		router.Delete("/edit-permissions/{id}", handler.Revoke)
	})

	It("creates with 201 and toggles off with 200", func() {
		w := do(http.MethodPost, "/edit-permissions", editpermission.GrantDTO{UserID: ptr(memberID)}, adminID)
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodPost, "/edit-permissions", editpermission.GrantDTO{UserID: ptr(memberID)}, adminID)
		Expect(w.Code).To(Equal(http.StatusOK))
		var result editpermission.GrantResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Toggled).To(BeTrue())
	})

	It("answers 400 for a grant without a target", func() {
		w := do(http.MethodPost, "/edit-permissions", editpermission.GrantDTO{}, adminID)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_TARGET"))
	})

	It("answers 403 when the caller may not grant", func() {
		w := do(http.MethodPost, "/edit-permissions", editpermission.GrantDTO{UserID: ptr(memberID)}, memberID)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("answers 404 when revoking a dead grant", func() {
		w := do(http.MethodDelete, "/edit-permissions/999", nil, adminID)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("PERMISSION_NOT_FOUND_OR_INACTIVE"))
	})

	It("reports absence as has_permission=false", func() {
		w := do(http.MethodGet, "/edit-permissions/check?project_id=7", nil, memberID)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp editpermission.CheckResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.HasPermission).To(BeFalse())

		do(http.MethodPost, "/edit-permissions", editpermission.GrantDTO{ProjectID: ptr(projectID)}, adminID)
		w = do(http.MethodGet, "/edit-permissions/check?project_id=7", nil, memberID)
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.HasPermission).To(BeTrue())
	})
})
