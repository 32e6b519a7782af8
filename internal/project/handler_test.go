package project_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/project"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	err          error
	lastLimit    int
	lastOffset   int
	lastAssignee int64
}

func (s *stubService) Create(ctx context.Context, userID int64, dto project.CreateDTO) (*project.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &project.Project{ID: 9, Name: dto.Name, Budget: dto.Budget}, nil
}

func (s *stubService) List(ctx context.Context, userID int64, limit, offset int) ([]*project.Project, error) {
	s.lastLimit, s.lastOffset = limit, offset
	return []*project.Project{{ID: 1, Name: "Bridge"}}, s.err
}

func (s *stubService) Get(ctx context.Context, userID, projectID int64) (*project.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &project.Project{ID: projectID, Name: "Bridge"}, nil
}

func (s *stubService) Assign(ctx context.Context, userID, projectID int64, dto project.AssignDTO) (*project.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &project.Assignment{UserID: dto.UserID, ProjectID: projectID, AssignedBy: userID}, nil
}

func (s *stubService) Unassign(ctx context.Context, userID, projectID, assigneeID int64) error {
	s.lastAssignee = assigneeID
	return s.err
}

func (s *stubService) ListAssignments(ctx context.Context, userID, projectID int64) ([]*project.Assignment, error) {
	return nil, s.err
}

func (s *stubService) DeleteFund(ctx context.Context, userID, projectID int64) error {
	return s.err
}

var _ = Describe("Project Handler", func() {
	var (
		stub   *stubService
		router *chi.Mux
	)

	do := func(method, path, body string, authed bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		if authed {
			req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: adminID, Role: "admin"}))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		stub = &stubService{}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := project.NewHandler(&transport.BaseHandler{Logger: slogger}, stub)
		router = chi.NewRouter()
		router.Post("/projects", handler.Create)
		router.Get("/projects", handler.List)
		router.Get("/projects/{id}", handler.Get)
		router.Post("/projects/{id}/assignments", handler.Assign)
		router.Delete("/projects/{id}/assignments/{userID}", handler.Unassign)
		router.Delete("/projects/{id}/fund", handler.DeleteFund)
	})

	It("creates a project and answers 201", func() {
		w := do(http.MethodPost, "/projects", `{"name":"Tower","budget":500000}`, true)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var p project.Project
		Expect(json.Unmarshal(w.Body.Bytes(), &p)).To(Succeed())
		Expect(p.Name).To(Equal("Tower"))
		Expect(p.Budget).To(Equal(int64(500000)))
	})

	It("rejects an unauthenticated request with 401", func() {
		w := do(http.MethodGet, "/projects", "", false)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a malformed body with 400", func() {
		w := do(http.MethodPost, "/projects", `{"name":`, true)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("passes bounded pagination through to the service", func() {
		w := do(http.MethodGet, "/projects?limit=500&offset=20", "", true)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(stub.lastLimit).To(Equal(50))
		Expect(stub.lastOffset).To(Equal(20))
	})

	It("rejects a non-numeric project id", func() {
		w := do(http.MethodGet, "/projects/abc", "", true)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps a missing project to 404", func() {
		stub.err = internal.ErrProjectNotFound
		w := do(http.MethodGet, "/projects/42", "", true)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("PROJECT_NOT_FOUND"))
	})

	It("answers 201 with the assignment", func() {
		w := do(http.MethodPost, "/projects/7/assignments", `{"user_id":3}`, true)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var a project.Assignment
		Expect(json.Unmarshal(w.Body.Bytes(), &a)).To(Succeed())
		Expect(a.ProjectID).To(Equal(int64(7)))
		Expect(a.UserID).To(Equal(memberID))
	})

	It("unassigns with 204", func() {
		w := do(http.MethodDelete, "/projects/7/assignments/3", "", true)
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(stub.lastAssignee).To(Equal(memberID))
	})

	It("answers 409 when the fund still holds money", func() {
		stub.err = internal.ErrFundNotEmpty
		w := do(http.MethodDelete, "/projects/7/fund", "", true)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("FUND_NOT_EMPTY"))
	})
})
