package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frahmantamala/project-ledger/internal/transport/middleware"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

const apiDoc = `openapi: 3.0.3
info:
  title: ledger
  version: "1"
servers:
  - url: /api/v1
paths:
  /api/v1/projects/{id}/deposit:
    post:
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
            minimum: 1
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [amount]
              properties:
                amount:
                  type: integer
                  format: int64
      responses:
        "201":
          description: ok
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusCreated)
})

var _ = Describe("RequestID", func() {
	It("generates a trace id and exposes it on the context", func() {
		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = middleware.TraceIDFromContext(r.Context())
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).NotTo(BeEmpty())
		Expect(rec.Header().Get(middleware.TraceIDHeader)).To(Equal(seen))
	})

	It("keeps an incoming trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		middleware.RequestID(ok).ServeHTTP(rec, req)
		Expect(rec.Header().Get(middleware.TraceIDHeader)).To(Equal("abc-123"))
	})

	It("is empty outside a request", func() {
		Expect(middleware.TraceIDFromContext(context.Background())).To(BeEmpty())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into an internal error envelope", func() {
		h := middleware.RecoveryMiddleware(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(ContainSubstring(`"code":"INTERNAL_ERROR"`))
		Expect(rec.Body.String()).NotTo(ContainSubstring("boom"))
	})
})

var _ = Describe("CORS", func() {
	It("answers preflight for an allowed origin", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
		req.Header.Set("Origin", "https://app.ledger.io")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		middleware.CORS("https://app.ledger.io, https://admin.ledger.io")(ok).ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.ledger.io"))
	})

	It("does not echo unknown origins", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		middleware.CORS("https://app.ledger.io")(ok).ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("allows any origin with a wildcard", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()
		middleware.CORS("*")(ok).ServeHTTP(rec, req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("filters sensitive fields from logged bodies", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))
		h := middleware.LoggingMiddleware(lg)(ok)

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":100,"password":"hunter2"}`))
		req.Header.Set("Authorization", "Bearer secret-token")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(buf.String()).To(ContainSubstring("[FILTERED]"))
		Expect(buf.String()).NotTo(ContainSubstring("hunter2"))
		Expect(buf.String()).NotTo(ContainSubstring("secret-token"))
		Expect(buf.String()).To(ContainSubstring(`"status_code":201`))
	})

	It("masks beneficiary names and grant reasons but keeps amounts", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))
		h := middleware.LoggingMiddleware(lg)(ok)

		body := `{"beneficiary_name":"CV Baja Makmur","total_amount":90000,"reason":"site audit for Budi"}`
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

		Expect(buf.String()).NotTo(ContainSubstring("Baja Makmur"))
		Expect(buf.String()).NotTo(ContainSubstring("Budi"))
		Expect(buf.String()).To(ContainSubstring("90000"))
	})

	It("tags both log lines with the trace id of the request", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))
		h := middleware.RequestID(middleware.LoggingMiddleware(lg)(ok))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceIDHeader, "trace-42")
		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(strings.Count(buf.String(), `"trace_id":"trace-42"`)).To(Equal(2))
	})

	It("reports the full response size while logging a capped body", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))
		large := strings.Repeat("x", 10_000)
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(large))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Body.Len()).To(Equal(10_000))
		Expect(buf.String()).To(ContainSubstring(`"response_size":10000`))
		Expect(buf.String()).NotTo(ContainSubstring(large))
	})
})

var _ = Describe("OpenAPIValidator", func() {
	var router *chi.Mux

	BeforeEach(func() {
		path := filepath.Join(GinkgoT().TempDir(), "openapi.yml")
		Expect(os.WriteFile(path, []byte(apiDoc), 0o600)).To(Succeed())

		doc, err := middleware.LoadOpenAPI(context.Background(), path)
		Expect(err).NotTo(HaveOccurred())
		validate, err := middleware.OpenAPIValidator(doc, quietLogger())
		Expect(err).NotTo(HaveOccurred())

		router = chi.NewRouter()
		router.Use(validate)
		router.Post("/api/v1/projects/{id}/deposit", ok)
		router.Get("/api/v1/undocumented", ok)
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("passes a conforming request", func() {
		Expect(post("/api/v1/projects/7/deposit", `{"amount":5000}`).Code).To(Equal(http.StatusCreated))
	})

	It("rejects a body missing a required field", func() {
		rec := post("/api/v1/projects/7/deposit", `{}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
	})

	It("rejects a malformed path parameter", func() {
		Expect(post("/api/v1/projects/abc/deposit", `{"amount":1}`).Code).To(Equal(http.StatusBadRequest))
	})

	It("lets undocumented routes through", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/undocumented", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})

	It("fails to load a missing document", func() {
		_, err := middleware.LoadOpenAPI(context.Background(), "/nonexistent/openapi.yml")
		Expect(err).To(HaveOccurred())
	})
})
