package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/project-ledger/internal/auth"
	"github.com/frahmantamala/project-ledger/internal/deferred"
	"github.com/frahmantamala/project-ledger/internal/editpermission"
	"github.com/frahmantamala/project-ledger/internal/expensetype"
	"github.com/frahmantamala/project-ledger/internal/fund"
	"github.com/frahmantamala/project-ledger/internal/project"
	"github.com/frahmantamala/project-ledger/internal/transaction"
	"github.com/frahmantamala/project-ledger/internal/transport/middleware"
	"github.com/frahmantamala/project-ledger/internal/transport/swagger"
	"github.com/frahmantamala/project-ledger/internal/user"
	"github.com/go-chi/chi"
)

// Handlers bundles everything the router mounts. Nil handlers leave their
// routes unregistered.
type Handlers struct {
	Health         *HealthHandler
	Auth           *auth.Handler
	RBAC           *auth.RBACAuthorization
	User           *user.Handler
	Project        *project.Handler
	Fund           *fund.Handler
	Transaction    *transaction.Handler
	Deferred       *deferred.Handler
	EditPermission *editpermission.Handler
	ExpenseType    *expensetype.Handler
}

type Options struct {
	AllowedOrigins  string
	OpenAPISpecPath string
	// RequestValidator is the kin-openapi middleware; nil disables validation.
	RequestValidator func(http.Handler) http.Handler
	MetricsPath      string
	Metrics          http.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	specPath := opts.OpenAPISpecPath
	if specPath == "" {
		specPath = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, specPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	if opts.Metrics != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, opts.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.RequestValidator != nil {
			r.Use(opts.RequestValidator)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil || h.RBAC == nil {
			return
		}
		rbac := h.RBAC

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			pr.Route("/projects", func(rr chi.Router) {
				if h.Project != nil {
					rr.Get("/", h.Project.List)
					rr.With(rbac.RequireAdmin()).Post("/", h.Project.Create)
					rr.Get("/{id}", h.Project.Get)
					rr.Get("/{id}/assignments", h.Project.ListAssignments)
					rr.With(rbac.RequireManager()).Post("/{id}/assignments", h.Project.Assign)
					rr.With(rbac.RequireManager()).Delete("/{id}/assignments/{userID}", h.Project.Unassign)
					rr.With(rbac.RequireAdmin()).Delete("/{id}/fund", h.Project.DeleteFund)
				}
				if h.Fund != nil {
					rr.Get("/{id}/fund", h.Fund.GetProjectFund)
					rr.Get("/{id}/ledger", h.Fund.GetProjectLedger)
					rr.Post("/{id}/deposit", h.Fund.Deposit)
					rr.Post("/{id}/withdraw", h.Fund.Withdraw)
				}
			})

			if h.Fund != nil {
				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Get("/funds/admin", h.Fund.GetAdminFund)
					ar.Post("/admin/transactions", h.Fund.AdminTransaction)
				})
			}

			if h.Transaction != nil {
				pr.Route("/transactions", func(tr chi.Router) {
					tr.Get("/", h.Transaction.List)
					tr.Get("/{id}", h.Transaction.Get)
					tr.Patch("/{id}", h.Transaction.Update)
					tr.Post("/{id}/archive", h.Transaction.Archive)
				})
			}

			if h.Deferred != nil {
				pr.Route("/deferred-payments", func(dr chi.Router) {
					dr.Post("/", h.Deferred.Create)
					dr.Get("/", h.Deferred.List)
					dr.Get("/{id}", h.Deferred.Get)
					dr.Post("/{id}/installments", h.Deferred.PayInstallment)
				})
			}

			if h.EditPermission != nil {
				pr.Route("/edit-permissions", func(er chi.Router) {
					er.Get("/check", h.EditPermission.Check)
					er.Group(func(mr chi.Router) {
						mr.Use(rbac.RequireManager())
						mr.Post("/", h.EditPermission.Grant)
						mr.Get("/", h.EditPermission.ListActive)
						mr.Delete("/{id}", h.EditPermission.Revoke)
					})
				})
			}

			if h.ExpenseType != nil {
				pr.Route("/expense-types", func(xr chi.Router) {
					xr.Get("/", h.ExpenseType.List)
					xr.Post("/", h.ExpenseType.Create)
					xr.Get("/classify", h.ExpenseType.Classify)
					xr.With(rbac.RequireManager()).Delete("/{id}", h.ExpenseType.Deactivate)
				})
				pr.With(rbac.RequireManager()).Get("/reports/expense-types", h.ExpenseType.Summary)
			}
		})
	})
}
