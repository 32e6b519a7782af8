package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/project-ledger/internal"
	"github.com/frahmantamala/project-ledger/internal/access"
	accessPostgres "github.com/frahmantamala/project-ledger/internal/access/postgres"
	"github.com/frahmantamala/project-ledger/internal/auth"
	"github.com/frahmantamala/project-ledger/internal/core/events"
	"github.com/frahmantamala/project-ledger/internal/core/metrics"
	"github.com/frahmantamala/project-ledger/internal/deferred"
	deferredPostgres "github.com/frahmantamala/project-ledger/internal/deferred/postgres"
	"github.com/frahmantamala/project-ledger/internal/editpermission"
	editpermissionPostgres "github.com/frahmantamala/project-ledger/internal/editpermission/postgres"
	"github.com/frahmantamala/project-ledger/internal/expensetype"
	expensetypePostgres "github.com/frahmantamala/project-ledger/internal/expensetype/postgres"
	"github.com/frahmantamala/project-ledger/internal/fund"
	fundPostgres "github.com/frahmantamala/project-ledger/internal/fund/postgres"
	"github.com/frahmantamala/project-ledger/internal/project"
	projectPostgres "github.com/frahmantamala/project-ledger/internal/project/postgres"
	"github.com/frahmantamala/project-ledger/internal/transaction"
	transactionPostgres "github.com/frahmantamala/project-ledger/internal/transaction/postgres"
	"github.com/frahmantamala/project-ledger/internal/transport"
	"github.com/frahmantamala/project-ledger/internal/transport/middleware"
	"github.com/frahmantamala/project-ledger/internal/transport/rest"
	"github.com/frahmantamala/project-ledger/internal/user"
	userPostgres "github.com/frahmantamala/project-ledger/internal/user/postgres"
	"github.com/frahmantamala/project-ledger/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server and the edit permission expiry sweeper`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

var version = "dev"

type Dependencies struct {
	Config  *internal.Config
	DB      *sqlx.DB
	Gorm    *gorm.DB
	Router  *chi.Mux
	Bus     *events.EventBus
	Metrics *metrics.Ledger
	Sweeper *editpermission.Sweeper
	Logger  *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		deps.Bus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Logger.Info("Starting HTTP server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return deps.Sweeper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, gormDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	publicKey, err := config.Security.GetPublicKey()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load jwt public key: %w", err)
	}

	ledgerCfg := config.Ledger.WithDefaults()
	policy, err := deferred.ParsePolicy(ledgerCfg.OverpaymentPolicy)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	bus := events.NewEventBus(lg)
	ledgerMetrics := metrics.NewLedger()
	ledgerMetrics.Subscribe(bus)

	// services
	editSvc := editpermission.NewService(
		editpermissionPostgres.NewEditPermissionRepository(gormDB), bus, lg,
		editpermission.WithWindow(ledgerCfg.EditWindow),
	)
	gate := access.NewGate(accessPostgres.NewAccessRepository(gormDB), editSvc, access.Options{
		ManagersCanGrantEdit: ledgerCfg.ManagersCanGrantEdit,
	}, lg)
	userSvc := user.NewService(userPostgres.NewUserRepository(gormDB), lg)
	authSvc := auth.NewService(auth.NewJWTValidator(publicKey, config.Security.JWTIssuer), userSvc, lg)
	fundSvc := fund.NewService(fundPostgres.NewFundRepository(gormDB), gate, bus, ledgerCfg.Currency, lg)
	typeSvc := expensetype.NewService(expensetypePostgres.NewExpenseTypeRepository(gormDB), gate, ledgerCfg.Currency, lg)
	deferredSvc := deferred.NewService(deferredPostgres.NewDeferredPaymentRepository(gormDB), gate, typeSvc, fundSvc, bus, policy, lg)
	projectSvc := project.NewService(projectPostgres.NewProjectRepository(gormDB), gate, lg)
	transactionSvc := transaction.NewService(transactionPostgres.NewTransactionRepository(gormDB), gate, lg)

	sweeper, err := editpermission.NewSweeper(editSvc, ledgerCfg.SweepSchedule, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// handlers
	base := transport.NewBaseHandler(lg)
	handlers := rest.Handlers{
		Health:         rest.NewHealthHandler(db, version),
		Auth:           auth.NewHandler(base, authSvc),
		RBAC:           auth.NewRBACAuthorization(base),
		User:           user.NewHandler(base, userSvc),
		Project:        project.NewHandler(base, projectSvc),
		Fund:           fund.NewHandler(base, fundSvc),
		Transaction:    transaction.NewHandler(base, transactionSvc),
		Deferred:       deferred.NewHandler(base, deferredSvc),
		EditPermission: editpermission.NewHandler(base, editSvc, gate),
		ExpenseType:    expensetype.NewHandler(base, typeSvc),
	}

	opts := rest.Options{
		AllowedOrigins:  config.Server.AllowedOrigins,
		OpenAPISpecPath: config.Server.OpenAPISpecPath,
	}
	if config.Observability.Metrics.Enabled {
		opts.MetricsPath = config.Observability.Metrics.Path
		opts.Metrics = ledgerMetrics.Handler()
	}
	if config.Server.OpenAPISpecPath != "" {
		doc, err := middleware.LoadOpenAPI(context.Background(), config.Server.OpenAPISpecPath)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		validator, err := middleware.OpenAPIValidator(doc, lg)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		opts.RequestValidator = validator
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers, opts, lg)

	return &Dependencies{
		Config:  config,
		DB:      db,
		Gorm:    gormDB,
		Router:  router,
		Bus:     bus,
		Metrics: ledgerMetrics,
		Sweeper: sweeper,
		Logger:  lg,
	}, nil
}
