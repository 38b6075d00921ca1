package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopledesk/internal/domain/appraisals"
	"peopledesk/internal/domain/attendance"
	"peopledesk/internal/domain/audit"
	"peopledesk/internal/domain/auth"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/domain/dashboard"
	"peopledesk/internal/domain/directory"
	"peopledesk/internal/domain/goals"
	"peopledesk/internal/domain/leave"
	"peopledesk/internal/domain/notifications"
	"peopledesk/internal/domain/payroll"
	"peopledesk/internal/domain/tickets"
	"peopledesk/internal/platform/config"
	"peopledesk/internal/platform/crypto"
	"peopledesk/internal/platform/db"
	"peopledesk/internal/platform/email"
	"peopledesk/internal/platform/metrics"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/handlers"
	"peopledesk/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// App owns the process-wide resources: the pool, the router and the
// metrics collector. Tests construct one against a throwaway database.
type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  chi.Router
	Metrics *metrics.Collector
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init encryption: %w", err)
	}

	app := &App{
		Config:  cfg,
		DB:      pool,
		Metrics: metrics.New(),
	}
	app.Router = app.buildRouter(cryptoSvc, email.New(cfg))
	return app, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func (a *App) buildRouter(cryptoSvc *crypto.Service, mailer email.Mailer) chi.Router {
	directoryStore := directory.NewStore(a.DB)
	calc := authz.NewCalculator(directoryStore)
	resolver := authz.NewResolver(directoryStore)

	authStore := auth.NewStore(a.DB)
	auditSvc := audit.New(a.DB)
	notifySvc := notifications.New(a.DB)

	authHandler := handlers.NewAuthHandler(authStore, cryptoSvc, mailer, a.Config.JWTSecret, a.Config.EmailFrom)
	goalsHandler := handlers.NewGoalsHandler(goals.NewStore(a.DB), calc, auditSvc, notifySvc)
	ticketsHandler := handlers.NewTicketsHandler(tickets.NewStore(a.DB), calc, auditSvc, notifySvc)
	appraisalsHandler := handlers.NewAppraisalsHandler(appraisals.NewStore(a.DB), calc, auditSvc)
	directoryHandler := handlers.NewDirectoryHandler(directoryStore, auditSvc)
	leaveHandler := handlers.NewLeaveHandler(leave.NewStore(a.DB), calc, auditSvc, notifySvc)
	attendanceHandler := handlers.NewAttendanceHandler(attendance.NewStore(a.DB), calc)
	payrollHandler := handlers.NewPayrollHandler(payroll.NewStore(a.DB), calc)
	dashboardHandler := handlers.NewDashboardHandler(dashboard.NewStore(a.DB), calc)
	notificationsHandler := handlers.NewNotificationsHandler(notifySvc)
	auditHandler := handlers.NewAuditHandler(auditSvc)

	limiter := middleware.NewRateLimiter(a.Config.RateLimitPerMinute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging(a.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))
	r.Use(limiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.DB.Ping(r.Context()); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		api.Success(w, map[string]string{"status": "ready"})
	})
	if a.Config.MetricsEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot())
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/password/forgot", authHandler.ForgotPassword)
		r.Post("/auth/password/reset", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(a.Config.JWTSecret, authStore))
			r.Use(middleware.RequirePrincipal(resolver))

			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/auth/refresh", authHandler.Refresh)
			r.Post("/auth/mfa/setup", authHandler.MFASetup)
			r.Post("/auth/mfa/enable", authHandler.MFAEnable)
			r.Post("/auth/mfa/disable", authHandler.MFADisable)

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", goalsHandler.List)
				r.Post("/", goalsHandler.Create)
				r.Get("/{id}", goalsHandler.Get)
				r.Put("/{id}", goalsHandler.Update)
				r.Delete("/{id}", goalsHandler.Delete)
				r.Post("/{id}/comments", goalsHandler.AddComment)
			})

			r.Route("/tickets", func(r chi.Router) {
				r.Get("/", ticketsHandler.List)
				r.Post("/", ticketsHandler.Create)
				r.Get("/{id}", ticketsHandler.Get)
				r.Put("/{id}", ticketsHandler.Update)
				r.Delete("/{id}", ticketsHandler.Delete)
				r.Post("/{id}/messages", ticketsHandler.AddMessage)
			})

			r.Route("/appraisals", func(r chi.Router) {
				r.Get("/", appraisalsHandler.List)
				r.Get("/{id}", appraisalsHandler.Get)
				r.Delete("/{id}", appraisalsHandler.Delete)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(authz.RoleAdmin, authz.RoleHR, authz.RoleTeamLead))
					r.Post("/", appraisalsHandler.Create)
					r.Put("/{id}", appraisalsHandler.Update)
				})
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", directoryHandler.ListUsers)
				r.Get("/{id}", directoryHandler.GetUser)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(authz.RoleAdmin, authz.RoleHR))
					r.Post("/", directoryHandler.CreateUser)
					r.Put("/{id}", directoryHandler.UpdateUser)
					r.Delete("/{id}", directoryHandler.DeactivateUser)
				})
			})

			r.Route("/departments", func(r chi.Router) {
				r.Get("/", directoryHandler.ListDepartments)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(authz.RoleAdmin, authz.RoleHR))
					r.Post("/", directoryHandler.CreateDepartment)
					r.Put("/{id}", directoryHandler.UpdateDepartment)
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Get("/", leaveHandler.List)
				r.Post("/", leaveHandler.Create)
				r.Get("/{id}", leaveHandler.Get)
				r.Delete("/{id}", leaveHandler.Delete)
				r.Post("/{id}/approve", leaveHandler.Approve)
				r.Post("/{id}/reject", leaveHandler.Reject)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", attendanceHandler.List)
				r.Post("/clock-in", attendanceHandler.ClockIn)
				r.Post("/clock-out", attendanceHandler.ClockOut)
			})

			r.Route("/payslips", func(r chi.Router) {
				r.Get("/", payrollHandler.List)
				r.Get("/{id}", payrollHandler.Get)
				r.Get("/{id}/pdf", payrollHandler.PDF)
			})

			r.Get("/dashboard", dashboardHandler.Summary)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationsHandler.List)
				r.Post("/{id}/read", notificationsHandler.MarkRead)
			})

			r.With(middleware.RequireRole(authz.RoleAdmin)).Get("/audit", auditHandler.List)
		})
	})

	return r
}

// Serve blocks until the listener fails or ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.Config.Addr,
		Handler: a.Router,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
