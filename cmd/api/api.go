package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"portal/docs" //this is required to generate swagger docs
	"portal/internal/backend"
	"portal/internal/domain/accesscontrol"
	"portal/internal/domain/inventory"
	"portal/internal/domain/storage"
	"portal/internal/health"
	"portal/internal/identity"
	"portal/internal/mailer"
	"portal/internal/ratelimiter"
)

type identityResolver interface {
	Resolve(ctx context.Context, token string) identity.Identity
}

type healthChecker interface {
	Run(ctx context.Context) health.Report
}

type accountProvisioner interface {
	WithAccountTx(ctx context.Context, fn func(s *storage.AccountTx) error) error
}

type application struct {
	config    config
	logger    *zap.SugaredLogger
	identity  identityResolver
	auth      authService
	policy    *accesscontrol.Policy
	store     *storage.Container
	accounts  accountProvisioner
	health    healthChecker
	refs      *inventory.Refs
	media     mediaStore
	mailer    mailer.Client
	limiter   ratelimiter.Limiter
	templates templateCache
	wg        sync.WaitGroup
}

type config struct {
	addr          string
	env           string
	version       string
	siteURL       string
	backend       backend.Config
	auth          authConfig
	mail          mailConfig
	cloudinaryURL string
	hashidsSalt   string
	rateLimiter   ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func (c config) production() bool {
	return c.env == "production"
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(app.recoverPanic)
	r.Use(app.securityHeaders(defaultPageCSP()))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*", "http://*"},
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300, // Maximum value not ignored by any of major browsers
		}))
		r.Get("/health", app.healthCheckHandler)
		r.Get("/get-ip", app.getIPHandler)
	})

	r.With(app.securityHeaders(swaggerCSP())).Get("/v1/swagger/*", httpSwagger.Handler(httpSwagger.URL("/v1/swagger/doc.json")))
	r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(app.authenticate)

		r.Get("/", app.homeHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", app.loginPageHandler)
			r.With(app.rateLimit).Post("/login", app.loginHandler)
			r.Get("/sign-up", app.signUpPageHandler)
			r.With(app.rateLimit).Post("/sign-up", app.signUpHandler)
			r.Get("/reset-password", app.resetPasswordPageHandler)
			r.With(app.rateLimit).Post("/reset-password", app.resetPasswordHandler)
			r.Get("/update-password", app.updatePasswordPageHandler)
			r.Post("/update-password", app.updatePasswordHandler)
			r.Get("/setup-account", app.setupAccountPageHandler)
			r.Post("/setup-account", app.setupAccountHandler)
			r.Post("/logout", app.logoutHandler)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", app.dashboardHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.requireAccess(accesscontrol.ResourceInventory))
				r.Get("/inventory", app.inventoryPageHandler)
				r.Post("/inventory/{ref}/adjust", app.adjustInventoryHandler)
			})
			r.With(app.requireAccess(accesscontrol.ResourceReports)).Get("/reports", app.reportsPageHandler)
			r.With(app.requireAccess(accesscontrol.ResourceSchedule)).Get("/schedule", app.schedulePageHandler)
			r.With(app.requireAccess(accesscontrol.ResourceStaff)).Get("/staff", app.staffPageHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.requireAccess(accesscontrol.ResourceProfile))
				r.Get("/profile", app.profilePageHandler)
				r.Post("/profile", app.updateProfileHandler)
				r.Post("/profile/photo", app.uploadProfilePhotoHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(app.requireAccess(accesscontrol.ResourceAdminUsers))
				r.Get("/admin/users", app.adminUsersPageHandler)
				r.Get("/admin/users/create", app.adminCreateUserPageHandler)
				r.Post("/admin/users/create", app.adminCreateUserHandler)
			})
			r.Group(func(r chi.Router) {
				r.Use(app.requireAccess(accesscontrol.ResourceAdminLocations))
				r.Get("/admin/locations", app.adminLocationsPageHandler)
				r.Post("/admin/locations", app.adminCreateLocationHandler)
				r.Post("/admin/locations/{locationID}/active", app.adminSetLocationActiveHandler)
			})

			r.Get("/{role}", app.roleDashboardHandler)
		})

		r.With(app.requireAccess(accesscontrol.ResourceAdminMonitoring)).Get("/admin/monitoring", app.monitoringPageHandler)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.renderError(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = app.config.version
	docs.SwaggerInfo.BasePath = "/api"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		err := srv.Shutdown(ctx)

		app.logger.Infow("waiting for background tasks", "addr", app.config.addr)
		app.wg.Wait()

		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
