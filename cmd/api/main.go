package main

import (
	"errors"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"portal/internal/backend"
	"portal/internal/domain/accesscontrol"
	"portal/internal/domain/inventory"
	"portal/internal/domain/storage"
	"portal/internal/health"
	"portal/internal/identity"
	"portal/internal/mailer"
	"portal/internal/ratelimiter"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 10
	defaultEnabled := true

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil && parsedVal > 0 {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            time.Minute,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger(env string) (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel
	if env == "development" {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core).Sugar(), nil
}

func envInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("Invalid value for %s: %v", key, err)
	}
	return n
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

var version = "0.3.0"

//	@title			Portal API
//	@description	Operational JSON endpoints of the portal.

//	@contact.name	API Support

//	@BasePath	/api

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using process environment")
	}

	cfg := config{
		addr:    envOr("ADDR", ":8080"),
		env:     envOr("ENV", "development"),
		version: envOr("VERSION", version),
		siteURL: envOr("SITE_URL", "http://localhost:8080"),
		backend: backend.Config{
			URL:            os.Getenv("SUPABASE_URL"),
			AnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
			ServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
			JWTSecret:      os.Getenv("SUPABASE_JWT_SECRET"),
			JWTAudience:    "authenticated",
			DatabaseURL:    os.Getenv("DB_ADDR"),
			MaxConns:       int32(envInt("DB_MAX_CONNS", 10)),
			MaxIdleTime:    envOr("DB_MAX_IDLE_TIME", "15m"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
		},
		mail: mailConfig{
			host:      os.Getenv("SMTP_HOST"),
			port:      envInt("SMTP_PORT", 587),
			username:  os.Getenv("SMTP_USERNAME"),
			password:  os.Getenv("SMTP_PASSWORD"),
			fromEmail: os.Getenv("MAIL_FROM"),
		},
		cloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		hashidsSalt:   os.Getenv("HASHIDS_SALT"),
		rateLimiter:   LoadRateLimiterConfig(),
	}

	logger, err := NewLogger(cfg.env)
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Backend
	client, err := backend.New(cfg.backend)
	if err != nil {
		logger.Fatal(err)
	}
	defer client.Close()
	logger.Infow("backend client configured", "url", client.URL)

	policy, err := accesscontrol.NewPolicy(accesscontrol.RoutePolicy)
	if err != nil {
		logger.Fatal(err)
	}

	store := storage.NewContainer(client.DB)

	refs, err := inventory.NewRefs(cfg.hashidsSalt)
	if err != nil {
		logger.Fatal(err)
	}

	// Media CDN is optional; photo uploads answer 503 without it.
	var media mediaStore
	if cfg.cloudinaryURL != "" {
		cld, err := cloudinary.NewFromURL(cfg.cloudinaryURL)
		if err != nil {
			logger.Fatal(err)
		}
		media = &cloudinaryMedia{cld: cld}
	} else {
		logger.Warn("CLOUDINARY_URL not set, profile photo uploads disabled")
	}

	var mail mailer.Client
	smtp, err := mailer.NewSMTP(cfg.mail.host, cfg.mail.port, cfg.mail.username, cfg.mail.password, cfg.mail.fromEmail)
	switch {
	case errors.Is(err, mailer.ErrNotConfigured):
		logger.Warn("SMTP not configured, invitation emails will not be sent")
	case err != nil:
		logger.Fatal(err)
	default:
		mail = smtp
	}

	templates, err := newTemplateCache()
	if err != nil {
		logger.Fatal(err)
	}

	app := &application{
		config:    cfg,
		logger:    logger,
		identity:  identity.NewResolver(client.Sessions, store.AccessControl, logger),
		auth:      client.Auth,
		policy:    policy,
		store:     store,
		accounts:  store,
		health:    health.NewChecker(client, cfg.version),
		refs:      refs,
		media:     media,
		mailer:    mail,
		limiter:   ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame),
		templates: templates,
	}

	// Metrics collected http://localhost:8080/debug/vars
	expvar.NewString("version").Set(cfg.version)
	expvar.Publish("database", expvar.Func(func() any {
		s := client.DB.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
			"max_conns":      s.MaxConns(),
			"acquire_count":  s.AcquireCount(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
