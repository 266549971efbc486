package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/admin"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/db/migrations"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/email"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/infrastructure/seed"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/policy"
	http_handlers "github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/identity-service/internal/transport/http/router"
)

const bcryptCost = 12

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	NewPublisher func(rabbitURL, exchange string) (MailPublisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type MailPublisher interface {
	auth.Mailer
	Close() error
}

// userStore is what both services, the seeder and /readyz need from persistence.
type userStore interface {
	auth.UserRepo
	admin.MemberRepo
	EnsureRoles(ctx context.Context, names []string) error
	Ping(ctx context.Context) error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	checks := map[string]http_handlers.Pinger{}

	// 1) principal store
	var store userStore
	switch cfg.Store {
	case "memory":
		logger.Logger.Warn().Msg("using in-memory store; data is lost on restart")
		store = memory.NewUserRepo()
	default:
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return fail(err)
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBMigrate && deps.Migrate != nil {
			if err := deps.Migrate(context.Background(), db); err != nil {
				return fail(err)
			}
		}
		repo := postgres.NewUserRepo(db)
		store = repo
		checks["db"] = repo
	}

	// 2) redis (best-effort)
	var redisCli *redis.Client
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(context.Background()); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-memory tokens and local rate limits")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			checks["redis"] = c
		}
	}

	var tokens auth.PurposeTokenStore = memory.NewPurposeTokenStore()
	var limiter middleware.RateLimiter
	if redisCli != nil {
		tokens = redis.NewPurposeTokenStore(redisCli)
		limiter = redis.NewFixedWindowLimiter(redisCli)
	}

	// 3) mailer
	var mailer auth.Mailer
	switch cfg.Email.Transport {
	case "smtp":
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.Email.From,
			Timeout:  cfg.SMTP.Timeout,
			Insecure: cfg.SMTP.Insecure,
		}, logger.Logger)
	case "rabbitmq":
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if cfg.Env != "dev" {
				return fail(err)
			}
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; logging emails instead")
			mailer = email.NewLogSender(logger.Logger)
		} else {
			mailer = pub
			cleanupFns = append(cleanupFns, func() { _ = pub.Close() })
		}
	default:
		mailer = email.NewLogSender(logger.Logger)
	}

	// 4) security
	logger.Logger.Info().Str("issuer", cfg.JWT.Issuer).Msg("initializing jwt issuer")
	hasher := security.NewBcryptHasher(bcryptCost)
	issuer, err := security.NewJWTIssuer(cfg.JWT.Key, cfg.JWT.Issuer, cfg.SessionTTL())
	if err != nil {
		return fail(err)
	}

	// 5) roles always; default principals in dev only, elsewhere the super
	// admin alone when SUPER_ADMIN_PASSWORD is set
	roles := domain.DefaultRoleCatalog()
	if cfg.Env == "dev" {
		if err := seed.Run(context.Background(), store, hasher, roles, logger.Logger); err != nil {
			return fail(err)
		}
	} else {
		if err := store.EnsureRoles(context.Background(), roles.Names()); err != nil {
			return fail(err)
		}
		if cfg.SuperAdminPassword != "" {
			if err := seed.EnsureSuperAdmin(context.Background(), store, hasher, cfg.SuperAdminUserName, cfg.SuperAdminPassword, logger.Logger); err != nil {
				return fail(err)
			}
		} else {
			logger.Logger.Warn().Str("user_name", cfg.SuperAdminUserName).Msg("SUPER_ADMIN_PASSWORD not set; super admin is not provisioned")
		}
	}

	// 6) services
	auditLog := audit.New(logger.Logger)

	authSvc := auth.NewService(store, hasher, issuer, tokens, mailer, auth.Config{
		Links: auth.LinkConfig{
			ClientURL:         cfg.JWT.ClientURL,
			ConfirmEmailPath:  cfg.Email.ConfirmPath,
			ResetPasswordPath: cfg.Email.ResetPath,
			ApplicationName:   cfg.Email.ApplicationName,
		},
		ConfirmTokenTTL: cfg.ConfirmTokenTTL,
		ResetTokenTTL:   cfg.ResetTokenTTL,
	}).WithAudit(auditLog.Hook("auth"))

	adminSvc := admin.NewService(store, hasher, roles, admin.Config{
		SuperAdminUserName: cfg.SuperAdminUserName,
	}).WithAudit(auditLog.Hook("admin"))

	// 7) handlers + middleware
	policies := policy.DefaultCatalog(cfg.SuperAdminUserName)

	authMW := middleware.Auth(issuer, response.WriteError)
	adminMW := middleware.RequirePolicy(policies, policy.AdminMembersPolicy, response.WriteError)

	// Redis-backed fixed windows; without Redis the middleware limits per IP in process.
	rl := func(key string, limit int, window time.Duration) router.Middleware {
		return middleware.RateLimitFixedWindow(
			limiter,
			middleware.FixedWindowConfig{
				RouteKey: key,
				Limit:    limit,
				Window:   window,
			},
			response.WriteError,
		)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		CORSMW:      middleware.CORS(cfg.JWT.ClientURL),
		RequestIDMW: middleware.RequestID,
		MetricsMW:   middleware.Metrics,
		Metrics:     promhttp.Handler(),

		Health:   http_handlers.NewHealthHandler(checks),
		Account:  http_handlers.NewAccountHandler(authSvc),
		Admin:    http_handlers.NewAdminHandler(adminSvc),
		Practice: http_handlers.PracticeRoutes(),

		AuthMW:  authMW,
		AdminMW: adminMW,
		PolicyMW: func(name string) router.Middleware {
			return middleware.RequirePolicy(policies, name, response.WriteError)
		},
		RolesMW: func(roles ...string) router.Middleware {
			return middleware.RequireAnyRole(response.WriteError, roles...)
		},

		RLLogin:    rl("account.login", 10, time.Minute),
		RLRefresh:  rl("account.refresh", 30, time.Minute),
		RLRegister: rl("account.register", 5, time.Minute),
		RLEmail:    rl("account.email", 5, 10*time.Minute),
		RLAdmin:    rl("admin.actions", 60, time.Minute),
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    migrations.Up,
		NewRedis:   redis.New,
		NewPublisher: func(url, exchange string) (MailPublisher, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
