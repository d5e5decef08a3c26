package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/supporthub/internal/accounts"
	"github.com/geocoder89/supporthub/internal/dashboard"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/geocoder89/supporthub/internal/http/handlers"
	"github.com/geocoder89/supporthub/internal/http/middlewares"
	"github.com/geocoder89/supporthub/internal/inbox"
	"github.com/geocoder89/supporthub/internal/ledger"
	"github.com/geocoder89/supporthub/internal/moderation"
	"github.com/geocoder89/supporthub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router wires into handlers. Prom, Gatherer and
// Checks are optional.
type Deps struct {
	Log        *slog.Logger
	Accounts   *accounts.Service
	Moderation *moderation.Engine
	Ledger     *ledger.Ledger
	Dashboard  *dashboard.Service
	Inbox      *inbox.Service

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Check

	ServiceName        string
	Tracing            bool
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	MaxBodyBytes       int64
	HSTS               bool

	// RateLimitRedis, when set, makes rate limits shared across instances.
	RateLimitRedis *redis.Client
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if d.Tracing {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.HSTS))
	r.Use(middlewares.CORSMiddleware(d.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.Accounts)

	// credential endpoints get a tighter per-IP budget
	loginLimiter := newLimiter(d, "login")
	writeLimiter := newLimiter(d, "write")

	authHandler := handlers.NewAuthHandler(d.Accounts)
	testimonialsHandler := handlers.NewTestimonialsHandler(d.Moderation)
	donationsHandler := handlers.NewDonationsHandler(d.Ledger)
	categoriesHandler := handlers.NewCategoriesHandler(d.Ledger)
	usersHandler := handlers.NewUsersHandler(d.Accounts)
	dashboardHandler := handlers.NewDashboardHandler(d.Dashboard)
	contactHandler := handlers.NewContactHandler(d.Inbox)

	// auth
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
		authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
		authGroup.POST("/logout", authMW.RequireAuth(), authHandler.Logout)
		authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)
	}

	// public testimonials; edits and deletes stay admin-only
	r.GET("/testimonials", testimonialsHandler.List)
	r.POST("/testimonials", writeLimiter.RateLimiterMiddleware(middlewares.KeyByIP), testimonialsHandler.Submit)
	r.GET("/testimonials/:id", testimonialsHandler.Show)
	r.PUT("/testimonials/:id", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin), testimonialsHandler.Update)
	r.DELETE("/testimonials/:id", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin), testimonialsHandler.Delete)

	// donations
	r.GET("/donations", donationsHandler.List)
	r.POST("/donations",
		authMW.OptionalAuth(),
		writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
		donationsHandler.Create,
	)
	r.GET("/donation-categories", categoriesHandler.List)
	r.GET("/donation-categories/:id", categoriesHandler.Show)

	r.POST("/contact", writeLimiter.RateLimiterMiddleware(middlewares.KeyByIP), contactHandler.Send)

	// admin
	r.POST("/admin/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.AdminLogin)

	admin := r.Group("/admin", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin))
	{
		admin.POST("/logout", authHandler.Logout)
		admin.GET("/statistics", dashboardHandler.Statistics)

		admin.GET("/users", usersHandler.List)
		admin.GET("/users/search", usersHandler.Search)
		admin.GET("/users/:id", usersHandler.Show)
		admin.PUT("/users/:id/role", usersHandler.UpdateRole)
		admin.DELETE("/users/:id", usersHandler.Delete)

		admin.GET("/donations", donationsHandler.AdminList)
		admin.GET("/donations/stats/summary", donationsHandler.Stats)
		admin.GET("/donations/export/csv", donationsHandler.ExportCSV)
		admin.GET("/donations/:id", donationsHandler.AdminShow)
		admin.PUT("/donations/:id/status", donationsHandler.UpdateStatus)
		admin.DELETE("/donations/:id", donationsHandler.Delete)

		admin.POST("/donation-categories", categoriesHandler.Create)
		admin.PUT("/donation-categories/:id", categoriesHandler.Update)
		admin.DELETE("/donation-categories/:id", categoriesHandler.Delete)

		admin.GET("/testimonials", testimonialsHandler.AdminList)
		admin.GET("/testimonials/pending/all", testimonialsHandler.Pending)
		admin.GET("/testimonials/stats/summary", testimonialsHandler.Stats)
		admin.GET("/testimonials/:id", testimonialsHandler.AdminShow)
		admin.PUT("/testimonials/:id", testimonialsHandler.Update)
		admin.PUT("/testimonials/:id/approve", testimonialsHandler.Approve)
		admin.PUT("/testimonials/:id/reject", testimonialsHandler.Reject)
		admin.DELETE("/testimonials/:id", testimonialsHandler.Delete)

		admin.GET("/contact-messages", contactHandler.List)
		admin.GET("/contact-messages/:id", contactHandler.Show)
		admin.PUT("/contact-messages/:id", contactHandler.Update)
		admin.PUT("/contact-messages/:id/approve", contactHandler.Approve)
		admin.PUT("/contact-messages/:id/reject", contactHandler.Reject)
		admin.DELETE("/contact-messages/:id", contactHandler.Delete)
	}

	return r
}

func newLimiter(d Deps, name string) *middlewares.RateLimiter {
	if d.RateLimitRedis != nil {
		return middlewares.NewSharedRateLimiter(d.RateLimitRedis, name, d.RateLimitPerMinute, time.Minute)
	}
	return middlewares.NewRateLimiter(d.RateLimitPerMinute, time.Minute)
}
