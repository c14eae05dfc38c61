package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ridegearhq/ridegear-backend/api/controllers"
	"github.com/ridegearhq/ridegear-backend/api/middleware"
	"github.com/ridegearhq/ridegear-backend/internal/auth"
	"github.com/ridegearhq/ridegear-backend/internal/cart"
	"github.com/ridegearhq/ridegear-backend/internal/catalog"
	"github.com/ridegearhq/ridegear-backend/internal/orders"
	"github.com/ridegearhq/ridegear-backend/internal/users"
	"github.com/ridegearhq/ridegear-backend/internal/wishlist"
	"github.com/ridegearhq/ridegear-backend/pkg/auth/session"
	"github.com/ridegearhq/ridegear-backend/pkg/config"
	"github.com/ridegearhq/ridegear-backend/pkg/enums"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
	"github.com/ridegearhq/ridegear-backend/pkg/metrics"
	"github.com/ridegearhq/ridegear-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	HTTPMetrics    *metrics.HTTP
	Registry       *prometheus.Registry

	AuthService     auth.Service
	RegisterService auth.RegisterService
	CatalogService  catalog.Service
	CartService     cart.Service
	WishlistService wishlist.Service
	OrdersService   orders.Service
	UsersService    users.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/verify-email", controllers.AuthVerifyEmail(deps.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.SessionManager, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(deps.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AdminAuthLogin(deps.AuthService, logg))
	})

	// Storefront surface. Checkout and payment verification stay public so
	// guests can order without an account.
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.CatalogService, logg))
			r.Get("/search", controllers.FitmentSearch(deps.CatalogService, logg))
			r.Get("/{slug}", controllers.ProductGet(deps.CatalogService, logg))
		})
		r.Get("/categories", controllers.CategoriesList(deps.CatalogService, logg))
		r.Get("/brands", controllers.BrandsList(deps.CatalogService, logg))
		r.Post("/cart/quote", controllers.CartQuote(deps.CartService, logg))

		r.Post("/orders", controllers.OrderCreate(deps.OrdersService, logg))
		r.Post("/orders/verify-payment", controllers.OrderVerifyPayment(deps.OrdersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

			r.Get("/orders", controllers.OrdersListMine(deps.OrdersService, logg))
			r.Get("/orders/{orderId}", controllers.OrderGet(deps.OrdersService, logg))
			r.Post("/orders/{orderId}/cancel", controllers.OrderCancel(deps.OrdersService, logg))

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(deps.WishlistService, logg))
				r.Post("/", controllers.WishlistAddItem(deps.WishlistService, logg))
				r.Delete("/{productId}", controllers.WishlistRemoveItem(deps.WishlistService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductsList(deps.CatalogService, logg))
			r.Post("/", controllers.AdminProductCreate(deps.CatalogService, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.CatalogService, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.CatalogService, logg))
			r.Post("/{productId}/images", controllers.AdminProductAttachImages(deps.CatalogService, logg))
			r.Delete("/{productId}/images/{imageId}", controllers.AdminProductDeleteImage(deps.CatalogService, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.AdminCategoriesList(deps.CatalogService, logg))
			r.Post("/", controllers.AdminCategoryCreate(deps.CatalogService, logg))
		})
		r.Route("/brands", func(r chi.Router) {
			r.Get("/", controllers.AdminBrandsList(deps.CatalogService, logg))
			r.Post("/", controllers.AdminBrandCreate(deps.CatalogService, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderGet(deps.OrdersService, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.OrdersService, logg))
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUsersList(deps.UsersService, logg))
			r.Patch("/{userId}/active", controllers.AdminUserSetActive(deps.UsersService, logg))
		})
	})

	return r
}
