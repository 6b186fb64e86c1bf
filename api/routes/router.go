package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageturn/bookstore-backend/api/controllers"
	"github.com/pageturn/bookstore-backend/api/middleware"
	"github.com/pageturn/bookstore-backend/internal/auth"
	"github.com/pageturn/bookstore-backend/internal/books"
	"github.com/pageturn/bookstore-backend/internal/captcha"
	"github.com/pageturn/bookstore-backend/internal/cart"
	"github.com/pageturn/bookstore-backend/internal/categories"
	"github.com/pageturn/bookstore-backend/internal/orders"
	"github.com/pageturn/bookstore-backend/internal/reviews"
	"github.com/pageturn/bookstore-backend/internal/users"
	"github.com/pageturn/bookstore-backend/pkg/config"
	"github.com/pageturn/bookstore-backend/pkg/db"
	"github.com/pageturn/bookstore-backend/pkg/enums"
	"github.com/pageturn/bookstore-backend/pkg/logger"
	"github.com/pageturn/bookstore-backend/pkg/metrics"
	"github.com/pageturn/bookstore-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry
	HTTP     *metrics.HTTPMetrics

	Auth       auth.Service
	Captcha    captcha.Service
	Books      books.Service
	Categories categories.Service
	Cart       cart.Service
	Orders     orders.Service
	Reviews    reviews.Service
	Users      users.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.CORS),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/captcha", controllers.AuthCaptcha(deps.Captcha, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
				Post("/register", controllers.AuthRegister(deps.Auth, deps.Captcha, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
				Post("/login", controllers.AuthLogin(deps.Auth, deps.Captcha, logg))
		})

		// Public catalog.
		r.Group(func(r chi.Router) {
			r.Get("/books", controllers.BookList(deps.Books, logg))
			r.Get("/books/{bookId}", controllers.BookDetail(deps.Books, logg))
			r.Get("/books/{bookId}/reviews", controllers.ReviewList(deps.Reviews, logg))
			r.Get("/categories", controllers.CategoryList(deps.Categories, logg))
			r.Get("/categories/{categoryId}", controllers.CategoryDetail(deps.Categories, logg))
		})

		// Customer surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/ping", controllers.PrivatePing())

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Put("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderPlace(deps.Orders, logg))
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			})

			r.Post("/books/{bookId}/reviews", controllers.ReviewCreate(deps.Reviews, logg))
			r.Put("/reviews/{reviewId}", controllers.ReviewUpdate(deps.Reviews, logg))
			r.Delete("/reviews/{reviewId}", controllers.ReviewDelete(deps.Reviews, logg))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", controllers.UserProfile(deps.Users, logg))
				r.Put("/", controllers.UserProfileUpdate(deps.Users, logg))
				r.Put("/password", controllers.UserChangePassword(deps.Users, logg))
				r.Delete("/", controllers.UserDeleteAccount(deps.Users, logg))
			})
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/books", func(r chi.Router) {
			r.Post("/", controllers.AdminBookCreate(deps.Books, logg))
			r.Patch("/{bookId}", controllers.AdminBookUpdate(deps.Books, logg))
			r.Delete("/{bookId}", controllers.AdminBookDelete(deps.Books, logg))
		})

		r.Route("/v1/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(deps.Categories, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(deps.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(deps.Categories, logg))
		})

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
		})
	})

	return r
}
