package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mateovidal/storelane-backend/api/controllers"
	"github.com/mateovidal/storelane-backend/api/middleware"
	authsvc "github.com/mateovidal/storelane-backend/internal/auth"
	cartsvc "github.com/mateovidal/storelane-backend/internal/cart"
	"github.com/mateovidal/storelane-backend/internal/catalog"
	ordersvc "github.com/mateovidal/storelane-backend/internal/orders"
	paysvc "github.com/mateovidal/storelane-backend/internal/payments"
	usersvc "github.com/mateovidal/storelane-backend/internal/users"
	"github.com/mateovidal/storelane-backend/pkg/auth/session"
	"github.com/mateovidal/storelane-backend/pkg/config"
	"github.com/mateovidal/storelane-backend/pkg/logger"
	"github.com/mateovidal/storelane-backend/pkg/metrics"
	pkgredis "github.com/mateovidal/storelane-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             pinger
	Redis          *pkgredis.Client
	Registry       *prometheus.Registry
	HTTPMetrics    *metrics.HTTPMetrics
	SessionChecker session.AccessSessionChecker

	AuthService    authsvc.Service
	UsersService   usersvc.Service
	CatalogService catalog.Service
	CartService    cartsvc.Service
	OrdersService  ordersvc.Service
	PaymentService paysvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.Register(deps.AuthService, logg))
			r.Post("/login", controllers.Login(deps.AuthService, logg))
			r.Post("/refresh", controllers.Refresh(deps.AuthService, logg))
			r.With(middleware.Auth(cfg.JWT, deps.SessionChecker, logg)).
				Post("/logout", controllers.Logout(deps.AuthService, deps.CartService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.CatalogService, logg))
			r.Get("/{productKey}", controllers.GetProduct(deps.CatalogService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

			r.Get("/users/me", controllers.Me(deps.UsersService, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.CartService, logg))
				r.Post("/items", controllers.AddCartItem(deps.CartService, logg))
				r.Delete("/items/{productID}", controllers.RemoveCartItem(deps.CartService, logg))
				r.Delete("/", controllers.ClearCart(deps.CartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.Checkout(deps.OrdersService, logg))
				r.Get("/", controllers.ListMyOrders(deps.OrdersService, logg))
				r.Get("/{orderID}", controllers.GetOrder(deps.OrdersService, logg))
				r.Post("/{orderID}/pay", controllers.InitiatePayment(deps.PaymentService, logg))
				r.Post("/{orderID}/pay/capture", controllers.CapturePayment(deps.PaymentService, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))
				r.Get("/users", controllers.AdminListUsers(deps.UsersService, logg))
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminListOrders(deps.OrdersService, logg))
					r.Post("/{orderID}/deliver", controllers.AdminDeliverOrder(deps.OrdersService, logg))
				})
			})
		})
	})

	return r
}
