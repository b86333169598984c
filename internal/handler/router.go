package handler

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"laundry/internal/metrics"
	"laundry/internal/mw"
	"laundry/internal/service"
)

type RouterConfig struct {
	AllowedOrigins []string
	Cookie         CookieConfig
}

func NewRouter(cfg RouterConfig, authSvc *service.AuthService, adminSvc *service.AdminService, orderSvc *service.OrderService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))
	r.Use(mw.SessionCookie(cfg.Cookie.Name))

	r.Get("/ping", PingHandler())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", RegisterHandler(authSvc))
		r.Post("/login", LoginHandler(authSvc))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/check_session", CheckSessionHandler(adminSvc))
			r.Post("/login", AdminLoginHandler(adminSvc, cfg.Cookie))
			r.Post("/logout", AdminLogoutHandler(adminSvc, cfg.Cookie))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ListOrdersHandler(orderSvc))
			r.Post("/", CreateOrderHandler(orderSvc))
			r.Get("/client/{clientID}", ListClientOrdersHandler(orderSvc))
			r.Put("/{orderID}/status", UpdateOrderStatusHandler(orderSvc))
		})
	})

	return r
}

// corsOptions allows credentialed requests. A "*" origin is answered with the
// caller's own origin, since browsers refuse a literal wildcard together with
// credentials.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if slices.Contains(origins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	return opts
}

func PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, "pong")
	}
}
