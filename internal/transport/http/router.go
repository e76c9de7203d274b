package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/go-banking-service/internal/service"
	"github.com/pribylovaa/go-banking-service/internal/transport/http/handlers"
	"github.com/pribylovaa/go-banking-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
	// Metrics — registry для HTTP-метрик; nil отключает сбор.
	Metrics prometheus.Registerer
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Metrics != nil {
		root.Use(middleware.Metrics(opts.Metrics))
	}
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, validator middleware.TokenValidator) {
	// auth
	r.Post("/accounts/register", h.RegisterAccount)
	r.Post("/accounts/login", h.Login)
	r.Post("/accounts/refresh", h.RefreshToken)

	// accounts
	r.Get("/accounts", h.ListAccounts)
	r.Get("/accounts/{id}", h.AccountByID)
	r.Delete("/accounts/{id}", h.DeleteAccount)
	r.Put("/accounts/{id}/deposit", h.Deposit)
	r.Put("/accounts/{id}/withdraw", h.Withdraw)

	// identity-guarded мутации: только владелец счёта.
	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(validator))
		g.Put("/accounts/{id}/secure-deposit", h.SecureDeposit)
		g.Put("/accounts/{id}/secure-withdraw", h.SecureWithdraw)
	})
}
