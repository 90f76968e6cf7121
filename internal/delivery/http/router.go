package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"signal-backend/internal/delivery/websocket"
	"signal-backend/internal/infrastructure/auth"
	"signal-backend/internal/infrastructure/metrics"
	"signal-backend/internal/usecase"
)

// Services bundles what the router needs.
type Services struct {
	Accounts      *usecase.AccountService
	Channels      *usecase.ChannelService
	Templates     *usecase.TemplateService
	Signals       *usecase.SignalService
	MarketData    *usecase.MarketDataService
	Notifications *usecase.NotificationService
	Hub           *websocket.Hub
	Tokens        *auth.Tokens
	FrontendURL   string
	Log           zerolog.Logger
}

func NewRouter(s Services) http.Handler {
	accounts := NewAccountHandler(s.Accounts)
	channels := NewChannelHandler(s.Channels)
	templates := NewTemplateHandler(s.Templates)
	signals := NewSignalHandler(s.Signals)
	market := NewMarketDataHandler(s.MarketData)
	devices := NewTokenHandler(s.Notifications)
	tests := NewTestHandler(s.Notifications)
	ws := websocket.NewHandler(s.Hub, s.Tokens, s.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.Log.With().Str("component", "http").Logger()))
	r.Use(middleware.Recoverer)
	r.Use(CORS(s.FrontendURL))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws/signals", ws.Handle)

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts", accounts.Register)
		r.Post("/login", accounts.Login)
		r.Post("/password/forgot", accounts.ForgotPassword)
		r.Post("/password/reset", accounts.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(s.Tokens))

			r.Get("/accounts", accounts.List)
			r.Get("/accounts/me", accounts.Me)
			r.Get("/accounts/channels", channels.ListMine)
			r.Get("/accounts/{id}", accounts.Get)
			r.Put("/accounts/{id}", accounts.Update)
			r.Delete("/accounts/{id}", accounts.Delete)
			r.Put("/password", accounts.ChangePassword)
			r.Get("/risk/settings", accounts.GetRiskSettings)
			r.Put("/risk/settings", accounts.UpdateRiskSettings)

			r.Post("/channels", channels.Create)
			r.Get("/channels/orphaned", channels.ListOrphaned)
			r.Get("/channels/{id}", channels.Get)
			r.Put("/channels/{id}", channels.Update)
			r.Delete("/channels/{id}", channels.Delete)
			r.Post("/channels/{id}/reassign", channels.Reassign)
			r.Get("/channels/{id}/templates", templates.ListByChannel)
			r.Get("/channels/{id}/signals", signals.ListByChannel)

			r.Post("/templates", templates.Create)
			r.Post("/templates/test", templates.TestConfig)
			r.Get("/templates/{id}", templates.Get)
			r.Put("/templates/{id}", templates.Update)
			r.Delete("/templates/{id}", templates.Delete)
			r.Put("/templates/{id}/toggle-active", templates.ToggleActive)
			r.Post("/templates/{id}/test", templates.Test)
			r.Get("/templates/{id}/history", templates.History)

			r.Post("/signals", signals.Create)
			r.Get("/signals/user/me", signals.ListMine)
			r.Get("/signals/{id}", signals.Get)
			r.Put("/signals/{id}", signals.Update)
			r.Delete("/signals/{id}", signals.Delete)

			r.Get("/market-data", market.QuoteMany)
			r.Get("/market-data/{symbol}", market.Quote)

			r.Post("/devices/register", devices.HandleRegisterToken)
			r.Post("/devices/unregister", devices.HandleUnregisterToken)
			r.Get("/devices/count", devices.HandleGetTokenCount)
			r.Post("/notifications/test", tests.SendTestNotification)
		})
	})
	return r
}
