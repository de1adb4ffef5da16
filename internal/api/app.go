package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isqad/melody"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/classway/callkit/internal/eventbus"
	"github.com/classway/callkit/internal/history"
)

// AppOptions is options of the application
type AppOptions struct {
	Coordinator      CallCoordinator
	EventsPublisher  eventbus.Publisher
	EventsSubscriber eventbus.Subscriber
	CallRecords      history.CallRecordsStorer
	AuthTokens       map[string]string

	router         *chi.Mux
	websocket      *melody.Melody
	authMiddleware AuthHandler
}

// App is application for the call agent API
type App struct {
	AppOptions
}

// NewApp creates a new API application
func NewApp(options AppOptions) *App {
	options.router = chi.NewRouter()
	options.websocket = melody.New()
	options.websocket.Config.MaxMessageSize = 1024

	auth := NewTokenAuth(options.AuthTokens)
	options.authMiddleware = auth.Middleware()

	app := &App{
		options,
	}
	return app
}

// Router is function for construct http router
func (app *App) Router() http.Handler {
	app.router.Use(middleware.RealIP)
	app.router.Use(middleware.Recoverer)

	app.router.Method("GET", "/metrics", promhttp.Handler())

	app.router.With(app.authMiddleware).Route("/", func(r chi.Router) {
		r.Get("/ws", WebsocketsHandler(app.EventsSubscriber, app.websocket))

		r.Route("/api/v1/calls", func(r chi.Router) {
			r.Post("/", CallCreateHandler(app.Coordinator))
			r.Get("/current", CallCurrentHandler(app.Coordinator))
			r.Post("/accept", CallAcceptHandler(app.Coordinator))
			r.Post("/reject", CallRejectHandler(app.Coordinator))
			r.Post("/hangup", CallHangupHandler(app.Coordinator))
			r.Post("/mute", CallMuteHandler(app.Coordinator))
			r.Post("/camera", CallCameraHandler(app.Coordinator))
		})

		if app.CallRecords != nil {
			r.Get("/api/v1/history", CallHistoryHandler(app.CallRecords))
		}
	})

	app.websocket.HandleConnect(ConnectHandler)
	app.websocket.HandleDisconnect(DisconnectHandler)
	app.websocket.HandleMessage(HandleMessage(app.EventsPublisher))
	app.websocket.HandleError(func(s *melody.Session, err error) {
		log.Error().Err(err).Str("service", "websockets").Msg("error in websocket session")
	})

	return app.router
}
