package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/session-server/internal/api/http/handler"
	"github.com/dtroode/session-server/internal/api/http/middleware"
	"github.com/dtroode/session-server/internal/logger"
	"github.com/dtroode/session-server/internal/model"
)

// Services is what the API needs from the service layer.
type Services interface {
	handler.SessionService
	middleware.Authenticator
}

// Router wires HTTP handlers and middleware for the users API.
type Router struct {
	session        Services
	profile        handler.ProfileService
	pinger         model.Pinger
	media          handler.MediaSource
	contextManager model.ContextManager
	cookies        handler.CookieConfig
	maxBodyBytes   int64
	logger         *logger.Logger
}

// Option customizes a Router.
type Option func(*Router)

// WithMedia serves objects of an in-memory media store under /media.
func WithMedia(source handler.MediaSource) Option {
	return func(r *Router) {
		r.media = source
	}
}

// New creates a Router.
func New(
	session Services,
	profile handler.ProfileService,
	pinger model.Pinger,
	contextManager model.ContextManager,
	cookies handler.CookieConfig,
	maxBodyBytes int64,
	logger *logger.Logger,
	opts ...Option,
) *Router {
	r := &Router{
		session:        session,
		profile:        profile,
		pinger:         pinger,
		contextManager: contextManager,
		cookies:        cookies,
		maxBodyBytes:   maxBodyBytes,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register builds the HTTP handler with all routes and middleware.
func (r *Router) Register() http.Handler {
	auth := handler.NewAuth(r.session, r.contextManager, r.cookies, r.logger)
	profile := handler.NewProfile(r.profile, r.contextManager, r.logger)
	health := handler.NewHealth(r.pinger, r.logger)
	authenticate := middleware.NewAuthenticate(r.session, r.contextManager, r.logger)
	logging := middleware.NewLogging(r.logger)

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(logging.Handle)
	mux.Use(middleware.Recovery(r.logger))
	mux.Use(middleware.BodyLimit(r.maxBodyBytes))

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handler.WriteErrorCode(w, http.StatusNotFound, handler.CodeNotFound, "route not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handler.WriteErrorCode(w, http.StatusMethodNotAllowed, handler.CodeBadRequest, "method not allowed")
	})

	mux.Get("/healthz", health.Check)

	if r.media != nil {
		mux.Get("/media/*", handler.NewMedia(r.media).Get)
	}

	mux.Route("/api/v1/users", func(api chi.Router) {
		api.Post("/register", profile.Register)
		api.Post("/login", auth.Login)
		api.Post("/refresh-token", auth.RefreshToken)

		api.Group(func(protected chi.Router) {
			protected.Use(authenticate.Handle)

			protected.Post("/logout", auth.Logout)
			protected.Post("/change-password", auth.ChangePassword)
			protected.Get("/current-user", profile.CurrentUser)
			protected.Patch("/update-account", profile.UpdateAccount)
			protected.Patch("/avatar", profile.UpdateAvatar)
			protected.Patch("/cover-image", profile.UpdateCoverImage)
		})
	})

	return mux
}
