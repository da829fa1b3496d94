package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/techinsight/techinsight-be/internal/api/handlers"
	"github.com/techinsight/techinsight-be/internal/services"
	"github.com/techinsight/techinsight-be/internal/websocket"
)

// Options holds what the router needs to serve requests.
type Options struct {
	Accounts       services.AccountServiceProvider
	Posts          services.PostServiceProvider
	Store          handlers.Pinger
	Hub            *websocket.Hub
	AllowedOrigins []string
	// RequestTimeout bounds every REST request. Zero disables it.
	RequestTimeout time.Duration
}

// NewRouter creates and configures a new Chi router.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(opts.Accounts)
	postHandler := handlers.NewPostHandler(opts.Posts)
	healthHandler := handlers.NewHealthHandler(opts.Store)
	wsHandler := handlers.NewWebSocketHandler(opts.Hub)

	// Activity streams are long-lived and stay outside the request timeout.
	r.Get("/ws", wsHandler.Serve)
	r.Get("/ws/blogs/{id}", wsHandler.Serve)

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}

		r.Get("/", healthHandler.Welcome)
		r.Get("/healthz", healthHandler.Health)

		r.Post("/register", accountHandler.Register)
		r.Post("/login", accountHandler.Login)
		r.Get("/users", accountHandler.GetAll)
		r.Get("/users/{id}", accountHandler.Get)
		r.Get("/profile/{id}", accountHandler.Get)

		r.Post("/blog", postHandler.Create)
		r.Get("/search", postHandler.Search)
		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", postHandler.GetAll)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.Get)
				r.Patch("/", postHandler.Update)
				r.Delete("/", postHandler.Delete)
				r.Post("/like", postHandler.Like)
				r.Post("/comment", postHandler.Comment)
				r.Patch("/favourite", postHandler.Favourite)
			})
		})
	})

	return r
}
