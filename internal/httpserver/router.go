package httpserver

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"matchlink/internal/config"
	"matchlink/internal/metrics"
	"matchlink/internal/security"
	"matchlink/internal/service"
	"matchlink/internal/store/sqlite"
	"matchlink/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware.
func NewRouter(cfg *config.Config, db *sql.DB, hub *ws.Hub, tokenSvc *security.TokenService, passwordHasher *security.PasswordHasher) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	profileRepo := sqlite.NewProfileRepo(db)
	subRepo := sqlite.NewSubscriptionRepo(db)
	chatRepo := sqlite.NewChatRepo(db)
	msgRepo := sqlite.NewMessageRepo(db)

	// Services
	authSvc := service.NewAuthService(profileRepo, tokenSvc, passwordHasher)
	matchSvc := service.NewMatchService(profileRepo, subRepo)
	chatSvc := service.NewChatService(profileRepo, subRepo, chatRepo)
	msgSvc := service.NewMessageService(profileRepo, chatRepo, msgRepo, cfg.MaxMessageLength)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"matchlink API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Handle("/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", handleLogin(authSvc))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, profileRepo))

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", handleListFollowing(matchSvc))
				r.Get("/followers", handleListFollowers(matchSvc))
				r.Get("/matches", handleListMatches(matchSvc))
				r.Get("/stats", handleSubscriptionStats(matchSvc))
				r.Post("/reject/{subscriptionID}", handleReject(matchSvc))
				r.Post("/{profileID}", handleSubscribe(matchSvc))
				r.Delete("/{profileID}", handleUnsubscribe(matchSvc))
			})

			r.Route("/chats", func(r chi.Router) {
				r.Get("/", handleListChats(chatSvc))
				r.Get("/with/{profileID}", handleGetOrCreateChat(chatSvc))
				r.Get("/unread/count", handleUnreadCount(msgSvc))
				r.Get("/{chatID}/unread/count", handleUnreadCount(msgSvc))
				r.Get("/{chatID}/messages", handleListMessages(msgSvc))
				r.Post("/{chatID}/messages", handleCreateMessage(msgSvc))
				r.Post("/{chatID}/read", handleMarkChatRead(msgSvc))
			})
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, profileRepo, msgSvc, cfg.CORSOrigins))

	return r
}
