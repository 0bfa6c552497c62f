package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/devmarkh/converso/internal/api/handlers"
	"github.com/devmarkh/converso/internal/api/middlewares"
	"github.com/devmarkh/converso/internal/auth"
	"github.com/devmarkh/converso/internal/config"
	"github.com/devmarkh/converso/internal/core"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes. The image endpoints are mounted
// only when their collaborators are configured; federation likewise.
func NewServer(cfg *config.Config, dbclient core.DbClient, llm core.LLMProvider,
	objects core.ObjectClient, generator core.ImageGenerator, captioner core.Captioner,
	hasher *auth.PasswordHasher, issuer *auth.TokenIssuer, fed handlers.Federator) *Server {

	authHandler := handlers.NewAuthHandler(dbclient, hasher, issuer, fed)
	chatHandler := handlers.NewChatHandler(dbclient, llm)
	imageHandler := handlers.NewImageHandler(dbclient, objects, generator, captioner)
	adminHandler := handlers.NewAdminHandler(dbclient)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"API is working!"}`))
	})

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		if fed != nil {
			api.Get("/auth/google/login", authHandler.GoogleLogin)
			api.Get("/auth/google/callback", authHandler.GoogleCallback)
		} else {
			logrus.Warn("google federation not configured; federated login disabled")
		}

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(middlewares.SessionGate(issuer, dbclient))

			protected.Get("/me", authHandler.Me)
			protected.Get("/chats", chatHandler.ListChats)
			protected.Post("/chats/new", chatHandler.NewChat)
			protected.Get("/chats/{chatID}/messages", chatHandler.ListMessages)
			protected.Post("/chats/{chatID}/send", chatHandler.SendMessage)
			protected.Get("/chats/{chatID}/suggestions", chatHandler.Suggestions)

			if generator != nil {
				protected.Post("/chats/{chatID}/generate-image", imageHandler.GenerateImage)
			}
			if objects != nil && captioner != nil {
				protected.Post("/chats/{chatID}/upload-image", imageHandler.UploadImage)
			} else {
				logrus.Warn("object storage or captioner not configured; image upload disabled")
			}

			protected.Group(func(admin chi.Router) {
				admin.Use(middlewares.RequireAdmin)
				admin.Get("/admin/users", adminHandler.ListUsers)
				admin.Get("/admin/chats/{userID}", adminHandler.ListUserChats)
				admin.Get("/admin/messages/{chatID}", adminHandler.ListChatMessages)
				admin.Delete("/admin/messages/{messageID}", adminHandler.DeleteMessage)
			})
		})
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server until Shutdown or a listener error.
func (s *Server) Start() error {
	logrus.Infof("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logrus.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
