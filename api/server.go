// Package api exposes the game over a JSON HTTP interface for the mini app front end.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"plombir/auth"
	"plombir/config"
	"plombir/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"
)

// maxBodyBytes caps every JSON request body
const maxBodyBytes = 64 << 10

// Services bundles the feature services the handlers call into
type Services struct {
	Users       service.UserService
	Farm        service.FarmService
	Tasks       service.TaskService
	PvP         service.PvPService
	Giveaways   service.GiveawayService
	Promo       service.PromoService
	Profile     service.ProfileService
	Dice        service.DiceService
	Leaderboard service.LeaderboardService
	Admin       service.AdminService
}

// Server serves the HTTP API
type Server struct {
	cfg        *config.Config
	validator  *auth.Validator
	sessions   *auth.SessionIssuer
	services   Services
	httpServer *http.Server
}

// NewServer wires handlers for all routes
func NewServer(cfg *config.Config, validator *auth.Validator, sessions *auth.SessionIssuer, services Services) *Server {
	s := &Server{
		cfg:       cfg,
		validator: validator,
		sessions:  sessions,
		services:  services,
	}
	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped router
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", userIDHeader}),
	)
	return cors(s.router())
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(limitBody)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth", s.authenticate)
		r.Get("/top", s.top)
		r.Get("/pvp/offers", s.listOffers)
		r.Get("/giveaways", s.listGiveaways)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/farm", s.getFarm)
			r.Post("/farm/buy-animal", s.buyAnimal)
			r.Post("/farm/buy-protection", s.buyProtection)

			r.Get("/tasks", s.listTasks)
			r.Post("/tasks/start", s.startTask)

			r.Post("/pvp/create", s.createOffer)
			r.Post("/pvp/accept", s.acceptOffer)

			r.Post("/giveaways/join", s.joinGiveaway)
			r.Post("/promo/activate", s.activatePromo)

			r.Post("/social/verify", s.submitSocial)
			r.Post("/social/verify-phone", s.verifyPhone)
			r.Post("/profile/update", s.updateProfile)

			r.Post("/dice/roll", s.rollDice)
			r.Post("/admin/export", s.export)
		})
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("HTTP server stopped")
	return nil
}
