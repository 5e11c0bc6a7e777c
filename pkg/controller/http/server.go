package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/reactask/pkg/utils/errutil"
)

type Server struct {
	router         *chi.Mux
	webhookHandler *ReactionWebhookHandler
}

type Options func(*Server)

func WithReactionWebhook(handler *ReactionWebhookHandler) Options {
	return func(s *Server) {
		s.webhookHandler = handler
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(panicRecoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		errutil.WriteJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Signature verification happens inside the handler because url_verification is unsigned
	if s.webhookHandler != nil {
		r.Route("/webhook/{webhook_id}", func(r chi.Router) {
			r.Post("/", s.webhookHandler.ServeHTTP)
			r.Get("/", s.webhookHandler.ServeStatus)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
