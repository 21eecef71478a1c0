package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/leadstream/leadstream/internal/assistant"
	"github.com/leadstream/leadstream/internal/config"
	"github.com/leadstream/leadstream/internal/database"
	"github.com/leadstream/leadstream/internal/server"
)

type LeadStreamApp struct {
	log            *log.Logger
	db             database.LeadStreamRepository
	rt             server.Realtime
	assistant      *assistant.Assistant
	mux            *http.Server
	signingKey     []byte
	allowedOrigins []string
}

func NewLeadStreamApp(mux *http.ServeMux, logger *log.Logger, rt server.Realtime, db database.LeadStreamRepository, asst *assistant.Assistant, cfg *config.Config) *LeadStreamApp {
	s := &LeadStreamApp{
		log:            logger,
		db:             db,
		rt:             rt,
		assistant:      asst,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("/api/account", s.authMiddleware(s.account))
	mux.Handle("GET /api/leads", s.authMiddleware(s.listLeads))
	mux.Handle("POST /api/leads", s.authMiddleware(s.createLead))
	mux.Handle("GET /api/leads/{id}", s.authMiddleware(s.getLead))
	mux.Handle("PUT /api/leads/{id}", s.authMiddleware(s.updateLead))
	mux.Handle("DELETE /api/leads/{id}", s.authMiddleware(s.deleteLead))
	mux.Handle("GET /api/leads/{id}/notes", s.authMiddleware(s.listNotes))
	mux.Handle("POST /api/leads/{id}/notes", s.authMiddleware(s.createNote))
	mux.Handle("GET /api/deals", s.authMiddleware(s.listDeals))
	mux.Handle("POST /api/deals", s.authMiddleware(s.createDeal))
	mux.Handle("PUT /api/deals/{id}", s.authMiddleware(s.updateDealStage))
	mux.Handle("GET /api/tasks", s.authMiddleware(s.listTasks))
	mux.Handle("POST /api/tasks", s.authMiddleware(s.createTask))
	mux.Handle("PUT /api/tasks/{id}", s.authMiddleware(s.updateTaskStatus))
	mux.Handle("POST /api/chat/message", s.authMiddleware(s.chatMessage))
	mux.Handle("POST /api/chat/transfer", s.authMiddleware(s.chatTransfer))
	mux.Handle("GET /api/chat/history/{sessionId}", s.authMiddleware(s.chatHistory))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *LeadStreamApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *LeadStreamApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
