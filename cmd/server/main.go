package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/verdict-engine/verdict/action"
	"github.com/verdict-engine/verdict/internal/logger"
	"github.com/verdict-engine/verdict/ruleset"
)

type Server struct {
	db      *sql.DB
	manager *ruleset.Manager
	router  *chi.Mux
}

func NewServer(databaseURL string) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewServerWithDB(db)
}

// NewServerWithDB builds a server on an already-open database handle.
func NewServerWithDB(db *sql.DB) (*Server, error) {
	store := ruleset.NewPostgresStore(db)
	manager, err := ruleset.NewManager(store, ruleset.WithReporter(logReporter{}))
	if err != nil {
		return nil, fmt.Errorf("failed to load rulesets: %w", err)
	}

	s := &Server{
		db:      db,
		manager: manager,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)

	r.Post("/api/v1/validate", s.handleValidate)
	r.Post("/api/v1/submissions", s.handleSubmit)

	r.Route("/api/v1/rulesets", func(r chi.Router) {
		r.Get("/", s.handleListRulesets)
		r.Post("/", s.handleCreateRuleset)

		r.Route("/{rulesetId}", func(r chi.Router) {
			r.Get("/", s.handleGetRuleset)
			r.Put("/", s.handleUpdateRuleset)
			r.Delete("/", s.handleDeleteRuleset)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
	})
}

// handleValidate renders a ruleset against a target document and returns
// the verdict surface without performing any effect.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.RulesetID == "" {
		respondError(w, http.StatusBadRequest, "rulesetId is required", nil)
		return
	}
	if req.Target == nil {
		respondError(w, http.StatusBadRequest, "target is required", nil)
		return
	}

	startTime := time.Now()

	vc, err := s.manager.Validate(req.RulesetID, req.Target)
	if err != nil {
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "not active") {
			respondError(w, http.StatusNotFound, "ruleset not found", err)
			return
		}
		// A defective rule configuration, not bad caller data.
		respondError(w, http.StatusInternalServerError, "validation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, VerdictResponse{
		RulesetID:      req.RulesetID,
		State:          vc.State().String(),
		Valid:          !vc.HasViolations(),
		Results:        resultViews(vc.Results()),
		Violations:     violationMessages(vc),
		EvaluationTime: time.Since(startTime).String(),
	})
}

// handleSubmit runs the gated submission action: validate the target
// against the ruleset and, only if the verdict passes, persist the
// submission. The action's delegate is the single effectful step.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.RulesetID == "" {
		respondError(w, http.StatusBadRequest, "rulesetId is required", nil)
		return
	}
	if req.Target == nil {
		respondError(w, http.StatusBadRequest, "target is required", nil)
		return
	}

	rules, err := s.manager.BuildRules(req.RulesetID, req.Target)
	if err != nil {
		respondError(w, http.StatusNotFound, "ruleset not found", err)
		return
	}

	submissionID := uuid.New().String()

	act := action.New("submission."+req.RulesetID, action.Hooks{
		PreValidate: func(a *action.Action) {
			a.Validation().AddRule(rules...)
		},
		Perform: func(ctx context.Context, a *action.Action) error {
			targetJSON, err := json.Marshal(req.Target)
			if err != nil {
				return fmt.Errorf("failed to encode target: %w", err)
			}
			_, err = s.db.ExecContext(ctx, `
				INSERT INTO submissions (id, ruleset_id, target, created_at)
				VALUES ($1, $2, $3, NOW())
			`, submissionID, req.RulesetID, targetJSON)
			if err != nil {
				return fmt.Errorf("failed to store submission: %w", err)
			}
			return nil
		},
		Finish: func(a *action.Action) {
			if a.Result() == action.Fail {
				logger.ActionFailed()
			}
		},
	}, action.WithReporter(logReporter{}))

	if err := act.Execute(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "submission action failed", err)
		return
	}

	resp := SubmissionResponse{
		ActionID: act.ID().String(),
		Result:   act.Result().String(),
		Messages: act.Messages(),
	}

	switch act.Result() {
	case action.Success:
		resp.SubmissionID = submissionID
		respondJSON(w, http.StatusCreated, resp)
	default:
		if act.Err() != nil {
			logger.Error("submission delegate failed", "action", act.Name(), "error", act.Err())
			respondJSON(w, http.StatusBadGateway, resp)
			return
		}
		respondJSON(w, http.StatusUnprocessableEntity, resp)
	}
}

func (s *Server) handleListRulesets(w http.ResponseWriter, r *http.Request) {
	defs, err := s.manager.ListActive()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rulesets", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rulesets": defs,
	})
}

func (s *Server) handleCreateRuleset(w http.ResponseWriter, r *http.Request) {
	var req RulesetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" || len(req.Rules) == 0 {
		respondError(w, http.StatusBadRequest, "name and rules are required", nil)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	def := &ruleset.Definition{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		Rules:       req.Rules,
	}

	if err := s.manager.Create(def); err != nil {
		respondError(w, http.StatusBadRequest, "failed to create ruleset", err)
		return
	}

	respondJSON(w, http.StatusCreated, def)
}

func (s *Server) handleGetRuleset(w http.ResponseWriter, r *http.Request) {
	rulesetID := chi.URLParam(r, "rulesetId")

	def, err := s.manager.Get(rulesetID)
	if err != nil {
		respondError(w, http.StatusNotFound, "ruleset not found", err)
		return
	}

	respondJSON(w, http.StatusOK, def)
}

func (s *Server) handleUpdateRuleset(w http.ResponseWriter, r *http.Request) {
	rulesetID := chi.URLParam(r, "rulesetId")

	var req RulesetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	def := &ruleset.Definition{
		ID:          rulesetID,
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
		Rules:       req.Rules,
	}

	if err := s.manager.Update(def); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(w, http.StatusNotFound, "ruleset not found", err)
			return
		}
		respondError(w, http.StatusBadRequest, "failed to update ruleset", err)
		return
	}

	respondJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteRuleset(w http.ResponseWriter, r *http.Request) {
	rulesetID := chi.URLParam(r, "rulesetId")

	if err := s.manager.Delete(rulesetID); err != nil {
		respondError(w, http.StatusNotFound, "ruleset not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	server, err := NewServer(databaseURL)
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}
	defer server.db.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("Logger shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
