package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/linkmailer/linkmail/internal/profile"
)

// Runner executes the pipeline for one URL. Pipeline implements it; tests
// substitute stubs.
type Runner interface {
	Run(ctx context.Context, url string) profile.ResultRecord
}

// Server exposes the pipeline over HTTP, mirroring the original tool's API
// surface.
type Server struct {
	Base Config
	// NewRunner builds the pipeline for one request's effective config.
	// Defaults to the production constructor.
	NewRunner func(ctx context.Context, cfg Config) (Runner, error)
}

type generateRequest struct {
	URL              string `json:"url"`
	LinkedInEmail    string `json:"linkedin_email,omitempty"`
	LinkedInPassword string `json:"linkedin_password,omitempty"`
	Provider         string `json:"llm_provider,omitempty"`
	APIKey           string `json:"api_key,omitempty"`
}

// profileView is the extracted fields alone; run metadata (email, status,
// warning) lives only at the response's top level.
type profileView struct {
	Name    *string `json:"name"`
	Title   *string `json:"title"`
	Company *string `json:"company"`
	About   *string `json:"about"`
}

type generateResponse struct {
	Profile profileView         `json:"profile"`
	Email   *profile.EmailDraft `json:"email"`
	Status  string              `json:"status,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	return mux
}

// ListenAndServe runs the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("API listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "url is required"})
		return
	}

	cfg := s.effectiveConfig(req)
	newRunner := s.NewRunner
	if newRunner == nil {
		newRunner = defaultNewRunner
	}
	runner, err := newRunner(r.Context(), cfg)
	if err != nil {
		log.Error().Err(err).Msg("pipeline construction failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	result := runner.Run(r.Context(), req.URL)
	if result.Status == profile.StatusFailed {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: result.Error})
		return
	}

	resp := generateResponse{
		Profile: profileView{
			Name:    result.Name,
			Title:   result.Title,
			Company: result.Company,
			About:   result.About,
		},
		Email:   result.Email,
		Status:  result.Status,
		Warning: result.Warning,
	}
	writeJSON(w, http.StatusOK, resp)
}

// effectiveConfig overlays per-request overrides on the server's base
// configuration. Request credentials never persist beyond the request.
func (s *Server) effectiveConfig(req generateRequest) Config {
	cfg := s.Base
	if req.LinkedInEmail != "" {
		cfg.LinkedInEmail = req.LinkedInEmail
	}
	if req.LinkedInPassword != "" {
		cfg.LinkedInPassword = req.LinkedInPassword
	}
	if req.Provider != "" {
		cfg.Provider = req.Provider
	}
	if req.APIKey != "" {
		switch cfg.Provider {
		case ProviderGemini:
			cfg.GeminiAPIKey = req.APIKey
		case ProviderAzure:
			cfg.AzureAPIKey = req.APIKey
		default:
			cfg.OpenAIAPIKey = req.APIKey
		}
	}
	return cfg
}

func defaultNewRunner(ctx context.Context, cfg Config) (Runner, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewPipeline(cfg, client), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}
