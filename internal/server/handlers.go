package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/newsverify/internal/apperr"
	"github.com/ppiankov/newsverify/internal/model"
	"github.com/ppiankov/newsverify/internal/validate"
)

// maxAPIBody caps JSON request bodies; text is at most 20000 characters
const maxAPIBody = 1 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", indexPage{
		APIConfigured: s.cfg.Verify.APIKey != "",
		Flash:         s.flash.Pop(w, r),
		MinTextLength: model.MinTextLength,
	})
}

func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.FormValue("url"))
	if raw == "" {
		s.redirectWithError(w, r, "Please provide a valid URL")
		return
	}
	s.analyzeForm(w, r, model.AnalysisRequest{Kind: model.KindURL, RawContent: raw})
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.FormValue("text"))
	if utf8.RuneCountInString(text) < model.MinTextLength {
		s.redirectWithError(w, r, "Please provide a text with at least 50 characters")
		return
	}
	s.analyzeForm(w, r, model.AnalysisRequest{Kind: model.KindText, RawContent: text})
}

func (s *Server) analyzeForm(w http.ResponseWriter, r *http.Request, req model.AnalysisRequest) {
	resp, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			s.redirectWithError(w, r, "Invalid input: "+ve.Error())
			return
		}
		s.logError(r, err)
		s.redirectWithError(w, r, "Analysis error: "+apperr.PublicMessage(err))
		return
	}
	s.render(w, "result.html", resultPage{Result: resp})
}

func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	if err := s.flash.Set(w, Flash{Category: "error", Message: msg}); err != nil {
		s.logger.Warn("set flash", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	var body validate.APIRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody))
	if err := dec.Decode(&body); err != nil {
		s.writeAPIError(w, r, &apperr.ValidationError{Msg: "JSON body required"})
		return
	}
	if err := validate.Struct(body); err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	resp, err := s.analyzer.Analyze(r.Context(), body.AnalysisRequest())
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logError(r, err)
	}
	writeJSON(w, status, errorBody{Error: apperr.PublicMessage(err), Status: "error"})
}

func (s *Server) logError(r *http.Request, err error) {
	s.logger.Error("analysis failed",
		zap.String("path", r.URL.Path),
		zap.Error(err))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusBody struct {
	Status        string          `json:"status"`
	PerplexityAPI string          `json:"perplexity_api"`
	OpenAIAPI     string          `json:"openai_api"`
	Version       string          `json:"version"`
	RateLimit     *rateLimitState `json:"rate_limit,omitempty"`
}

type rateLimitState struct {
	Limit         int `json:"limit"`
	WindowSeconds int `json:"window_seconds"`
}

func configured(key string) string {
	if key == "" {
		return "not_configured"
	}
	return "configured"
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body := statusBody{
		Status:        "online",
		PerplexityAPI: configured(s.cfg.Verify.APIKey),
		OpenAIAPI:     configured(s.cfg.LLM.APIKey),
		Version:       s.version,
	}
	if s.limiter != nil {
		body.RateLimit = &rateLimitState{
			Limit:         s.limiter.Limit(),
			WindowSeconds: int(s.limiter.Window().Seconds()),
		}
	}
	writeJSON(w, http.StatusOK, body)
}
