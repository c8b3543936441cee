package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"clinicalcopilot/internal/app"
	"clinicalcopilot/internal/util"
	"clinicalcopilot/pkg/ai"
	"clinicalcopilot/pkg/domain"
)

const serviceName = "clinical-copilot"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// StaticDir, when set, serves the built single-page app with index.html
	// fallback routing for non-API paths.
	StaticDir string
	// TrustedProxies controls which peers may supply forwarded-for headers
	// when resolving the caller IP for request logs.
	TrustedProxies *util.TrustedProxies
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app       *app.App
	mux       *http.ServeMux
	staticDir string
	trusted   *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:       cfg.App,
		mux:       http.NewServeMux(),
		staticDir: cfg.StaticDir,
		trusted:   cfg.TrustedProxies,
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(serviceName, s.trusted, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/cases", s.handleCreateCase)
	s.mux.HandleFunc("/api/outputs", s.handleCreateOutput)
	s.mux.HandleFunc("/api/history/", s.handleHistory)
	s.mux.HandleFunc("/api/reports/generate", s.handleGenerateReport)

	if s.staticDir != "" {
		s.mux.Handle("/", spaHandler(s.staticDir))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	user, err := s.app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{User: user})
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req createCaseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Complaint) == "" {
		writeError(w, http.StatusBadRequest, "complaint is required")
		return
	}
	id, err := s.app.CreateCase(r.Context(), req.UserID, domain.CaseInput{
		Complaint: req.Complaint,
		Symptoms:  req.Symptoms,
		Vitals:    req.Vitals,
		Labs:      req.Labs,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

func (s *Server) handleCreateOutput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req createOutputRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.CaseID) == "" {
		writeError(w, http.StatusBadRequest, "case_id is required")
		return
	}
	if len(req.Content) == 0 {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	content, err := domain.ParseClinicalReport(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.app.CreateOutput(r.Context(), req.CaseID, content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

// /api/history/{user_id}
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if userID == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
		return
	}
	history, err := s.app.History(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req generateReportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Complaint) == "" {
		writeError(w, http.StatusBadRequest, "complaint is required")
		return
	}
	images := make([]ai.InlineImage, 0, len(req.Images))
	for _, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "images must be base64 encoded")
			return
		}
		images = append(images, ai.InlineImage{MIMEType: img.MIMEType, Data: data})
	}
	report, err := s.app.GenerateReport(r.Context(), domain.CaseInput{
		Complaint: req.Complaint,
		Symptoms:  req.Symptoms,
		Vitals:    req.Vitals,
		Labs:      req.Labs,
	}, images, domain.ParseLanguage(req.Language))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User domain.User `json:"user"`
}

type createCaseRequest struct {
	UserID    string `json:"user_id"`
	Complaint string `json:"complaint"`
	Symptoms  string `json:"symptoms"`
	Vitals    string `json:"vitals"`
	Labs      string `json:"labs"`
}

type createOutputRequest struct {
	CaseID  string          `json:"case_id"`
	Content json.RawMessage `json:"content"`
}

type idResponse struct {
	ID string `json:"id"`
}

type imagePayload struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateReportRequest struct {
	Complaint string         `json:"complaint"`
	Symptoms  string         `json:"symptoms"`
	Vitals    string         `json:"vitals"`
	Labs      string         `json:"labs"`
	Language  string         `json:"language"`
	Images    []imagePayload `json:"images"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
