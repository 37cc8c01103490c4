// Package server exposes the HTTP API surface. It maps requests onto the
// core application and translates error kinds into status codes; all
// domain decisions live in internal/app.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shelfmark/internal/app"
	"shelfmark/internal/ratelimit"
	"shelfmark/internal/util"
	"shelfmark/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes HTTP endpoints for the catalog service.
type Server struct {
	app     *app.App
	limiter *ratelimit.FixedWindowLimiter
	trusted *util.TrustedProxies
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	s := &Server{
		app:     cfg.App,
		limiter: cfg.Limiter,
		trusted: cfg.TrustedProxies,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("shelfmark", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/books", s.handleBooks)
	s.mux.HandleFunc("/books/", s.handleBookPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateBook(w, r)
	case http.MethodGet:
		s.handleListBooks(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /books/{id}, /books/{id}/qrcode, /books/scan, /books/search,
// /books/import, /books/external/{volumeID}
func (s *Server) handleBookPath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/books/")
	parts := strings.SplitN(path, "/", 2)
	head := parts[0]

	switch head {
	case "":
		notFound(w)
		return
	case "scan":
		if len(parts) != 1 {
			notFound(w)
			return
		}
		s.handleScan(w, r)
		return
	case "search":
		if len(parts) != 1 {
			notFound(w)
			return
		}
		s.withProviderLimit(w, r, s.handleSearch)
		return
	case "import":
		if len(parts) != 1 {
			notFound(w)
			return
		}
		s.withProviderLimit(w, r, s.handleImport)
		return
	case "external":
		if len(parts) != 2 || parts[1] == "" {
			notFound(w)
			return
		}
		s.withProviderLimit(w, r, func(w http.ResponseWriter, r *http.Request) {
			s.handleExternalDetail(w, r, parts[1])
		})
		return
	}

	id, err := strconv.ParseUint(head, 10, 64)
	if err != nil || id == 0 {
		notFound(w)
		return
	}
	if len(parts) == 2 {
		if parts[1] != "qrcode" {
			notFound(w)
			return
		}
		s.handleQRCode(w, r, id)
		return
	}
	s.handleBookByID(w, r, id)
}

// withProviderLimit applies the per-client fixed-window limiter before
// provider-backed handlers. A nil limiter disables limiting.
func (s *Server) withProviderLimit(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if s.limiter != nil && !s.limiter.Allow(util.ClientIP(r, s.trusted)) {
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
		return
	}
	next(w, r)
}

type bookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	Description     string `json:"description"`
	PublicationDate string `json:"publicationDate"`
}

func (req bookRequest) toInput() (app.BookInput, error) {
	in := app.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Description: req.Description,
	}
	if strings.TrimSpace(req.PublicationDate) != "" {
		t, err := time.Parse("2006-01-02", strings.TrimSpace(req.PublicationDate))
		if err != nil {
			return app.BookInput{}, errors.New("publicationDate must be YYYY-MM-DD")
		}
		in.PublicationDate = &t
	}
	return in, nil
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "BOOK_INVALID_REQUEST", err.Error())
		return
	}
	book, err := s.app.CreateBook(r.Context(), in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1)
	pageSize := intQuery(r, "pageSize", 20)
	if pageSize > 100 {
		pageSize = 100
	}
	books, total, err := s.app.ListBooks(r.Context(), page, pageSize)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    books,
		"count":    len(books),
		"page":     page,
		"pageSize": pageSize,
		"total":    total,
	})
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, id uint64) {
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.GetBook(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPut, http.MethodPatch:
		var req bookRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeError(w, http.StatusBadRequest, "BOOK_INVALID_REQUEST", err.Error())
			return
		}
		book, err := s.app.UpdateBook(r.Context(), id, in, r.Method == http.MethodPatch)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodDelete:
		if err := s.app.DeleteBook(r.Context(), id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request, id uint64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	qrCode, err := s.app.EnsureQRCode(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qrCode)
}

type scanRequest struct {
	QRData string `json:"qrData"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	book, err := s.app.ScanQRCode(r.Context(), req.QRData)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query string
	var maxResults int
	switch r.Method {
	case http.MethodGet:
		query = r.URL.Query().Get("query")
		maxResults = intQuery(r, "maxResults", 0)
	case http.MethodPost:
		var req searchRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		query = req.Query
		maxResults = req.MaxResults
	default:
		methodNotAllowed(w)
		return
	}
	candidates, total, err := s.app.SearchCatalog(r.Context(), query, maxResults)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":        query,
		"totalResults": total,
		"count":        len(candidates),
		"items":        candidates,
	})
}

// handleExternalDetail fetches one provider record and saves it through the
// reconciler, returning the provider view, the saved book and the created flag.
func (s *Server) handleExternalDetail(w http.ResponseWriter, r *http.Request, volumeID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	cand, book, created, err := s.app.ExternalDetail(r.Context(), volumeID, util.ClientIP(r, s.trusted))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"googleBooksData": cand,
		"savedBook":       book,
		"created":         created,
	})
}

type importRequest struct {
	VolumeID string `json:"volumeId"`
	Query    string `json:"query"`
	Index    int    `json:"index"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	requestedBy := util.ClientIP(r, s.trusted)
	var book domain.Book
	var created bool
	var err error
	switch {
	case strings.TrimSpace(req.VolumeID) != "":
		book, created, err = s.app.ImportByExternalID(r.Context(), req.VolumeID, requestedBy)
	default:
		book, created, err = s.app.ImportByQuery(r.Context(), req.Query, req.Index, requestedBy)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, book)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "BOOK_INVALID_REQUEST", "invalid JSON body")
		return false
	}
	return true
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "SYSTEM_METHOD_NOT_ALLOWED", "method not allowed")
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "SYSTEM_NOT_FOUND", "not found")
}

// writeAppError translates the shared error kinds into HTTP responses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "BOOK_INVALID_REQUEST", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "BOOK_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "SYSTEM_INTERNAL_ERROR", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}
