package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/MikhailRaia/secure-shortener/internal/logger"
	"github.com/MikhailRaia/secure-shortener/internal/middleware"
	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/pool"
	"github.com/MikhailRaia/secure-shortener/internal/service"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const bufferPoolSize = 64

type LinkService interface {
	Create(ctx context.Context, originalURL, ownerID string) (model.ShortLink, error)
	Resolve(ctx context.Context, code string) (string, error)
	List(ctx context.Context, ownerID string) ([]model.ShortLink, error)
	ShortURL(requestBase, code string) string
	Stats(ctx context.Context) (int, int, error)
}

type DBPinger interface {
	Ping(ctx context.Context) error
}

// OAuthFlow serves the sign-in endpoints.
type OAuthFlow interface {
	Login(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
}

type Handler struct {
	linkService LinkService
	dbPinger    DBPinger
	auth        *middleware.AuthMiddleware
	oauth       OAuthFlow
	buffers     *pool.Pool[*bytes.Buffer]
}

type Option func(*Handler)

// WithAuth verifies identity tokens on the link endpoints.
func WithAuth(auth *middleware.AuthMiddleware) Option {
	return func(h *Handler) {
		h.auth = auth
	}
}

// WithOAuth mounts /auth/login and /auth/callback.
func WithOAuth(oauth OAuthFlow) Option {
	return func(h *Handler) {
		h.oauth = oauth
	}
}

func NewHandler(linkService LinkService, dbPinger DBPinger, opts ...Option) *Handler {
	h := &Handler{
		linkService: linkService,
		dbPinger:    dbPinger,
		buffers: pool.New(bufferPoolSize, func() *bytes.Buffer {
			return new(bytes.Buffer)
		}),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(logger.RequestLogger)

	r.Use(middleware.CORS)
	r.Use(middleware.GzipReader)
	r.Use(middleware.GzipMiddleware)

	r.NotFound(h.handleNotFound)
	r.MethodNotAllowed(h.handleMethodNotAllowed)

	r.Get("/ping", h.handlePing)
	r.Get("/stats", h.handleStats)

	if h.oauth != nil {
		r.Get("/auth/login", h.oauth.Login)
		r.Get("/auth/callback", h.oauth.Callback)
	}

	r.Get("/urls/{code}", h.handleRedirect)
	r.Get("/{code}", h.handleRedirect)

	r.Group(func(r chi.Router) {
		if h.auth != nil {
			r.Use(h.auth.Authenticate)
		}

		r.Post("/urls", h.handleCreate)
		r.Get("/urls", h.handleList)
	})

	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	defer r.Body.Close()

	var request model.CreateRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &request); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
	}

	ownerID, err := middleware.ResolveOwner(r.Context(), request.UserID)
	if err != nil {
		h.writeError(w, http.StatusForbidden, "userId does not match the signed-in user")
		return
	}

	if request.URL == "" || ownerID == "" {
		h.writeError(w, http.StatusBadRequest, "URL and userId are required")
		return
	}

	link, err := h.linkService.Create(r.Context(), request.URL, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.writeError(w, http.StatusBadRequest, "Invalid URL format")
		case errors.Is(err, service.ErrInvalidInput):
			h.writeError(w, http.StatusBadRequest, "URL and userId are required")
		default:
			h.writeInternalError(w, r, err)
		}
		return
	}

	log.Debug().Str("code", link.Code).Str("userID", ownerID).Msg("Short link created")

	h.writeJSON(w, http.StatusOK, model.CreateResponse{
		ShortCode: link.Code,
		ShortURL:  h.linkService.ShortURL(requestBase(r), link.Code),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.ResolveOwner(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.writeError(w, http.StatusForbidden, "userId does not match the signed-in user")
		return
	}

	if ownerID == "" {
		h.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	links, err := h.linkService.List(r.Context(), ownerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, "userId is required")
			return
		}
		h.writeInternalError(w, r, err)
		return
	}

	base := requestBase(r)
	response := model.ListResponse{
		URLs: make([]model.UserURL, 0, len(links)),
	}
	for _, link := range links {
		response.URLs = append(response.URLs, model.UserURL{
			ShortCode:   link.Code,
			OriginalURL: link.OriginalURL,
			ShortURL:    h.linkService.ShortURL(base, link.Code),
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	originalURL, err := h.linkService.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, service.ErrInvalidInput) {
			h.writeError(w, http.StatusNotFound, "URL not found")
			return
		}
		h.writeInternalError(w, r, err)
		return
	}

	w.Header().Del("Content-Type")
	w.Header().Set("Location", originalURL)
	w.WriteHeader(http.StatusFound)
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	if h.dbPinger == nil {
		h.writeError(w, http.StatusInternalServerError, "Storage is not configured")
		return
	}

	if err := h.dbPinger.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("Storage ping failed")
		h.writeError(w, http.StatusInternalServerError, "Storage is unavailable")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	urls, users, err := h.linkService.Stats(r.Context())
	if err != nil {
		h.writeInternalError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, model.StatsResponse{
		URLs:  urls,
		Users: users,
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, "Not found")
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// requestBase derives scheme://host of the incoming request for short URLs
// when no base URL is configured.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	return scheme + "://" + r.Host
}
