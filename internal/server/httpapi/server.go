package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/blobbi/island/internal/cache"
	"github.com/blobbi/island/internal/event"
	"github.com/blobbi/island/internal/limiter"
)

// EventStore is the persistence the relay serves.
type EventStore interface {
	// Publish stores a replacement record (latest-per-document wins).
	Publish(ctx context.Context, ev event.Event) error
	// QueryLatest returns the stored events for a kind and author.
	QueryLatest(ctx context.Context, kind int, author string) ([]event.Event, error)
	// CountEvents returns the total number of stored events.
	CountEvents(ctx context.Context) (int64, error)
}

// Server holds relay handler dependencies.
type Server struct {
	store    EventStore
	lim      limiter.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewServer constructs the relay handler set.
func NewServer(store EventStore, lim limiter.Limiter, c cache.Cache, cacheTTL time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if lim == nil {
		lim = limiter.Unlimited{}
	}
	return &Server{store: store, lim: lim, cache: c, cacheTTL: cacheTTL, log: log}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router(adminJWTKey []byte) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(RequestID)
	r.Use(Logging(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.Health)
	r.Get("/events", s.GetEvents)
	r.Post("/events", s.PublishEvent)

	if len(adminJWTKey) > 0 {
		r.Group(func(r chi.Router) {
			r.Use(AdminAuth(adminJWTKey))
			r.Get("/admin/stats", s.AdminStats)
		})
	}
	return r
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetEvents serves the latest events for ?kind=&author=, cached briefly.
func (s *Server) GetEvents(w http.ResponseWriter, r *http.Request) {
	kind, err := strconv.Atoi(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad kind")
		return
	}
	author := r.URL.Query().Get("author")
	if author == "" {
		writeError(w, http.StatusBadRequest, "missing author")
		return
	}

	key := cacheKey(kind, author)
	if s.cache != nil {
		if b, err := s.cache.Get(r.Context(), key); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(b)
			return
		}
	}

	evs, err := s.store.QueryLatest(r.Context(), kind, author)
	if err != nil {
		s.log.Error("query events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if evs == nil {
		evs = []event.Event{}
	}
	body, err := json.Marshal(evs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	if s.cache != nil {
		_ = s.cache.Set(r.Context(), key, body, s.cacheTTL)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// PublishEvent verifies and stores a signed event.
func (s *Server) PublishEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad event json")
		return
	}
	if err := ev.Verify(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("verify: %v", err))
		return
	}
	if _, ok := ev.Identifier(); !ok {
		writeError(w, http.StatusBadRequest, "missing d tag")
		return
	}

	allowed, retry, err := s.lim.Allow(r.Context(), ev.PubKey)
	if err != nil {
		s.log.Error("limiter", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "limiter failed")
		return
	}
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, "rate limited")
		return
	}

	if err := s.store.Publish(r.Context(), ev); err != nil {
		s.log.Error("store event", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store failed")
		return
	}
	if s.cache != nil {
		_ = s.cache.Delete(r.Context(), cacheKey(ev.Kind, ev.PubKey))
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": ev.ID})
}

// AdminStats reports store counters.
func (s *Server) AdminStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.CountEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"events": n})
}

func cacheKey(kind int, author string) string {
	return fmt.Sprintf("events:%d:%s", kind, author)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
