// Package server provides the HTTP and websocket surface of the dashboard.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/f1-telemetry-dashboard-go/log"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/notify"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/pkg/source"
	"github.com/mpapenbr/f1-telemetry-dashboard-go/version"
)

type (
	Server struct {
		da        source.DataAccess
		resolver  *source.Resolver
		year      int
		publisher notify.Publisher
		upgrader  websocket.Upgrader
		l         *log.Logger
	}
	Option func(*Server)
)

func WithYear(year int) Option {
	return func(s *Server) {
		s.year = year
	}
}

// WithPublisher sets where session changes of connections are published.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Server) {
		s.publisher = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.l = l
	}
}

// New creates a server. The resolver and its schedule cache are shared by
// all connections, each connection gets its own session store.
func New(da source.DataAccess, resolver *source.Resolver, opts ...Option) *Server {
	ret := &Server{
		da:       da,
		resolver: resolver,
		year:     time.Now().Year(),
		l:        log.Default().Named("server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.publisher == nil {
		ret.publisher = notify.LogPublisher(ret.l)
	}
	return ret
}

// Router returns the routes without any middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLogger)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	api.HandleFunc("/events", s.events).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWS)
	return r
}

// Handler returns the router wrapped with CORS and h2c support.
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(newCORS().Handler(s.Router()), &http2.Server{})
}

// requestLogger puts a logger tagged with a request id into the request context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.l.With(log.String("req", uuid.NewString()))
		l.Debug("request", log.String("method", r.Method), log.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(log.AddToContext(r.Context(), l)))
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	year := s.year
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid year"))
			return
		}
		year = y
	}
	events, err := s.resolver.Events(r.Context(), year)
	if err != nil {
		log.GetFromContext(r.Context()).Warn("could not list events", log.Int("year", year), log.ErrorField(err))
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Default().Named("server").Debug("could not write response", log.ErrorField(err))
	}
}

func newCORS() *cors.Cors {
	// permissive, the dashboard frontend may be served from anywhere
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}
