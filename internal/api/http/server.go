package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	appAuth "github.com/same-say/same-say/internal/application/auth"
	appCrud "github.com/same-say/same-say/internal/application/crud"
	appGame "github.com/same-say/same-say/internal/application/game"
	appInteraction "github.com/same-say/same-say/internal/application/interaction"
)

// Verifier checks a request signature over timestamp and raw body.
type Verifier interface {
	Verify(signature, timestamp string, body []byte) error
}

// maxBodyBytes bounds request bodies; the crud collaborator accepts
// values up to 10 MiB.
const maxBodyBytes = 11 << 20

const requestTimeout = 30 * time.Second

// Server holds dependencies for HTTP handlers.
type Server struct {
	verifier    Verifier
	router      *appInteraction.Router
	gameSvc     *appGame.Service
	authSvc     *appAuth.Service
	crudSvc     *appCrud.Service
	corsOrigins []string
	logger      zerolog.Logger
}

// Deps bundles the services the server routes to.
type Deps struct {
	Verifier    Verifier
	Router      *appInteraction.Router
	GameSvc     *appGame.Service
	AuthSvc     *appAuth.Service
	CrudSvc     *appCrud.Service
	CORSOrigins []string
}

func NewServer(deps Deps, logger zerolog.Logger) *Server {
	return &Server{
		verifier:    deps.Verifier,
		router:      deps.Router,
		gameSvc:     deps.GameSvc,
		authSvc:     deps.AuthSvc,
		crudSvc:     deps.CrudSvc,
		corsOrigins: deps.CORSOrigins,
		logger:      logger,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(recoverJSON)
	r.Use(timeoutJSON(requestTimeout))

	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/", s.echo)

		r.Route("/discord", func(r chi.Router) {
			r.With(s.verifySignature).Post("/", s.handleInteraction)
			r.Post("/game", s.submitGame)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.cors())

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.login)
				r.Post("/logout", s.logout)
			})

			r.Route("/web/crud", func(r chi.Router) {
				r.Use(s.requireSession)
				r.Post("/create", s.crudCreate)
				r.Post("/get", s.crudGet)
				r.Post("/update", s.crudUpdate)
				r.Post("/delete", s.crudDelete)
			})
		})
	})

	return r
}

func (s *Server) cors() func(http.Handler) http.Handler {
	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type echoRequest struct {
	Message any `json:"message"`
}

func (s *Server) echo(w http.ResponseWriter, r *http.Request) {
	var req echoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			log := zerolog.Ctx(r.Context())
			log.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

// recoverJSON turns a handler panic into a JSON 500.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			hlog.FromRequest(r).Error().Interface("panic", rec).Msg("handler panicked")
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// timeoutJSON bounds the request context like chi's middleware.Timeout but
// answers with a JSON body when the handler gave up without writing.
func timeoutJSON(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))
			if ww.Status() == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				respondError(w, http.StatusGatewayTimeout, "TIMEOUT", "request timed out")
			}
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
