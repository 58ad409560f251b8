// Package api serves the authgate HTTP API.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/mail"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the collaborators and settings the router wires into handlers.
type Deps struct {
	Auth     identity.Authenticator
	Users    identity.Manager
	Codes    verification.Store
	Notifier mail.Notifier

	// AllowedOrigin is sent as Access-Control-Allow-Origin on every API
	// response.
	AllowedOrigin string
	CodeTTL       time.Duration
	MaxBodyBytes  int64
	RefreshMaxAge time.Duration

	// Ready, when set, backs the /health readiness answer.
	Ready func(context.Context) error

	// Web, when set, is mounted under /app.
	Web http.Handler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	cookies := CookieOptions{
		Secure: strings.HasPrefix(d.AllowedOrigin, "https://"),
		MaxAge: d.RefreshMaxAge,
	}

	// Preflight requests match no route, so CORS sits on the root mux
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.AllowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(allowOrigin(d.AllowedOrigin))

	r.Group(func(r chi.Router) {
		if d.MaxBodyBytes > 0 {
			r.Use(middleware.RequestSize(d.MaxBodyBytes))
		}

		r.Get("/health", healthHandler(d.Ready))

		r.Post("/register", RegisterHandler(d.Auth, d.Codes, d.Notifier, d.CodeTTL))
		r.Post("/register/verify", RegisterVerifyHandler(d.Users, d.Codes))
		r.Post("/reset", ResetHandler(d.Users, d.Codes, d.Notifier, d.CodeTTL))
		r.Post("/reset/verify", ResetVerifyHandler(d.Users, d.Codes))
		r.Post("/authenticate", AuthenticateHandler(d.Auth, cookies))
		r.Post("/authenticate/refresh", RefreshHandler(d.Auth, cookies))
	})

	if d.Web != nil {
		r.Mount("/app", d.Web)
	}
	return r
}

// allowOrigin sets Access-Control-Allow-Origin regardless of whether the
// request carried an Origin header.
func allowOrigin(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			next.ServeHTTP(w, r)
		})
	}
}

func healthHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				logging.Warn("readiness check failed", zap.Error(err))
				respondJSON(w, http.StatusServiceUnavailable, models.StatusResponse{Status: "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
	}
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		switch {
		case ww.Status() >= http.StatusInternalServerError:
			logging.Error("http request", fields...)
		case r.URL.Path == "/health" && ww.Status() == http.StatusOK:
			logging.Debug("http request", fields...)
		case ww.Status() >= http.StatusBadRequest:
			logging.Warn("http request", fields...)
		default:
			logging.Info("http request", fields...)
		}
	})
}
