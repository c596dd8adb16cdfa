package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/emrgen/lexicon/internal/auth"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestTimeInterceptor logs every request with its status and duration.
func RequestTimeInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Info("request")
	})
}

// ActorInterceptor resolves the acting user and stores it in the request
// context. Requests without an actor pass through, handlers that write
// reject them.
func ActorInterceptor(provider auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := provider.Actor(r)
			if err != nil {
				if !errors.Is(err, auth.ErrNoActor) {
					writeError(w, r, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func actorOf(r *http.Request) (moderation.Actor, error) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		return moderation.Actor{}, auth.ErrNoActor
	}
	return actor, nil
}
