package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"plombir/service"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

const userIDHeader = "X-User-Id"

type contextKey string

const userIDKey contextKey = "userID"

// userIDFromContext returns the caller set by requireUser
func userIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// requireUser resolves the caller from a session token, or from the legacy
// header when the deployment allows it
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.identify(r)
		if !ok {
			writeError(w, r, service.ErrUnauthenticated)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) identify(r *http.Request) (int64, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return 0, false
		}
		userID, err := s.sessions.Parse(token)
		if err != nil {
			log.WithError(err).Debug("Rejected session token")
			return 0, false
		}
		return userID, true
	}

	if s.cfg.AllowUserIDHeader {
		userID, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64)
		if err == nil && userID > 0 {
			return userID, true
		}
	}
	return 0, false
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
		}).Info("HTTP request")
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
