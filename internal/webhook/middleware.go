package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// signatureMiddleware verifies the X-Hub-Signature header: an HMAC-SHA1
// of the raw body keyed with the app secret. A missing header is logged
// and let through; a wrong signature is rejected.
func (s *Server) signatureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		signature := r.Header.Get("X-Hub-Signature")
		if signature == "" {
			s.logger.Error("Couldn't validate the signature: header missing")
			next.ServeHTTP(w, r)
			return
		}

		method, signatureHash, found := strings.Cut(signature, "=")
		if !found || method != "sha1" {
			s.logger.Error("Couldn't validate the signature: malformed header",
				zap.String("signature", signature),
			)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		mac := hmac.New(sha1.New, []byte(s.appSecret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signatureHash), []byte(expected)) {
			s.logger.Error("Couldn't validate the request signature")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs every request with timing and status
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// recoveryMiddleware turns a handler panic into a 500 instead of
// killing the process.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic recovered in handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
