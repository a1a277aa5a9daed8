package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"teachme/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dispatcher consumes already-parsed events. Each event is dispatched
// on its own goroutine so the webhook can acknowledge the callback
// without waiting for backend round-trips.
type Dispatcher interface {
	HandleEvent(ctx context.Context, ev domain.Event)
}

// Server is the webhook gateway: it validates subscriptions, verifies
// callback signatures, parses the callback envelope and fans events out
// to the dispatcher.
type Server struct {
	appSecret       string
	validationToken string
	assetsDir       string
	dispatcher      Dispatcher
	logger          *zap.Logger
}

// NewServer creates a webhook server. assetsDir is served under
// /assets/ (level-up gifs referenced by outbound messages).
func NewServer(appSecret, validationToken, assetsDir string, dispatcher Dispatcher, logger *zap.Logger) *Server {
	return &Server{
		appSecret:       appSecret,
		validationToken: validationToken,
		assetsDir:       assetsDir,
		dispatcher:      dispatcher,
		logger:          logger,
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/webhook", s.handleVerification)
	r.With(s.signatureMiddleware).Post("/webhook", s.handleCallback)
	r.Get("/authorize", s.handleAuthorize)

	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(s.assetsDir))))
	return r
}

// handleVerification answers the platform's subscription handshake:
// echo hub.challenge when the verify token matches, 403 otherwise.
func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.validationToken {
		s.logger.Info("Validating webhook")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}

	s.logger.Error("Webhook validation failed, verify tokens do not match")
	w.WriteHeader(http.StatusForbidden)
}

// handleCallback fans a page-subscription envelope out to the
// dispatcher. The platform requires a 200 within seconds; events are
// dispatched asynchronously so slow backends cannot time the callback
// out.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	var body callbackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("Failed to decode webhook body", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if body.Object != "page" {
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, ent := range body.Entry {
		for _, raw := range ent.Messaging {
			ev, ok := raw.toEvent()
			if !ok {
				s.logger.Warn("Webhook received unknown messaging event",
					zap.String("page_id", ent.ID),
				)
				continue
			}
			go s.dispatcher.HandleEvent(context.Background(), ev)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// handleAuthorize completes account linking: the login page would
// normally collect credentials here; this build issues the
// authorization code straight away and bounces back to the platform.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountLinkingToken := q.Get("account_linking_token")
	redirectURI := q.Get("redirect_uri")

	if redirectURI == "" {
		http.Error(w, "missing redirect_uri", http.StatusBadRequest)
		return
	}

	// Authorization codes should be generated per user; the sample
	// backend accepts any non-empty value.
	const authCode = "1234567890"

	s.logger.Info("Account linking authorize",
		zap.String("account_linking_token", accountLinkingToken),
	)

	http.Redirect(w, r, redirectURI+"&authorization_code="+authCode, http.StatusFound)
}
