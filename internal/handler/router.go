package handler

import (
	"context"
	"strings"

	"teachme/internal/domain"
	"teachme/internal/session"

	"go.uber.org/zap"
)

// ReviewEngine is the slice of the review engine the router dispatches
// into. Satisfied by service.ReviewEngine.
type ReviewEngine interface {
	SendHelp(ctx context.Context, userID string)
	StartReview(ctx context.Context, userID string)
	StopReview(ctx context.Context, userID string)
	ToggleReview(ctx context.Context, userID string)
	SubmitAnswer(ctx context.Context, userID string, correct bool)
	HandleDefaultText(ctx context.Context, userID, text string)
}

// Router classifies inbound messaging events and dispatches them to the
// review engine or to the plain translate-and-send path.
type Router struct {
	store  *session.Store
	engine ReviewEngine
	sender textSender
	logger *zap.Logger
}

// textSender is the slice of the transport the router uses directly for
// acknowledgements outside the review flow.
type textSender interface {
	SendText(ctx context.Context, recipientID, text string) error
}

// NewRouter creates an event router
func NewRouter(store *session.Store, engine ReviewEngine, sender textSender, logger *zap.Logger) *Router {
	return &Router{
		store:  store,
		engine: engine,
		sender: sender,
		logger: logger,
	}
}

// Recognized text commands, matched case-insensitively
const (
	cmdHelp        = "help"
	cmdStartReview = "start review"
	cmdStopReview  = "stop review"
)

// HandleEvent processes a single inbound event to completion. Failures
// are isolated to this event; nothing here is fatal.
func (r *Router) HandleEvent(ctx context.Context, ev domain.Event) {
	if ev.SenderID != "" {
		// Every event touches the sender's session, creating it on
		// first contact.
		r.store.Get(ev.SenderID)
	}

	switch ev.Kind {
	case domain.EventText:
		r.handleText(ctx, ev)
	case domain.EventPostback:
		r.handlePostback(ctx, ev)
	case domain.EventQuickReply:
		r.logger.Info("Quick reply received",
			zap.String("user_id", ev.SenderID),
			zap.String("payload", ev.Payload),
		)
		r.ack(ctx, ev.SenderID, "Quick reply tapped")
	case domain.EventAttachment:
		r.ack(ctx, ev.SenderID, "Message with attachment received")
	case domain.EventOptin:
		r.logger.Info("Authentication event received",
			zap.String("user_id", ev.SenderID),
			zap.String("ref", ev.Payload),
		)
		r.ack(ctx, ev.SenderID, "Authentication successful")
	case domain.EventDelivery:
		r.logger.Debug("Delivery confirmation received",
			zap.String("user_id", ev.SenderID),
		)
	case domain.EventRead:
		r.logger.Debug("Message read event received",
			zap.String("user_id", ev.SenderID),
		)
	case domain.EventAccountLink:
		r.logger.Info("Account link event received",
			zap.String("user_id", ev.SenderID),
			zap.String("status", ev.Payload),
		)
	default:
		r.logger.Warn("Unknown event kind",
			zap.String("user_id", ev.SenderID),
			zap.String("kind", string(ev.Kind)),
		)
	}
}

func (r *Router) handleText(ctx context.Context, ev domain.Event) {
	text := strings.TrimSpace(ev.Text)

	r.logger.Info("Text message received",
		zap.String("user_id", ev.SenderID),
		zap.String("text", text),
	)

	switch strings.ToLower(text) {
	case cmdHelp:
		r.engine.SendHelp(ctx, ev.SenderID)
	case cmdStartReview:
		r.engine.StartReview(ctx, ev.SenderID)
	case cmdStopReview:
		r.engine.StopReview(ctx, ev.SenderID)
	default:
		r.engine.HandleDefaultText(ctx, ev.SenderID, text)
	}
}

func (r *Router) handlePostback(ctx context.Context, ev domain.Event) {
	r.logger.Info("Postback received",
		zap.String("user_id", ev.SenderID),
		zap.String("payload", ev.Payload),
	)

	switch ev.Payload {
	case domain.PayloadHelp:
		r.engine.SendHelp(ctx, ev.SenderID)
	case domain.PayloadReviewSwitch:
		r.engine.ToggleReview(ctx, ev.SenderID)
	case domain.PayloadWrongAnswer:
		r.engine.SubmitAnswer(ctx, ev.SenderID, false)
	case domain.PayloadRightAnswer:
		r.engine.SubmitAnswer(ctx, ev.SenderID, true)
	default:
		r.logger.Warn("Unrecognized postback payload",
			zap.String("user_id", ev.SenderID),
			zap.String("payload", ev.Payload),
		)
	}
}

func (r *Router) ack(ctx context.Context, userID, text string) {
	if err := r.sender.SendText(ctx, userID, text); err != nil {
		r.logger.Error("Failed to send acknowledgement",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
