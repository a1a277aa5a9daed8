package messenger

import (
	"context"

	"teachme/internal/domain"
)

// Sender delivers outbound messages to one recipient. The core emits
// abstract send-intents through this interface; implementations map
// them to wire calls. Send failures are the implementation's problem
// to log; the core never reacts to them beyond the returned error.
type Sender interface {
	SendText(ctx context.Context, recipientID, text string) error
	SendButtons(ctx context.Context, recipientID, text string, buttons []domain.Button) error
	SendCards(ctx context.Context, recipientID string, items []domain.CardItem) error
	SendImage(ctx context.Context, recipientID, imageURL string) error
}
