package domain

// EventKind classifies an inbound webhook messaging event
type EventKind string

const (
	EventText        EventKind = "text"
	EventQuickReply  EventKind = "quick_reply"
	EventAttachment  EventKind = "attachment"
	EventPostback    EventKind = "postback"
	EventOptin       EventKind = "optin"
	EventDelivery    EventKind = "delivery"
	EventRead        EventKind = "read"
	EventAccountLink EventKind = "account_link"
)

// Event is a single already-parsed messaging event from the webhook gateway
type Event struct {
	SenderID    string
	RecipientID string
	Timestamp   int64
	Kind        EventKind

	// Text is set for EventText, Payload for EventPostback and
	// EventQuickReply. The remaining kinds carry no data the core uses.
	Text    string
	Payload string
}

// Postback payloads understood by the router. They arrive as opaque
// strings set on structured-message buttons.
const (
	PayloadHelp         = "/help"
	PayloadReviewSwitch = "/review_switch"
	PayloadWrongAnswer  = "/wrong-answer"
	PayloadRightAnswer  = "/right-answer"
)
