package webhook

import "teachme/internal/domain"

// Wire types for the Messenger webhook callback body. All callbacks are
// POSTed to the same endpoint as a page subscription envelope; entries
// may be batched.

type callbackBody struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []messagingEvent `json:"messaging"`
}

type messagingEvent struct {
	Sender    party `json:"sender"`
	Recipient party `json:"recipient"`
	Timestamp int64 `json:"timestamp"`

	Optin          *optin       `json:"optin"`
	Message        *message     `json:"message"`
	Delivery       *delivery    `json:"delivery"`
	Postback       *postback    `json:"postback"`
	Read           *read        `json:"read"`
	AccountLinking *accountLink `json:"account_linking"`
}

type party struct {
	ID string `json:"id"`
}

type optin struct {
	Ref string `json:"ref"`
}

type message struct {
	MID         string       `json:"mid"`
	Text        string       `json:"text"`
	QuickReply  *quickReply  `json:"quick_reply"`
	Attachments []attachment `json:"attachments"`
}

type quickReply struct {
	Payload string `json:"payload"`
}

type attachment struct {
	Type string `json:"type"`
}

type delivery struct {
	MIDs      []string `json:"mids"`
	Watermark int64    `json:"watermark"`
	Seq       int64    `json:"seq"`
}

type postback struct {
	Payload string `json:"payload"`
}

type read struct {
	Watermark int64 `json:"watermark"`
	Seq       int64 `json:"seq"`
}

type accountLink struct {
	Status            string `json:"status"`
	AuthorizationCode string `json:"authorization_code"`
}

// toEvent classifies a raw messaging event into the core's event type.
// ok is false for shapes the gateway does not recognize.
func (m messagingEvent) toEvent() (domain.Event, bool) {
	ev := domain.Event{
		SenderID:    m.Sender.ID,
		RecipientID: m.Recipient.ID,
		Timestamp:   m.Timestamp,
	}

	switch {
	case m.Optin != nil:
		ev.Kind = domain.EventOptin
		ev.Payload = m.Optin.Ref
	case m.Message != nil && m.Message.QuickReply != nil:
		ev.Kind = domain.EventQuickReply
		ev.Payload = m.Message.QuickReply.Payload
	case m.Message != nil && m.Message.Text != "":
		ev.Kind = domain.EventText
		ev.Text = m.Message.Text
	case m.Message != nil && len(m.Message.Attachments) > 0:
		ev.Kind = domain.EventAttachment
	case m.Delivery != nil:
		ev.Kind = domain.EventDelivery
	case m.Postback != nil:
		ev.Kind = domain.EventPostback
		ev.Payload = m.Postback.Payload
	case m.Read != nil:
		ev.Kind = domain.EventRead
	case m.AccountLinking != nil:
		ev.Kind = domain.EventAccountLink
		ev.Payload = m.AccountLinking.Status
	default:
		return domain.Event{}, false
	}
	return ev, true
}
