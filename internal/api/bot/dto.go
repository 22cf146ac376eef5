package bot

import "time"

// ApologyText is the generic failure reply. The user never sees a raw
// error: they get an answer, a menu, a confirmation or this.
const ApologyText = "Sorry, I could not fetch a story right now. Please try again in a little while."

// TwilioWebhookRequest is the form body Twilio posts for an inbound
// WhatsApp message. Only the fields the router needs are mapped.
type TwilioWebhookRequest struct {
	From        string `form:"From" validate:"required"`
	Body        string `form:"Body"`
	MessageSid  string `form:"MessageSid"`
	ProfileName string `form:"ProfileName"`
}

// WebhookRequest is the JSON variant consumed by transports that expect
// an out-of-band reply instead of a response document.
type WebhookRequest struct {
	Sender  string `json:"sender" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type WebhookAck struct {
	Status   string `json:"status"`
	Messages int    `json:"messages,omitempty"`
}

// ReplyMessage is one outbound message part: text, optionally with a
// hosted audio attachment. MediaExpiresAt is set when the media host
// issued a signed link.
type ReplyMessage struct {
	Text           string     `json:"text"`
	MediaURL       string     `json:"media_url,omitempty"`
	MediaExpiresAt *time.Time `json:"media_expires_at,omitempty"`
}

type Reply struct {
	Messages []ReplyMessage `json:"messages"`
}

func TextReply(text string) *Reply {
	return &Reply{Messages: []ReplyMessage{{Text: text}}}
}

type LanguageInfo struct {
	Index int    `json:"index"`
	Code  string `json:"code"`
	Name  string `json:"name"`
}

type LanguagesResponse struct {
	Languages []LanguageInfo `json:"languages"`
}
