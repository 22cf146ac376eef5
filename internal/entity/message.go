package entity

// InboundMessage is one webhook delivery, consumed once and never stored.
// Sender is whatever identity string the transport provides; it is used
// verbatim as the preference-store key.
type InboundMessage struct {
	Sender string
	Body   string
}
