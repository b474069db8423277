package domain

import "time"

// ConversationSummary is the last-message preview for one counterpart as
// returned by the conversation list endpoint. LastMessageTime is nil for a
// conversation with no persisted message yet.
type ConversationSummary struct {
	CounterpartID   string     `json:"user_id"`
	CounterpartName string     `json:"user_name"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
}

// Conversation is the derived view of the relationship between the current
// user and one counterpart. Messages is populated lazily, only for the open
// conversation. Placeholder marks a conversation synthesized from a contact
// hint before any message exists; it is never written to the Message Store.
type Conversation struct {
	Summary     ConversationSummary
	Messages    []Message
	Placeholder bool
}

// ContactHint carries a counterpart id from a "contact" action on a product
// or supplier screen into the messaging screen. ProductID is set when the
// action originated on a product page. The hint is discarded once a real
// conversation is found or the first message is sent.
type ContactHint struct {
	CounterpartID string
	ProductID     string
}
