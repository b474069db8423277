package domain

import "time"

// Message is a single persisted message between two users. Immutable once
// created; the Message Store assigns ID and CreatedAt.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	ProductID   string    `json:"product_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
