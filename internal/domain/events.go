package domain

import "time"

// OrderPlacedEvent is published after checkout commits the order and its
// line snapshots. Consumers must tolerate redelivery.
type OrderPlacedEvent struct {
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Total     int64       `json:"total_amount"`
	Timestamp time.Time   `json:"timestamp"`
}
