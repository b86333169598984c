package model

import "time"

const StatusReceived = "Received"

// Item is a single line of an order. Its shape is owned by the client
// (the web front end sends {"name": ..., "quantity": ...}).
type Item map[string]any

type Order struct {
	ID         int64  `json:"id"`
	ClientID   string `json:"client_id"`
	Items      []Item `json:"items"`
	TotalItems int    `json:"total_items"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// OrderRow is an order as read from storage, before decoding.
type OrderRow struct {
	ID         int64
	ClientID   string
	Items      any
	TotalItems int
	Status     string
	CreatedAt  any
}

type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   int64     `json:"order_id,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
)
