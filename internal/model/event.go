package model

import "time"

type EventType string

const (
	PageView      EventType = "page_view"
	AddToCart     EventType = "add_to_cart"
	CheckoutStart EventType = "checkout_start"
	PaymentInfo   EventType = "payment_info"
	Purchase      EventType = "purchase"
)

// Stages returns the funnel stages in conversion order.
func Stages() []EventType {
	return []EventType{PageView, AddToCart, CheckoutStart, PaymentInfo, Purchase}
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case PageView, AddToCart, CheckoutStart, PaymentInfo, Purchase:
		return true
	}
	return false
}

// Event is one row of the user_events table. Amount is zero for
// non-purchase events. Events are append-only; nothing in this
// module updates or deletes them after load.
type Event struct {
	EventID       string    `json:"event_id" bson:"_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	EventType     EventType `json:"event_type" bson:"event_type"`
	EventDate     time.Time `json:"event_date" bson:"event_date"`
	ProductID     string    `json:"product_id" bson:"product_id"`
	Amount        float64   `json:"amount" bson:"amount"`
	TrafficSource string    `json:"traffic_source" bson:"traffic_source"`
}
