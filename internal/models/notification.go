// internal/models/notification.go
package models

import "time"

// Channel is a delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Channels lists the channels in dispatch order.
var Channels = []Channel{ChannelEmail, ChannelSMS}

// Event is an order lifecycle milestone.
type Event string

const (
	EventOrderConfirmation Event = "order_confirmation"
	EventOrderShipped      Event = "order_shipped"
	EventOutForDelivery    Event = "out_for_delivery"
	EventDelivered         Event = "delivered"
	EventCancelled         Event = "cancelled"
)

// Events lists every lifecycle event, including the reserved cancelled event.
var Events = []Event{
	EventOrderConfirmation,
	EventOrderShipped,
	EventOutForDelivery,
	EventDelivered,
	EventCancelled,
}

// ParseEvent maps a wire value to a known Event.
func ParseEvent(s string) (Event, bool) {
	for _, e := range Events {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// Status is the outcome of one send attempt.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// NotificationPreferences are the per-user opt-in flags.
type NotificationPreferences struct {
	Email                 bool `json:"email"`
	SMS                   bool `json:"sms"`
	OrderConfirmation     bool `json:"orderConfirmation"`
	ShippingUpdates       bool `json:"shippingUpdates"`
	DeliveryNotifications bool `json:"deliveryNotifications"`
	PromotionalOffers     bool `json:"promotionalOffers"`
}

// DefaultPreferences enables every transactional notification and leaves
// promotional offers off.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		Email:                 true,
		SMS:                   true,
		OrderConfirmation:     true,
		ShippingUpdates:       true,
		DeliveryNotifications: true,
		PromotionalOffers:     false,
	}
}

// ChannelEnabled reports the channel-level flag.
func (p NotificationPreferences) ChannelEnabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.SMS
	default:
		return false
	}
}

// Product is the catalog part of an order line.
type Product struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OrderItem is one order line.
type OrderItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// NotificationData is the order snapshot handed in per dispatch call. Empty
// optional fields fall back to renderer defaults.
type NotificationData struct {
	OrderID       string      `json:"orderId"`
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail"`
	CustomerPhone string      `json:"customerPhone"`
	OrderTotal    float64     `json:"orderTotal"`
	Items         []OrderItem `json:"items"`

	TrackingNumber    string `json:"trackingNumber,omitempty"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
	DeliveryAddress   string `json:"deliveryAddress,omitempty"`
	CourierPartner    string `json:"courierPartner,omitempty"`
	DeliveryDate      string `json:"deliveryDate,omitempty"`
}

// Contact returns the recipient address for a channel.
func (d NotificationData) Contact(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return d.CustomerEmail
	case ChannelSMS:
		return d.CustomerPhone
	default:
		return ""
	}
}

// NotificationRecord is one history entry.
type NotificationRecord struct {
	ID        string    `json:"id"`
	Channel   Channel   `json:"type"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`

	Event   Event  `json:"event,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CustomerProfile is the subset of a user profile used for test sends.
type CustomerProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
