// Package dispatch decides which channels fire for an order event and sends
// them.
package dispatch

import "order-notifications/internal/models"

// Category names the preference flag that gates an event.
type Category string

const (
	CategoryOrderConfirmation     Category = "orderConfirmation"
	CategoryShippingUpdates       Category = "shippingUpdates"
	CategoryDeliveryNotifications Category = "deliveryNotifications"
	CategoryAlways                Category = "always"
)

var eventCategories = map[models.Event]Category{
	models.EventOrderConfirmation: CategoryOrderConfirmation,
	models.EventOrderShipped:      CategoryShippingUpdates,
	models.EventOutForDelivery:    CategoryShippingUpdates,
	models.EventDelivered:         CategoryDeliveryNotifications,
	models.EventCancelled:         CategoryAlways,
}

// CategoryFor returns the gating category of event.
func CategoryFor(event models.Event) (Category, bool) {
	c, ok := eventCategories[event]
	return c, ok
}

// CategoryEnabled reports whether prefs allow event at all. Cancellations
// are always allowed.
func CategoryEnabled(prefs models.NotificationPreferences, event models.Event) bool {
	switch eventCategories[event] {
	case CategoryOrderConfirmation:
		return prefs.OrderConfirmation
	case CategoryShippingUpdates:
		return prefs.ShippingUpdates
	case CategoryDeliveryNotifications:
		return prefs.DeliveryNotifications
	case CategoryAlways:
		return true
	default:
		return false
	}
}

// SkipReason explains why a channel did not fire.
type SkipReason string

const (
	SkipChannelDisabled SkipReason = "channel_disabled"
	SkipNoContact       SkipReason = "no_contact"
	SkipNoTemplate      SkipReason = "no_template"
	SkipNoSender        SkipReason = "no_sender"
)

// Skip is one channel that was not dispatched.
type Skip struct {
	Channel models.Channel `json:"channel"`
	Reason  SkipReason     `json:"reason"`
}

// Result describes what one SendOrderNotification call did.
type Result struct {
	Event      models.Event                `json:"event"`
	OrderID    string                      `json:"orderId"`
	UserID     string                      `json:"userId"`
	Suppressed bool                        `json:"suppressed"`
	Records    []models.NotificationRecord `json:"records"`
	Skipped    []Skip                      `json:"skipped,omitempty"`
}

// Sent counts records with status sent.
func (r *Result) Sent() int {
	return r.count(models.StatusSent)
}

// Failed counts records with status failed.
func (r *Result) Failed() int {
	return r.count(models.StatusFailed)
}

func (r *Result) count(status models.Status) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Status == status {
			n++
		}
	}
	return n
}
