package dispatch

import (
	"context"
	"time"

	"order-notifications/internal/models"
)

const (
	testOrderID         = "TEST123"
	testDeliveryAddress = "123 Test Street, Test City"
	testCustomerName    = "Test User"
	testCustomerEmail   = "test@example.com"
	testCustomerPhone   = "+91 9876543210"
	testProductName     = "Test Product"
	testProductPrice    = 1299
	testDeliveryDays    = 3
)

// TestOrder builds the sample order used by test sends. Missing profile
// fields fall back to placeholder contacts.
func (s *Service) TestOrder(profile models.CustomerProfile) models.NotificationData {
	return models.NotificationData{
		OrderID:       testOrderID,
		CustomerName:  orDefault(profile.Name, testCustomerName),
		CustomerEmail: orDefault(profile.Email, testCustomerEmail),
		CustomerPhone: orDefault(profile.Phone, testCustomerPhone),
		OrderTotal:    testProductPrice,
		Items: []models.OrderItem{
			{Product: models.Product{ID: "test", Name: testProductName, Price: testProductPrice}, Quantity: 1},
		},
		EstimatedDelivery: s.renderer.FormatDate(s.now().Add(testDeliveryDays * 24 * time.Hour)),
		DeliveryAddress:   testDeliveryAddress,
	}
}

// SendTestNotification sends an order confirmation for a sample order to
// the user's own contacts.
func (s *Service) SendTestNotification(ctx context.Context, userID string, profile models.CustomerProfile) (*Result, error) {
	return s.SendOrderNotification(ctx, models.EventOrderConfirmation, s.TestOrder(profile), userID)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
