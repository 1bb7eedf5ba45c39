package render

import (
	"strings"
	"testing"
	"time"

	"order-notifications/internal/models"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2025, time.March, 7, 10, 30, 0, 0, time.UTC)

func newTestRenderer() *Renderer {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func createTestData() models.NotificationData {
	return models.NotificationData{
		OrderID:       "TEST123",
		CustomerName:  "Test User",
		CustomerEmail: "t@example.com",
		CustomerPhone: "+919876543210",
		OrderTotal:    1299,
		Items: []models.OrderItem{
			{Product: models.Product{Name: "Test Product", Price: 1299}, Quantity: 1},
		},
	}
}

func allTokensTemplate() string {
	var b strings.Builder
	for _, tok := range SupportedTokens {
		b.WriteString(tok + "=[{{" + tok + "}}] ")
	}
	return b.String()
}

// ==========================
// Core Functionality Tests
// ==========================

func TestRender_Tokens(t *testing.T) {
	r := newTestRenderer()

	tests := []struct {
		name     string
		template string
		mutate   func(d *models.NotificationData)
		want     string
	}{
		{name: "customer name", template: "Hi {{customerName}}", want: "Hi Test User"},
		{name: "order id repeated", template: "{{orderId}}/{{orderId}}", want: "TEST123/TEST123"},
		{name: "order total grouped", template: "₹{{orderTotal}}", want: "₹1,299"},
		{
			name:     "fractional total",
			template: "{{orderTotal}}",
			mutate:   func(d *models.NotificationData) { d.OrderTotal = 1499.5 },
			want:     "1,499.5",
		},
		{name: "tracking fallback", template: "{{trackingNumber}}", want: "N/A"},
		{
			name:     "tracking supplied",
			template: "{{trackingNumber}}",
			mutate:   func(d *models.NotificationData) { d.TrackingNumber = "TRK1" },
			want:     "TRK1",
		},
		{name: "estimated delivery fallback", template: "{{estimatedDelivery}}", want: "TBD"},
		{name: "delivery address fallback", template: "[{{deliveryAddress}}]", want: "[]"},
		{name: "courier fallback", template: "{{courierPartner}}", want: "Standard Delivery"},
		{
			name:     "courier supplied",
			template: "{{courierPartner}}",
			mutate:   func(d *models.NotificationData) { d.CourierPartner = "FastTrack Express" },
			want:     "FastTrack Express",
		},
		{name: "delivery date from clock", template: "{{deliveryDate}}", want: "3/7/2025"},
		{
			name:     "delivery date supplied",
			template: "{{deliveryDate}}",
			mutate:   func(d *models.NotificationData) { d.DeliveryDate = "1/1/2025" },
			want:     "1/1/2025",
		},
		{name: "unknown token left verbatim", template: "{{couponCode}} {{orderId}}", want: "{{couponCode}} TEST123"},
		{name: "no tokens", template: "plain text", want: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := createTestData()
			if tt.mutate != nil {
				tt.mutate(&data)
			}
			assert.Equal(t, tt.want, r.Render(tt.template, data))
		})
	}
}

func TestRender_ItemsList(t *testing.T) {
	r := newTestRenderer()
	data := createTestData()
	data.Items = append(data.Items, models.OrderItem{
		Product:  models.Product{Name: "Mug <Large>", Price: 24999},
		Quantity: 2,
	})

	out := r.Render("<h3>Items</h3>{{itemsList}}", data)

	assert.Contains(t, out, "<strong>Test Product</strong>")
	assert.Contains(t, out, "Qty: 1 | Price: ₹1,299")
	assert.Contains(t, out, "<strong>Mug &lt;Large&gt;</strong>")
	assert.Contains(t, out, "Qty: 2 | Price: ₹24,999")
	assert.Equal(t, 2, strings.Count(out, `<div style="border-bottom: 1px solid #eee; padding: 10px 0;">`))
}

func TestRender_ItemsListEmpty(t *testing.T) {
	data := createTestData()
	data.Items = nil
	assert.Equal(t, "items:", newTestRenderer().Render("items:{{itemsList}}", data))
}

func TestRender_NoSupportedTokenSurvives(t *testing.T) {
	out := newTestRenderer().Render(allTokensTemplate(), createTestData())
	assert.NotContains(t, out, "{{")
	assert.Empty(t, Tokens(out))
}

func TestRender_Idempotent(t *testing.T) {
	r := newTestRenderer()
	data := createTestData()

	once := r.Render(allTokensTemplate()+" {{unknown}}", data)
	twice := r.Render(once, data)
	assert.Equal(t, once, twice)
}

func TestRender_ValuesAreNotRescanned(t *testing.T) {
	data := createTestData()
	data.CustomerName = "{{orderId}}"

	out := newTestRenderer().Render("Hi {{customerName}}", data)
	assert.Equal(t, "Hi {{orderId}}", out)
}

func TestRender_LocaleAndLayout(t *testing.T) {
	r := New(
		WithLocale(language.German),
		WithDateLayout("02.01.2006"),
		WithClock(func() time.Time { return fixedNow }),
	)
	data := createTestData()
	data.OrderTotal = 1234567

	assert.Equal(t, "1.234.567 07.03.2025", r.Render("{{orderTotal}} {{deliveryDate}}", data))
}

func TestTokens(t *testing.T) {
	assert.Equal(t,
		[]string{"orderId", "customerName", "custom"},
		Tokens("{{orderId}} {{customerName}} {{orderId}} {{custom}} {not}"),
	)
	assert.True(t, IsSupported("itemsList"))
	assert.False(t, IsSupported("couponCode"))
}
