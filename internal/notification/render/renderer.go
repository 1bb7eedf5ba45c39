// Package render substitutes order payload fields into notification
// templates.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"order-notifications/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultDateLayout = "1/2/2006"

	fallbackTrackingNumber    = "N/A"
	fallbackEstimatedDelivery = "TBD"
	fallbackCourierPartner    = "Standard Delivery"
)

// DefaultLocale groups amounts the way the storefront displays rupees.
var DefaultLocale = language.MustParse("en-IN")

// Supported tokens.
const (
	TokenCustomerName      = "customerName"
	TokenOrderID           = "orderId"
	TokenOrderTotal        = "orderTotal"
	TokenTrackingNumber    = "trackingNumber"
	TokenEstimatedDelivery = "estimatedDelivery"
	TokenDeliveryAddress   = "deliveryAddress"
	TokenCourierPartner    = "courierPartner"
	TokenDeliveryDate      = "deliveryDate"
	TokenItemsList         = "itemsList"
)

// SupportedTokens is the full substitution table.
var SupportedTokens = []string{
	TokenCustomerName,
	TokenOrderID,
	TokenOrderTotal,
	TokenTrackingNumber,
	TokenEstimatedDelivery,
	TokenDeliveryAddress,
	TokenCourierPartner,
	TokenDeliveryDate,
	TokenItemsList,
}

var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Clock supplies the render-time date for the deliveryDate fallback.
type Clock func() time.Time

// Renderer is safe for concurrent use.
type Renderer struct {
	printer    *message.Printer
	dateLayout string
	now        Clock
}

type Option func(*Renderer)

func WithLocale(tag language.Tag) Option {
	return func(r *Renderer) { r.printer = message.NewPrinter(tag) }
}

func WithDateLayout(layout string) Option {
	return func(r *Renderer) {
		if layout != "" {
			r.dateLayout = layout
		}
	}
}

func WithClock(now Clock) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{
		printer:    message.NewPrinter(DefaultLocale),
		dateLayout: DefaultDateLayout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render replaces every supported {{token}} in one pass. Unknown tokens are
// left verbatim, and substituted values are never rescanned.
func (r *Renderer) Render(tmpl string, data models.NotificationData) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[2 : len(match)-2]
		if v, ok := r.value(name, data); ok {
			return v
		}
		return match
	})
}

func (r *Renderer) value(token string, data models.NotificationData) (string, bool) {
	switch token {
	case TokenCustomerName:
		return data.CustomerName, true
	case TokenOrderID:
		return data.OrderID, true
	case TokenOrderTotal:
		return r.FormatAmount(data.OrderTotal), true
	case TokenTrackingNumber:
		return orDefault(data.TrackingNumber, fallbackTrackingNumber), true
	case TokenEstimatedDelivery:
		return orDefault(data.EstimatedDelivery, fallbackEstimatedDelivery), true
	case TokenDeliveryAddress:
		return data.DeliveryAddress, true
	case TokenCourierPartner:
		return orDefault(data.CourierPartner, fallbackCourierPartner), true
	case TokenDeliveryDate:
		if data.DeliveryDate != "" {
			return data.DeliveryDate, true
		}
		return r.FormatDate(r.now()), true
	case TokenItemsList:
		return r.itemsList(data.Items), true
	default:
		return "", false
	}
}

func (r *Renderer) itemsList(items []models.OrderItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, `<div style="border-bottom: 1px solid #eee; padding: 10px 0;">
  <strong>%s</strong><br>
  Qty: %d | Price: ₹%s
</div>`, html.EscapeString(item.Product.Name), item.Quantity, r.FormatAmount(item.Product.Price))
	}
	return b.String()
}

// FormatAmount groups digits for the configured locale, e.g. 1299 -> "1,299".
func (r *Renderer) FormatAmount(v float64) string {
	return r.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatDate formats t with the configured date layout.
func (r *Renderer) FormatDate(t time.Time) string {
	return t.Format(r.dateLayout)
}

// Now returns the renderer clock's current time.
func (r *Renderer) Now() time.Time {
	return r.now()
}

// Tokens returns the distinct placeholder names found in tmpl, in order of
// first appearance.
func Tokens(tmpl string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range tokenPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// IsSupported reports whether token is in the substitution table.
func IsSupported(token string) bool {
	for _, t := range SupportedTokens {
		if t == token {
			return true
		}
	}
	return false
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
