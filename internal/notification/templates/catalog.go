package templates

import "order-notifications/internal/models"

var emailTemplates = []Template{
	{
		ID:      "email_order_confirmation",
		Channel: models.ChannelEmail,
		Event:   models.EventOrderConfirmation,
		Subject: "Order Confirmation - {{orderId}}",
		Tokens:  []string{"orderId", "customerName", "orderTotal", "estimatedDelivery", "itemsList"},
		Body: `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #f8f9fa; padding: 20px; text-align: center;">
    <h1 style="color: #333; margin: 0;">Order Confirmed!</h1>
  </div>
  <div style="padding: 20px;">
    <p>Hi {{customerName}},</p>
    <p>Thank you for your order! We've received your order and are preparing it for shipment.</p>
    <div style="background: #f8f9fa; padding: 15px; border-radius: 8px; margin: 20px 0;">
      <h3 style="margin: 0 0 10px 0;">Order Details</h3>
      <p><strong>Order ID:</strong> {{orderId}}</p>
      <p><strong>Total Amount:</strong> ₹{{orderTotal}}</p>
      <p><strong>Estimated Delivery:</strong> {{estimatedDelivery}}</p>
    </div>
    <div style="margin: 20px 0;">
      <h3>Items Ordered:</h3>
      {{itemsList}}
    </div>
    <p>We'll send you another email when your order ships with tracking information.</p>
    <p>Thanks for shopping with us!</p>
  </div>
  <div style="background: #333; color: white; padding: 15px; text-align: center;">
    <p style="margin: 0;">Need help? Contact us at support@catalystmart.com</p>
  </div>
</div>
`,
	},
	{
		ID:      "email_order_shipped",
		Channel: models.ChannelEmail,
		Event:   models.EventOrderShipped,
		Subject: "Your Order is on the Way! - {{orderId}}",
		Tokens:  []string{"orderId", "customerName", "trackingNumber", "courierPartner", "estimatedDelivery", "deliveryAddress"},
		Body: `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #28a745; padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Your Order is Shipped!</h1>
  </div>
  <div style="padding: 20px;">
    <p>Hi {{customerName}},</p>
    <p>Great news! Your order has been shipped and is on its way to you.</p>
    <div style="background: #f8f9fa; padding: 15px; border-radius: 8px; margin: 20px 0;">
      <h3 style="margin: 0 0 10px 0;">Shipping Details</h3>
      <p><strong>Order ID:</strong> {{orderId}}</p>
      <p><strong>Tracking Number:</strong> {{trackingNumber}}</p>
      <p><strong>Courier Partner:</strong> {{courierPartner}}</p>
      <p><strong>Estimated Delivery:</strong> {{estimatedDelivery}}</p>
    </div>
    <div style="text-align: center; margin: 30px 0;">
      <a href="#" style="background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px;">Track Your Order</a>
    </div>
    <p>Your package will be delivered to:</p>
    <div style="background: #f8f9fa; padding: 10px; border-left: 4px solid #007bff;">
      {{deliveryAddress}}
    </div>
  </div>
</div>
`,
	},
	{
		ID:      "email_out_for_delivery",
		Channel: models.ChannelEmail,
		Event:   models.EventOutForDelivery,
		Subject: "Out for Delivery - {{orderId}}",
		Tokens:  []string{"orderId", "customerName", "trackingNumber"},
		Body: `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #ffc107; padding: 20px; text-align: center;">
    <h1 style="color: #333; margin: 0;">Out for Delivery!</h1>
  </div>
  <div style="padding: 20px;">
    <p>Hi {{customerName}},</p>
    <p>Your order is out for delivery and will reach you today!</p>
    <div style="background: #f8f9fa; padding: 15px; border-radius: 8px; margin: 20px 0;">
      <p><strong>Order ID:</strong> {{orderId}}</p>
      <p><strong>Expected Delivery:</strong> Today</p>
      <p><strong>Tracking Number:</strong> {{trackingNumber}}</p>
    </div>
    <p>Please ensure someone is available to receive the package.</p>
  </div>
</div>
`,
	},
	{
		ID:      "email_delivered",
		Channel: models.ChannelEmail,
		Event:   models.EventDelivered,
		Subject: "Order Delivered - {{orderId}}",
		Tokens:  []string{"orderId", "customerName", "deliveryDate"},
		Body: `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #28a745; padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Order Delivered!</h1>
  </div>
  <div style="padding: 20px;">
    <p>Hi {{customerName}},</p>
    <p>Your order has been successfully delivered!</p>
    <div style="background: #f8f9fa; padding: 15px; border-radius: 8px; margin: 20px 0;">
      <p><strong>Order ID:</strong> {{orderId}}</p>
      <p><strong>Delivered on:</strong> {{deliveryDate}}</p>
    </div>
    <p>We hope you love your purchase! If you have any issues, please don't hesitate to contact us.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="#" style="background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; margin: 0 10px;">Rate Your Purchase</a>
      <a href="#" style="background: #6c757d; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; margin: 0 10px;">Need Help?</a>
    </div>
  </div>
</div>
`,
	},
}

var smsTemplates = []Template{
	{
		ID:      "sms_order_confirmation",
		Channel: models.ChannelSMS,
		Event:   models.EventOrderConfirmation,
		Tokens:  []string{"customerName", "orderId", "orderTotal", "estimatedDelivery"},
		Body:    "Hi {{customerName}}! Your order {{orderId}} worth ₹{{orderTotal}} has been confirmed. Expected delivery: {{estimatedDelivery}}. Track: catalystmart.com/track",
	},
	{
		ID:      "sms_order_shipped",
		Channel: models.ChannelSMS,
		Event:   models.EventOrderShipped,
		Tokens:  []string{"customerName", "orderId", "trackingNumber", "estimatedDelivery"},
		Body:    "Good news {{customerName}}! Your order {{orderId}} has been shipped. Tracking: {{trackingNumber}}. Expected delivery: {{estimatedDelivery}}. Track: catalystmart.com/track",
	},
	{
		ID:      "sms_out_for_delivery",
		Channel: models.ChannelSMS,
		Event:   models.EventOutForDelivery,
		Tokens:  []string{"orderId", "trackingNumber"},
		Body:    "Your order {{orderId}} is out for delivery and will reach you today! Please be available to receive it. Track: {{trackingNumber}}",
	},
	{
		ID:      "sms_delivered",
		Channel: models.ChannelSMS,
		Event:   models.EventDelivered,
		Tokens:  []string{"orderId"},
		Body:    "Your order {{orderId}} has been delivered! Hope you love it. Rate your experience: catalystmart.com/review",
	},
}
