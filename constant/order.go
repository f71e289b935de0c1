package constant

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodCash   PaymentMethod = "cash"
)

// Order event routing keys.
const (
	EventOrderCreated   = "order.created"
	EventOrderDelivered = "order.delivered"
)
