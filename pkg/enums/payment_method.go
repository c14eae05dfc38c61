package enums

// PaymentMethod designates how the buyer pays for an order.
type PaymentMethod string

const (
	// PaymentMethodRazorpay routes through the online payment gateway.
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	// PaymentMethodCOD is cash on delivery; no gateway interaction.
	PaymentMethodCOD PaymentMethod = "cod"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodRazorpay || m == PaymentMethodCOD
}

// RequiresGateway reports whether order creation must create a gateway order.
func (m PaymentMethod) RequiresGateway() bool {
	return m == PaymentMethodRazorpay
}
