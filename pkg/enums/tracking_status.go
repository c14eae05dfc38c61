package enums

// TrackingStatus labels append-only order tracking events.
type TrackingStatus string

const (
	TrackingOrderCreated     TrackingStatus = "order_created"
	TrackingPaymentConfirmed TrackingStatus = "payment_confirmed"
	TrackingShipmentCreated  TrackingStatus = "shipment_created"
	TrackingStatusUpdated    TrackingStatus = "status_updated"
	TrackingOrderCancelled   TrackingStatus = "order_cancelled"
)

func (s TrackingStatus) IsValid() bool {
	switch s {
	case TrackingOrderCreated, TrackingPaymentConfirmed, TrackingShipmentCreated,
		TrackingStatusUpdated, TrackingOrderCancelled:
		return true
	default:
		return false
	}
}
