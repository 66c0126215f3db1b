package courier

// loginRequest authenticates against the aggregator's credential endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// PickupLocationRequest registers a manufacturer's warehouse with the
// aggregator under a short nickname.
type PickupLocationRequest struct {
	Nickname string `json:"pickup_location"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Pincode  string `json:"pin_code"`
}

type pickupLocationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Address struct {
		PickupCode string `json:"pickup_code"`
	} `json:"address"`
}

// ShipmentItem is one order line inside a shipment request.
type ShipmentItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Units        int    `json:"units"`
	SellingPrice string `json:"selling_price"`
	Tax          string `json:"tax,omitempty"`
}

// ShipmentRequest creates an adhoc order at the aggregator.
type ShipmentRequest struct {
	OrderID          string         `json:"order_id"`
	OrderDate        string         `json:"order_date"`
	PickupLocation   string         `json:"pickup_location"`
	BillingName      string         `json:"billing_customer_name"`
	BillingAddress   string         `json:"billing_address"`
	BillingCity      string         `json:"billing_city"`
	BillingState     string         `json:"billing_state"`
	BillingPincode   string         `json:"billing_pincode"`
	BillingCountry   string         `json:"billing_country"`
	BillingEmail     string         `json:"billing_email"`
	BillingPhone     string         `json:"billing_phone"`
	ShippingIsBilled bool           `json:"shipping_is_billing"`
	Items            []ShipmentItem `json:"order_items"`
	PaymentMethod    string         `json:"payment_method"`
	SubTotal         string         `json:"sub_total"`
	LengthCm         float64        `json:"length"`
	BreadthCm        float64        `json:"breadth"`
	HeightCm         float64        `json:"height"`
	WeightKg         float64        `json:"weight"`
}

// ShipmentResult is the aggregator's identifier pair for a created shipment.
type ShipmentResult struct {
	OrderID    int64  `json:"order_id"`
	ShipmentID int64  `json:"shipment_id"`
	Status     string `json:"status"`
}

type assignAWBRequest struct {
	ShipmentID string `json:"shipment_id"`
	CourierID  *int   `json:"courier_id,omitempty"`
}

type assignAWBResponse struct {
	AWBAssignStatus int `json:"awb_assign_status"`
	Response        struct {
		Data AWBResult `json:"data"`
	} `json:"response"`
}

// AWBResult is the tracking assignment returned by the aggregator.
type AWBResult struct {
	AWBCode     string `json:"awb_code"`
	CourierID   int    `json:"courier_company_id"`
	CourierName string `json:"courier_name"`
}

type schedulePickupRequest struct {
	ShipmentID []string `json:"shipment_id"`
}

type generateManifestRequest struct {
	ShipmentID []string `json:"shipment_id"`
}

// Tracking is the aggregator's view of a shipment in transit. StatusCode is
// the aggregator's numeric shipment status; CurrentStatus is free text and
// the two frequently disagree.
type Tracking struct {
	StatusCode    int    `json:"shipment_status"`
	CurrentStatus string `json:"current_status"`
}

type trackingResponse struct {
	TrackingData struct {
		ShipmentStatus int `json:"shipment_status"`
		ShipmentTrack  []struct {
			CurrentStatus string `json:"current_status"`
		} `json:"shipment_track"`
	} `json:"tracking_data"`
}

// OrderSummary is one row of the aggregator's order search.
type OrderSummary struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type searchOrdersResponse struct {
	Data []OrderSummary `json:"data"`
}

// OrderDetail is the aggregator's full order record.
type OrderDetail struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	AWB    string `json:"awb_code"`
}

type fetchOrderResponse struct {
	Data OrderDetail `json:"data"`
}
