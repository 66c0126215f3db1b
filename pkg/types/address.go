package types

import "strings"

// ShippingAddress is the address snapshot captured at checkout. Stored as a
// jsonb column so the order keeps the address as it was at payment time even
// if the profile changes later.
type ShippingAddress struct {
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
}

// IsComplete reports whether the fields a shipment label needs are present.
func (a ShippingAddress) IsComplete() bool {
	for _, field := range []string{a.Line1, a.City, a.Pincode, a.Phone} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
