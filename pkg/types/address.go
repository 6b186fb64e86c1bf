package types

import "strings"

// Address is the shipping address embedded into an order, stored as jsonb.
type Address struct {
	Line1    string  `json:"line1"`
	Line2    *string `json:"line2,omitempty"`
	City     string  `json:"city"`
	Postcode string  `json:"postcode"`
	Country  string  `json:"country"`
}

// IsZero reports whether no address fields were provided.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.Postcode) == "" &&
		strings.TrimSpace(a.Country) == ""
}
