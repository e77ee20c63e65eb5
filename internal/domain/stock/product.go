package stock

import "fmt"

// Product captures the stock information of a single shop item at one
// point in time. Values are immutable; each fetch produces fresh ones.
type Product struct {
	// Name is the product display name.
	Name string `json:"name"`
	// Alias is the stable identifier used in shop URLs and as snapshot key.
	Alias string `json:"alias"`
	// Available reports whether the shop currently lists the product as purchasable.
	Available bool `json:"available"`
	// Quantity is the reported inventory level.
	Quantity int `json:"inventory_quantity"`
}

// InStock reports whether the product can actually be bought:
// listed as available and with inventory on hand.
func (p Product) InStock() bool {
	return p.Available && p.Quantity > 0
}

// Summary returns a one-line human-readable stock description
// used by the status table and notification bodies.
func (p Product) Summary() string {
	availability := "No"
	if p.Available {
		availability = "Yes"
	}

	return fmt.Sprintf("%s [%s] - Stock: %d (Available: %s)", p.Name, p.Alias, p.Quantity, availability)
}
