package domain

import "sort"

// Variant is a purchasable SKU of a Product. Price is in minor currency units.
type Variant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Product is a read-only catalog entity owning an ordered set of variants.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Subscription string          `json:"subscription,omitempty"`
	Tags         map[string]bool `json:"tags,omitempty"`
	Variants     []Variant       `json:"variants"`
}

// SubscriptionRequired reports whether the product can only be bought as a
// subscription and is excluded from one-off cart purchases.
func (p *Product) SubscriptionRequired() bool {
	return p.Subscription == "required"
}

// CartLine is a single line item of the server-side cart.
type CartLine struct {
	ID               string `json:"id,omitempty"`
	ProductVariantID string `json:"productVariantID"`
	Quantity         int    `json:"quantity"`
	Subtotal         int64  `json:"subtotal,omitempty"`
}

// ServerCart mirrors the backend's committed cart resource. It is a read-mostly
// cached copy, refreshed after every mutating call; pending edits live in
// LocalCart only.
type ServerCart struct {
	Items     []CartLine `json:"items"`
	AddressID string     `json:"addressID,omitempty"`
	CardID    string     `json:"cardID,omitempty"`
}

// LocalCart is the client-held, user-editable draft of cart contents keyed by
// variant ID. It is authoritative for what the user intends to buy. The map
// never holds an entry with quantity <= 0.
type LocalCart map[string]int

// SetQuantity sets the quantity for a variant. A quantity <= 0 deletes the
// entry rather than storing zero.
func (c LocalCart) SetQuantity(variantID string, quantity int) {
	if quantity <= 0 {
		delete(c, variantID)
		return
	}
	c[variantID] = quantity
}

// IsEmpty reports whether the cart holds no purchasable entries.
func (c LocalCart) IsEmpty() bool {
	return len(c) == 0
}

// ItemCount returns the total quantity across all entries.
func (c LocalCart) ItemCount() int {
	var count int
	for _, qty := range c {
		count += qty
	}
	return count
}

// Clone returns an independent copy of the cart.
func (c LocalCart) Clone() LocalCart {
	out := make(LocalCart, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}

// Entry is a single local cart entry.
type Entry struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Entries returns the cart's entries sorted by variant ID. Sorting keeps the
// submit sequence and rendered listings deterministic.
func (c LocalCart) Entries() []Entry {
	entries := make([]Entry, 0, len(c))
	for id, qty := range c {
		entries = append(entries, Entry{VariantID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].VariantID < entries[j].VariantID })
	return entries
}

// Address is a shipping address owned by the backend.
type Address struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Street1  string `json:"street1"`
	Street2  string `json:"street2,omitempty"`
	City     string `json:"city"`
	Province string `json:"province,omitempty"`
	Country  string `json:"country"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone,omitempty"`
}

// CardExpiration is a payment card expiry month/year.
type CardExpiration struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Card is a stored payment card. Only the token reference lives server-side;
// the client never sees the full number.
type Card struct {
	ID         string         `json:"id"`
	Brand      string         `json:"brand"`
	Last4      string         `json:"last4"`
	Expiration CardExpiration `json:"expiration"`
}

// Order is a converted cart.
type Order struct {
	ID      string     `json:"id"`
	Status  string     `json:"status,omitempty"`
	Total   int64      `json:"total,omitempty"`
	Items   []CartLine `json:"items,omitempty"`
	Created string     `json:"created,omitempty"`
}

// Subscription is a recurring purchase of a single variant. The canonical
// subscription-to-variant relationship is ProductVariantID equality.
type Subscription struct {
	ID               string `json:"id"`
	ProductVariantID string `json:"productVariantID"`
	Quantity         int    `json:"quantity"`
}

// Token is a personal access token for the commerce API. The secret is only
// present on the create response and is never returned again.
type Token struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Token   string `json:"token,omitempty"`
	Created string `json:"created,omitempty"`
}

// Profile is the authenticated user's profile.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
