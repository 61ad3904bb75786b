package payload

import (
	"errors"
	"sync/atomic"
)

// NewItem is the input of the item creation endpoints.
type NewItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Validate rejects inputs the endpoints answer with 400.
func (n NewItem) Validate() error {
	if n.Name == "" {
		return errors.New("name is required")
	}

	if n.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}

	return nil
}

// CreatedItem acknowledges a created item.
type CreatedItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

// ItemCounter hands out item IDs. The zero value starts at 1 and is safe
// for concurrent use.
type ItemCounter struct {
	last atomic.Int64
}

// Create assigns the next ID to n. Nothing is stored.
func (c *ItemCounter) Create(n NewItem) CreatedItem {
	return CreatedItem{
		ID:       int(c.last.Add(1)),
		Name:     n.Name,
		Quantity: n.Quantity,
		Status:   "ok",
	}
}
