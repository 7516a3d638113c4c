// Package backend is the HTTP client for the shopping-list service.
package backend

import (
	"errors"
	"fmt"
)

// ErrNoUser indicates no user id was configured or resolvable.
var ErrNoUser = errors.New("no shopping-list user id")

// Item is one shopping-list entry.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	Category string `json:"category"`
}

// Product is one catalog search hit.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Price    float64  `json:"price"`
	Unit     string   `json:"unit"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
}

// Error is a non-2xx service response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Suggestion pairs a list item with alternatives the service knows for it.
type Suggestion struct {
	Base        string
	Substitutes []string
}
