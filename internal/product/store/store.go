// Package store provides an interface for product storage operations.
package store

import (
	"context"
)

// ProductStore is an interface for product storage operations.
// Implementations keep insertion order and never reuse ids.
type ProductStore interface {
	// List filters by category (case-insensitive, when set) and returns one page of the result.
	// Out-of-range pages yield an empty Data slice, never an error.
	List(ctx context.Context, query ListQuery) (*Page, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*Product, error)

	// Create assigns a fresh id and appends the product.
	Create(ctx context.Context, fields ProductFields) (*Product, error)

	// Update overwrites the core fields, merges Extra key by key and keeps the id and position.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, fields ProductFields) (*Product, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) error
}

// ProductFields is everything about a product except its id.
type ProductFields struct {
	Name        string
	Description string
	Price       float64
	Category    string
	InStock     bool
	// Extra carries caller-supplied fields outside the core five.
	Extra map[string]any
}

// Product represents a product entity in the store.
type Product struct {
	ID string
	ProductFields
}

// ListQuery selects a page of products. Page and Limit below 1 are treated as 1 and DefaultLimit.
type ListQuery struct {
	Category string
	Page     int
	Limit    int
}

// DefaultLimit is the page size used when a ListQuery carries none.
const DefaultLimit = 10

// Page is one window of a filtered listing. Total counts the filtered products before windowing.
type Page struct {
	Total int
	Page  int
	Limit int
	Data  []Product
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

// window returns the [start, end) bounds of the page inside a sequence of n items.
func (q ListQuery) window(n int) (int, int) {
	start := int64(q.Page-1) * int64(q.Limit)
	if start >= int64(n) {
		return n, n
	}
	end := start + int64(q.Limit)
	if end > int64(n) {
		end = int64(n)
	}
	return int(start), int(end)
}
