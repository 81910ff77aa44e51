package store

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/abgdnv/catalog/internal/product/errors"
	"github.com/google/uuid"
)

var _ ProductStore = (*InMemoryStore)(nil)

// InMemoryStore implements ProductStore over an ordered slice.
// Every operation holds the lock for its whole duration.
type InMemoryStore struct {
	mu       sync.RWMutex
	products []Product
	// issued remembers every id ever assigned so deleted ids are never handed out again.
	issued   map[string]struct{}
	newID    func() string
}

// NewInMemoryStore creates a store holding seed in the given order.
func NewInMemoryStore(seed ...ProductFields) *InMemoryStore {
	s := &InMemoryStore{
		products: make([]Product, 0, len(seed)),
		issued:   make(map[string]struct{}, len(seed)),
		newID:    uuid.NewString,
	}
	for _, fields := range seed {
		s.products = append(s.products, Product{ID: s.uniqueID(), ProductFields: cloneFields(fields)})
	}
	return s
}

// List returns one page of the category-filtered products.
func (s *InMemoryStore) List(_ context.Context, query ListQuery) (*Page, error) {
	query = query.normalized()

	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := s.products
	if query.Category != "" {
		filtered = make([]Product, 0, len(s.products))
		for _, p := range s.products {
			if strings.EqualFold(p.Category, query.Category) {
				filtered = append(filtered, p)
			}
		}
	}

	start, end := query.window(len(filtered))
	data := make([]Product, 0, end-start)
	for _, p := range filtered[start:end] {
		data = append(data, cloneProduct(p))
	}
	return &Page{
		Total: len(filtered),
		Page:  query.Page,
		Limit: query.Limit,
		Data:  data,
	}, nil
}

// FindByID retrieves a product by its ID.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	p := cloneProduct(s.products[i])
	return &p, nil
}

// Create creates a new product and returns it.
func (s *InMemoryStore) Create(_ context.Context, fields ProductFields) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{ID: s.uniqueID(), ProductFields: cloneFields(fields)}
	s.products = append(s.products, product)

	created := cloneProduct(product)
	return &created, nil
}

// Update replaces the fields of an existing product in place.
func (s *InMemoryStore) Update(_ context.Context, id string, fields ProductFields) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, errors.ErrProductNotFound
	}
	existing := s.products[i]
	extra := maps.Clone(existing.Extra)
	if extra == nil && len(fields.Extra) > 0 {
		extra = make(map[string]any, len(fields.Extra))
	}
	maps.Copy(extra, fields.Extra)

	merged := Product{ID: existing.ID, ProductFields: fields}
	merged.Extra = extra
	s.products[i] = merged

	updated := cloneProduct(merged)
	return &updated, nil
}

// DeleteByID deletes a product by its ID.
func (s *InMemoryStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return errors.ErrProductNotFound
	}
	s.products = slices.Delete(s.products, i, i+1)
	return nil
}

// indexOf must be called with the lock held.
func (s *InMemoryStore) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}

// uniqueID must be called with the write lock held.
func (s *InMemoryStore) uniqueID() string {
	for {
		id := s.newID()
		if _, taken := s.issued[id]; !taken {
			s.issued[id] = struct{}{}
			return id
		}
	}
}

func cloneFields(f ProductFields) ProductFields {
	f.Extra = maps.Clone(f.Extra)
	return f
}

func cloneProduct(p Product) Product {
	p.ProductFields = cloneFields(p.ProductFields)
	return p
}
