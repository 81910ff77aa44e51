// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/abgdnv/catalog/internal/product/events"
	"github.com/abgdnv/catalog/internal/product/store"
	"github.com/abgdnv/catalog/internal/product/validation"
	"github.com/abgdnv/catalog/pkg/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns one page of products, optionally filtered by category.
	// Page or limit below 1 fall back to 1 and the configured default page size.
	FindAll(ctx context.Context, query ListQuery) (*ProductPage, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// Create validates payload and adds a new product with a generated id.
	// Returns a *ValidationError when the payload is rejected.
	Create(ctx context.Context, payload map[string]any) (*ProductDto, error)

	// Update validates payload and replaces the fields of an existing product, keeping its id.
	// Returns a *ValidationError when the payload is rejected, or ErrProductNotFound.
	Update(ctx context.Context, id string, payload map[string]any) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) error
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository   store.ProductStore
	validator    *validation.Validator
	publisher    messaging.Publisher
	defaultLimit int
	logger       *slog.Logger
	now          func() time.Time

	createdCounter metric.Int64Counter
	updatedCounter metric.Int64Counter
	deletedCounter metric.Int64Counter
}

// MeterName is the instrumentation scope of the catalog counters.
const MeterName = "product-service"

// NewService creates a new instance of ProductService with the provided repository.
// Change events go to publisher; a nil publisher disables them.
func NewService(repo store.ProductStore, publisher messaging.Publisher, defaultLimit int, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if defaultLimit < 1 {
		defaultLimit = store.DefaultLimit
	}
	meter := otel.Meter(MeterName)
	return &Service{
		repository:     repo,
		validator:      validation.New(),
		publisher:      publisher,
		defaultLimit:   defaultLimit,
		logger:         logger.With("component", "service"),
		now:            time.Now,
		createdCounter: mustCounter(meter, "products_created", "Total number of created products"),
		updatedCounter: mustCounter(meter, "products_updated", "Total number of updated products"),
		deletedCounter: mustCounter(meter, "products_deleted", "Total number of deleted products"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// ListQuery is the listing request as received from a transport.
type ListQuery struct {
	Category string
	Page     int
	Limit    int
}

// ProductPage is one page of the listing.
type ProductPage struct {
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Data  []ProductDto `json:"data"`
}

// ProductDto represents the data transfer object for a product.
// Extra fields are flattened into the JSON object next to the core ones.
type ProductDto struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Category    string         `json:"category"`
	InStock     bool           `json:"inStock"`
	Extra       map[string]any `json:"-"`
}

// MarshalJSON writes the core fields over any extra field with the same name.
func (p ProductDto) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+6)
	maps.Copy(out, p.Extra)
	out[validation.FieldID] = p.ID
	out[validation.FieldName] = p.Name
	out[validation.FieldDescription] = p.Description
	out[validation.FieldPrice] = p.Price
	out[validation.FieldCategory] = p.Category
	out[validation.FieldInStock] = p.InStock
	return json.Marshal(out)
}

// FindAll retrieves one page of products and returns them as ProductDTOs.
func (s *Service) FindAll(ctx context.Context, query ListQuery) (*ProductPage, error) {
	limit := query.Limit
	if limit < 1 {
		limit = s.defaultLimit
	}
	page, err := s.repository.List(ctx, store.ListQuery{
		Category: query.Category,
		Page:     query.Page,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	productDTOs := make([]ProductDto, len(page.Data))
	for i, item := range page.Data {
		productDTOs[i] = *toDto(&item)
	}

	return &ProductPage{
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Data:  productDTOs,
	}, nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}

	return toDto(product), nil
}

// Create validates the payload, stores a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, payload map[string]any) (*ProductDto, error) {
	candidate, err := s.validator.ParseAndValidate(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid product: %w", err)
	}

	p, err := s.repository.Create(ctx, toFields(candidate))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	created := toDto(p)
	s.createdCounter.Add(ctx, 1)
	s.publish(ctx, events.Created(created.ID, created, s.now().UTC()))
	return created, nil
}

// Update validates the payload, merges it into the stored product and returns the result.
func (s *Service) Update(ctx context.Context, id string, payload map[string]any) (*ProductDto, error) {
	candidate, err := s.validator.ParseAndValidate(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid product: %w", err)
	}

	p, err := s.repository.Update(ctx, id, toFields(candidate))
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}

	updated := toDto(p)
	s.updatedCounter.Add(ctx, 1)
	s.publish(ctx, events.Updated(updated.ID, updated, s.now().UTC()))
	return updated, nil
}

// DeleteByID deletes a product by its ID.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	s.deletedCounter.Add(ctx, 1)
	s.publish(ctx, events.Deleted(id, s.now().UTC()))
	return nil
}

// publish reports change events. A failed publish never fails the mutation.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish product event", "subject", event.Subject(), "error", err)
	}
}

// toFields converts a validated candidate to store fields.
func toFields(c validation.Candidate) store.ProductFields {
	fields := store.ProductFields{
		Name:        *c.Name,
		Description: *c.Description,
		Price:       *c.Price,
		Category:    *c.Category,
		InStock:     *c.InStock,
	}
	if len(c.Extra) > 0 {
		fields.Extra = c.Extra
	}
	return fields
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    product.Category,
		InStock:     product.InStock,
		Extra:       product.Extra,
	}
}
