// Package events defines the notifications emitted when the catalog changes.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
)

// StreamName is the JetStream stream capturing every product subject.
const StreamName = "PRODUCTS"

const (
	ProductCreatedSubject = "products.created"
	ProductUpdatedSubject = "products.updated"
	ProductDeletedSubject = "products.deleted"
	// ProductSubjects matches all of the above.
	ProductSubjects = "products.>"
)

var _ messaging.Event = ProductChangedEvent{}

// ProductChangedEvent describes one mutation. Product is the state after the
// change and is omitted for deletions.
type ProductChangedEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id"`
	Product    any       `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ProductChangedEvent) Subject() string {
	switch e.Type {
	case "created":
		return ProductCreatedSubject
	case "updated":
		return ProductUpdatedSubject
	default:
		return ProductDeletedSubject
	}
}

func (e ProductChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

func Created(id string, product any, at time.Time) ProductChangedEvent {
	return ProductChangedEvent{Type: "created", ProductID: id, Product: product, OccurredAt: at}
}

func Updated(id string, product any, at time.Time) ProductChangedEvent {
	return ProductChangedEvent{Type: "updated", ProductID: id, Product: product, OccurredAt: at}
}

func Deleted(id string, at time.Time) ProductChangedEvent {
	return ProductChangedEvent{Type: "deleted", ProductID: id, OccurredAt: at}
}
