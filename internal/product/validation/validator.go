// Package validation turns a decoded request body into a typed product candidate
// and checks it against the product field rules.
package validation

import (
	"encoding/json"
	"errors"

	producterrors "github.com/abgdnv/catalog/internal/product/errors"
	"github.com/go-playground/validator/v10"
)

// Payload field names.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldCategory    = "category"
	FieldInStock     = "inStock"
)

// Candidate is a product payload after decoding. A nil field was absent, null,
// or held a value the field cannot take.
type Candidate struct {
	Name        *string  `validate:"required,min=1"`
	Description *string  `validate:"required,min=1"`
	Category    *string  `validate:"required,min=1"`
	Price       *float64 `validate:"required,gt=0"`
	InStock     *bool    `validate:"required"`
	// Extra holds every payload field other than the core ones and id.
	Extra map[string]any

	// priceNotNumber marks a price that was present and truthy but not a number.
	priceNotNumber bool
}

// Parse maps a loosely typed payload onto a Candidate. It never fails; type
// mismatches surface later from Validate.
func Parse(payload map[string]any) Candidate {
	c := Candidate{
		Name:        stringField(payload[FieldName]),
		Description: stringField(payload[FieldDescription]),
		Category:    stringField(payload[FieldCategory]),
		Extra:       make(map[string]any),
	}
	if b, ok := payload[FieldInStock].(bool); ok {
		c.InStock = &b
	}
	c.Price, c.priceNotNumber = priceField(payload[FieldPrice])

	for key, value := range payload {
		switch key {
		case FieldID, FieldName, FieldDescription, FieldPrice, FieldCategory, FieldInStock:
		default:
			c.Extra[key] = value
		}
	}
	return c
}

func stringField(raw any) *string {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return &s
}

// priceField returns the numeric price, or reports a truthy non-numeric value.
// Falsy values (null, false, 0, "") yield neither.
func priceField(raw any) (*float64, bool) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return nil, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, true
		}
		f = parsed
	case bool:
		return nil, v
	case string:
		return nil, v != ""
	default:
		return nil, true
	}
	if f == 0 {
		return nil, false
	}
	return &f, false
}

// Validator checks candidates. Safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate runs the checks in order and returns the first failure:
// ErrMissingFields, ErrInvalidPrice or ErrInvalidInStockType.
// Field errors come back in declaration order, which is the check order.
func (v *Validator) Validate(c Candidate) error {
	err := v.validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	first := fieldErrs[0]
	switch first.StructField() {
	case "Price":
		if first.Tag() == "required" && !c.priceNotNumber {
			return producterrors.ErrMissingFields
		}
		return producterrors.ErrInvalidPrice
	case "InStock":
		return producterrors.ErrInvalidInStockType
	default:
		return producterrors.ErrMissingFields
	}
}

// ParseAndValidate is Parse followed by Validate.
func (v *Validator) ParseAndValidate(payload map[string]any) (Candidate, error) {
	c := Parse(payload)
	return c, v.Validate(c)
}
