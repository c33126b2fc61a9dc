package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dimensions are per-variant package measurements in centimetres.
type Dimensions struct {
	Length float64 `json:"length" bson:"length"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Variant is a sellable unit of a product (e.g. a 500g jar).
type Variant struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SKU         string             `json:"sku" bson:"sku"`
	WeightLabel string             `json:"weight_label" bson:"weight_label"`
	WeightInKg  float64            `json:"weight_in_kg" bson:"weight_in_kg"`
	Dimensions  Dimensions         `json:"dimensions" bson:"dimensions"`
	Price       float64            `json:"price" bson:"price" validate:"required,gt=0"`
	Stock       int                `json:"stock" bson:"stock" default:"0"`
}

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" validate:"required"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	Images      []string           `json:"images" bson:"images"`
	Variants    []Variant          `json:"variants" bson:"variants"`
	IsActive    bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// FindVariant returns the variant with the given id, or nil.
func (p *Product) FindVariant(variantID primitive.ObjectID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}
