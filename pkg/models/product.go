package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const placeholderImage = "https://placehold.co/600x600"

// Product is a catalog entry as stored in the products collection.
type Product struct {
	ID               bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string        `json:"name" bson:"name" validate:"required,min=2,max=200"`
	Description      string        `json:"description" bson:"description" validate:"max=2000"`
	Price            float64       `json:"price" bson:"price" validate:"required,gt=0"`
	PromotionalPrice *float64      `json:"promotionalPrice,omitempty" bson:"promotionalPrice,omitempty"`
	Images           []string      `json:"images" bson:"images"`
	LegacyImage      string        `json:"-" bson:"image,omitempty"`
	Category         string        `json:"category" bson:"category"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at"`
}

// UpsertProductRequest is the admin payload for creating or replacing a product.
type UpsertProductRequest struct {
	Name             string   `json:"name" binding:"required,min=2,max=200"`
	Description      string   `json:"description" binding:"max=2000"`
	Price            float64  `json:"price" binding:"required,gt=0"`
	PromotionalPrice *float64 `json:"promotionalPrice"`
	Images           []string `json:"images" binding:"dive,url"`
	Category         string   `json:"category"`
}

func (req *UpsertProductRequest) ToProduct(id bson.ObjectID) *Product {
	p := &Product{
		ID:               id,
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		PromotionalPrice: req.PromotionalPrice,
		Images:           req.Images,
		Category:         req.Category,
	}
	p.SetTimestamps()
	p.Normalize()
	return p
}

// Normalize collapses every "no promotion" shape (null, absent, zero, negative,
// not below list price) into a nil PromotionalPrice and fills missing images.
func (p *Product) Normalize() {
	p.PromotionalPrice = NormalizePromotionalPrice(p.Price, p.PromotionalPrice)
	if len(p.Images) == 0 {
		if p.LegacyImage != "" {
			p.Images = []string{p.LegacyImage}
		} else {
			p.Images = []string{placeholderImage}
		}
	}
	p.LegacyImage = ""
}

// EffectivePrice is the unit price actually charged.
func (p *Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.PromotionalPrice)
}

func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return placeholderImage
	}
	return p.Images[0]
}

func (p *Product) SetTimestamps() {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// NormalizePromotionalPrice returns promo only when 0 < promo < price.
func NormalizePromotionalPrice(price float64, promo *float64) *float64 {
	if promo == nil || *promo <= 0 || *promo >= price {
		return nil
	}
	v := *promo
	return &v
}

func EffectivePrice(price float64, promo *float64) decimal.Decimal {
	if p := NormalizePromotionalPrice(price, promo); p != nil {
		return decimal.NewFromFloat(*p)
	}
	return decimal.NewFromFloat(price)
}
