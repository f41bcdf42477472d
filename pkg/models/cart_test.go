package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func price(v float64) *float64 { return &v }

func TestCartTotal_UsesPromotionalPriceWhenBelowList(t *testing.T) {
	lines := []CartLine{
		{ProductID: "a", UnitPrice: 100, PromotionalUnitPrice: price(80), Quantity: 2},
		{ProductID: "b", UnitPrice: 50, PromotionalUnitPrice: nil, Quantity: 1},
	}

	assert.True(t, decimal.NewFromInt(210).Equal(CartTotal(lines)), "got %s", CartTotal(lines))
	assert.Equal(t, 3, CartCount(lines))
}

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		promo *float64
		want  string
	}{
		{"no promotion", 50, nil, "50"},
		{"zero promotion", 50, price(0), "50"},
		{"negative promotion", 50, price(-5), "50"},
		{"promotion above list", 50, price(60), "50"},
		{"promotion equal to list", 50, price(50), "50"},
		{"active promotion", 50, price(39.99), "39.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectivePrice(tt.price, tt.promo).String())
		})
	}
}

func TestCartTotal_AvoidsFloatDrift(t *testing.T) {
	lines := []CartLine{
		{ProductID: "a", UnitPrice: 0.1, Quantity: 3},
		{ProductID: "b", UnitPrice: 0.2, Quantity: 1},
	}
	assert.Equal(t, "0.5", CartTotal(lines).String())
}

func TestProductNormalize(t *testing.T) {
	p := &Product{ID: bson.NewObjectID(), Name: "Té", Price: 100, PromotionalPrice: price(0), LegacyImage: "https://img.example/te.png"}
	p.Normalize()

	assert.Nil(t, p.PromotionalPrice)
	assert.Equal(t, []string{"https://img.example/te.png"}, p.Images)

	q := &Product{Name: "Miel", Price: 100}
	q.Normalize()
	assert.Equal(t, []string{placeholderImage}, q.Images)
}

func TestNewCartLine_SnapshotsNormalizedPrices(t *testing.T) {
	p := &Product{ID: bson.NewObjectID(), Name: "Aceite", Price: 100, PromotionalPrice: price(120), Images: []string{"x.png", "y.png"}}

	line := NewCartLine(p, 2)

	assert.Equal(t, p.ID.Hex(), line.ProductID)
	assert.Nil(t, line.PromotionalUnitPrice)
	assert.Equal(t, "x.png", line.ImageRef)
	assert.Equal(t, "200", line.Subtotal().String())
}

func TestNewCartView(t *testing.T) {
	view := NewCartView([]CartLine{{ProductID: "a", UnitPrice: 100, PromotionalUnitPrice: price(80), Quantity: 2}})

	assert.Equal(t, 160.0, view.Total)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 80.0, view.Items[0].EffectivePrice)
	assert.Equal(t, 160.0, view.Items[0].Subtotal)
}

func TestPromoBannerWithDefaults(t *testing.T) {
	b := PromoBanner{Text: "Hoy 2x1", IsActive: true}.WithDefaults()
	assert.Equal(t, "#29ABE2", b.BackgroundColor)
	assert.Equal(t, "#FFFFFF", b.TextColor)
	assert.True(t, b.IsActive)
}

func TestCheckoutSession_AmountAndPending(t *testing.T) {
	s := &CheckoutSession{LineItems: []LineItem{
		{PriceData: PriceData{UnitAmount: 8000}, Quantity: 2},
		{PriceData: PriceData{UnitAmount: 5000}, Quantity: 1},
	}}
	assert.Equal(t, int64(21000), s.AmountMinor())
	assert.True(t, s.IsPending())

	s.Error = &SessionError{Message: "card_declined"}
	assert.False(t, s.IsPending())
}
