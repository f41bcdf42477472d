package models

import "github.com/shopspring/decimal"

// CartLine is one product in a cart with the price snapshot taken when it was added.
type CartLine struct {
	ProductID            string   `json:"productId"`
	Name                 string   `json:"name"`
	UnitPrice            float64  `json:"unitPrice"`
	PromotionalUnitPrice *float64 `json:"promotionalUnitPrice,omitempty"`
	Quantity             int      `json:"quantity"`
	ImageRef             string   `json:"imageRef"`
}

func NewCartLine(p *Product, quantity int) CartLine {
	return CartLine{
		ProductID:            p.ID.Hex(),
		Name:                 p.Name,
		UnitPrice:            p.Price,
		PromotionalUnitPrice: NormalizePromotionalPrice(p.Price, p.PromotionalPrice),
		Quantity:             quantity,
		ImageRef:             p.PrimaryImage(),
	}
}

func (l CartLine) EffectivePrice() decimal.Decimal {
	return EffectivePrice(l.UnitPrice, l.PromotionalUnitPrice)
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func CartCount(lines []CartLine) int {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return count
}

// CartView is the API rendering of a cart.
type CartView struct {
	Items []CartLineView `json:"items"`
	Total float64        `json:"total"`
	Count int            `json:"count"`
}

type CartLineView struct {
	CartLine
	EffectivePrice float64 `json:"effectivePrice"`
	Subtotal       float64 `json:"subtotal"`
}

func NewCartView(lines []CartLine) CartView {
	items := make([]CartLineView, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartLineView{
			CartLine:       l,
			EffectivePrice: l.EffectivePrice().InexactFloat64(),
			Subtotal:       l.Subtotal().InexactFloat64(),
		})
	}
	return CartView{
		Items: items,
		Total: CartTotal(lines).InexactFloat64(),
		Count: CartCount(lines),
	}
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
