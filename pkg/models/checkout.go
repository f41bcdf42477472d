package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CheckoutSession is written once by the storefront and completed by the payment
// integration, which sets exactly one of URL or Error.
type CheckoutSession struct {
	ID         bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	CustomerID bson.ObjectID   `bson:"customer_id" json:"customerId"`
	LineItems  []LineItem      `bson:"line_items" json:"line_items"`
	SuccessURL string          `bson:"success_url" json:"success_url"`
	CancelURL  string          `bson:"cancel_url" json:"cancel_url"`
	Metadata   SessionMetadata `bson:"metadata" json:"metadata"`
	URL        string          `bson:"url,omitempty" json:"url,omitempty"`
	Error      *SessionError   `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt  time.Time       `bson:"created_at" json:"created_at"`
}

type SessionMetadata struct {
	UserEmail string `bson:"userEmail" json:"userEmail"`
}

type SessionError struct {
	Message string `bson:"message" json:"message"`
}

type LineItem struct {
	PriceData PriceData `bson:"price_data" json:"price_data"`
	Quantity  int       `bson:"quantity" json:"quantity"`
}

type PriceData struct {
	Currency    string      `bson:"currency" json:"currency"`
	UnitAmount  int64       `bson:"unit_amount" json:"unit_amount"`
	ProductData ProductData `bson:"product_data" json:"product_data"`
}

type ProductData struct {
	Name     string            `bson:"name" json:"name"`
	Images   []string          `bson:"images,omitempty" json:"images,omitempty"`
	Metadata map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// IsPending reports whether the session still awaits fulfilment.
func (s *CheckoutSession) IsPending() bool {
	return s.URL == "" && s.Error == nil
}

// AmountMinor is the session total in minor currency units.
func (s *CheckoutSession) AmountMinor() int64 {
	var total int64
	for _, li := range s.LineItems {
		total += li.PriceData.UnitAmount * int64(li.Quantity)
	}
	return total
}

type CreateCheckoutRequest struct {
	Email string `json:"email" binding:"required"`
}

type CheckoutSessionRef struct {
	SessionID  string `json:"sessionId"`
	CustomerID string `json:"customerId"`
}
