package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Customer is the checkout identity, keyed by exact email.
type Customer struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string        `bson:"email" json:"email"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

func NewCustomer(email string) *Customer {
	return &Customer{
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
}
