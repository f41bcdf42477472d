package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"holyremedies.mx/storefront/pkg/models"
)

var ErrCustomerNotFound = models.ErrCustomerNotFound

// FindCustomerByEmail matches the email exactly. When duplicates exist the
// oldest document wins.
func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	collection, err := s.collection(customersCollection)
	if err != nil {
		return nil, err
	}

	var customer models.Customer
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	err = collection.FindOne(ctx, bson.D{{Key: "email", Value: email}}, opts).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCustomerNotFound
		}
		return nil, classify(err)
	}
	return &customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, email string) (*models.Customer, error) {
	collection, err := s.collection(customersCollection)
	if err != nil {
		return nil, err
	}

	customer := models.NewCustomer(email)
	result, err := collection.InsertOne(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", classify(err))
	}
	customer.ID = result.InsertedID.(bson.ObjectID)
	return customer, nil
}
