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

var ErrProductNotFound = models.ErrProductNotFound

// ListProducts returns the catalog ordered by name, with prices normalised.
func (s *Store) ListProducts(ctx context.Context) ([]*models.Product, error) {
	collection, err := s.collection(productsCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	products := []*models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, classify(err)
	}
	for _, p := range products {
		p.Normalize()
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	collection, err := s.collection(productsCollection)
	if err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	var product models.Product
	if err := collection.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, classify(err)
	}
	product.Normalize()
	return &product, nil
}

// UpsertProduct replaces the product document, keeping its original created_at.
func (s *Store) UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	collection, err := s.collection(productsCollection)
	if err != nil {
		return nil, err
	}

	var existing models.Product
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: product.ID}}).Decode(&existing)
	switch {
	case err == nil:
		product.CreatedAt = existing.CreatedAt
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, classify(err)
	}
	product.SetTimestamps()

	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: product.ID}}, product, opts); err != nil {
		return nil, fmt.Errorf("upsert product %s: %w", product.ID.Hex(), classify(err))
	}
	return product, nil
}

// DeleteProduct removes the product and returns the deleted document.
func (s *Store) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	collection, err := s.collection(productsCollection)
	if err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	var product models.Product
	if err := collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("delete product %s: %w", id, classify(err))
	}
	return &product, nil
}
