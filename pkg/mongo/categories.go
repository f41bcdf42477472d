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

var ErrCategoryNotFound = models.ErrCategoryNotFound

// ListCategories returns every category in display order.
func (s *Store) ListCategories(ctx context.Context) ([]*models.Category, error) {
	collection, err := s.collection(categoriesCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	categories := []*models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, classify(err)
	}
	return categories, nil
}

func (s *Store) UpsertCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	collection, err := s.collection(categoriesCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: category.ID}}, category, opts); err != nil {
		return nil, fmt.Errorf("upsert category %s: %w", category.ID.Hex(), classify(err))
	}
	return category, nil
}

// DeleteCategory removes the category. Its products keep their category name
// and drop out of the catalog until they are moved.
func (s *Store) DeleteCategory(ctx context.Context, id string) (*models.Category, error) {
	collection, err := s.collection(categoriesCollection)
	if err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCategoryNotFound
	}

	var category models.Category
	if err := collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&category); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("delete category %s: %w", id, classify(err))
	}
	return &category, nil
}
