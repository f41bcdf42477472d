package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"holyremedies.mx/storefront/pkg/models"
)

const promoBannerID = "promoBanner"

// GetPromoBanner falls back to the default banner when the document is absent.
func (s *Store) GetPromoBanner(ctx context.Context) (models.PromoBanner, error) {
	collection, err := s.collection(siteConfigCollection)
	if err != nil {
		return models.DefaultPromoBanner(), err
	}

	var banner models.PromoBanner
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: promoBannerID}}).Decode(&banner)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultPromoBanner(), nil
	}
	if err != nil {
		return models.DefaultPromoBanner(), classify(err)
	}
	return banner.WithDefaults(), nil
}

func (s *Store) SetPromoBanner(ctx context.Context, banner models.PromoBanner) error {
	collection, err := s.collection(siteConfigCollection)
	if err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	_, err = collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: promoBannerID}}, banner, opts)
	return classify(err)
}
