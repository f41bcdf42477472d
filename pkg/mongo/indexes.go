package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Lookup only. Customer creation by email is not serialised,
	// so this index cannot be unique.
	{
		CollectionName: customersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_customer_email"),
		},
	},
	{
		CollectionName: checkoutSessionsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "customer_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_customer_sessions"),
		},
	},
	// Pending-session scan by the fulfillment worker.
	{
		CollectionName: checkoutSessionsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "url", Value: 1},
				{Key: "error", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_session_pending"),
		},
	},
	{
		CollectionName: productsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_product_name"),
		},
	},
	{
		CollectionName: productsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("idx_category"),
		},
	},
	{
		CollectionName: categoriesCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "order", Value: 1}},
			Options: options.Index().SetName("idx_category_order"),
		},
	},
	{
		CollectionName: adminsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_admin_email_unique"),
		},
	},
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	s.logger.Info("starting index creation")

	for _, idxConfig := range requiredIndexes {
		collection, err := s.collection(idxConfig.CollectionName)
		if err != nil {
			return err
		}

		indexName, err := collection.Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idxConfig.CollectionName, classify(err))
		}

		s.logger.Info("index ready", zap.String("index", indexName), zap.String("collection", idxConfig.CollectionName))
	}

	return nil
}
