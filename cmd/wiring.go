package main

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/checkout"
	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
	"holyremedies.mx/storefront/pkg/mongo"
)

// connectStore tolerates a missing MONGODB_URI: the returned nil store then
// reports every operation as unavailable.
func connectStore(ctx context.Context, cfg global.Config, logger *zap.Logger) (*mongo.Store, error) {
	store, err := mongo.Connect(ctx, cfg)
	if errors.Is(err, global.ErrStoreUnavailable) && cfg.MongoURI == "" {
		logger.Warn("MONGODB_URI not set, document store disabled")
		return nil, nil
	}
	return store, err
}

func sessionSubscriber(store *mongo.Store) checkout.Subscriber {
	return checkout.SubscriberFunc(func(ctx context.Context, ref checkout.SessionRef) (checkout.Feed, error) {
		feed, err := store.WatchCheckoutSession(ctx, ref.CustomerID, ref.SessionID)
		if err != nil {
			return nil, err
		}
		return feed, nil
	})
}

// fulfillmentSessions exposes the insert feed as a checkout.Feed.
type fulfillmentSessions struct {
	store *mongo.Store
}

func (s fulfillmentSessions) ListPendingCheckoutSessions(ctx context.Context, limit int64) ([]*models.CheckoutSession, error) {
	return s.store.ListPendingCheckoutSessions(ctx, limit)
}

func (s fulfillmentSessions) WatchNewCheckoutSessions(ctx context.Context) (checkout.Feed, error) {
	feed, err := s.store.WatchNewCheckoutSessions(ctx)
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func (s fulfillmentSessions) CompleteCheckoutSession(ctx context.Context, id bson.ObjectID, url string) error {
	return s.store.CompleteCheckoutSession(ctx, id, url)
}

func (s fulfillmentSessions) FailCheckoutSession(ctx context.Context, id bson.ObjectID, message string) error {
	return s.store.FailCheckoutSession(ctx, id, message)
}
