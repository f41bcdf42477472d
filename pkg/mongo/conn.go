package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/pkg/global"
)

const (
	customersCollection        = "customers"
	checkoutSessionsCollection = "checkout_sessions"
	productsCollection         = "products"
	siteConfigCollection       = "siteConfig"
	adminsCollection           = "admins"
	categoriesCollection       = "categories"
)

// Store owns the MongoDB client. A nil *Store is valid and reports every
// operation as global.ErrStoreUnavailable.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

// Connect returns global.ErrStoreUnavailable when no URI is configured.
func Connect(ctx context.Context, cfg global.Config) (*Store, error) {
	if cfg.MongoURI == "" {
		return nil, global.ErrStoreUnavailable
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("create mongodb client: %w", err)
	}

	store := NewStore(client, cfg.MongoDatabase)
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	store.logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
	return store, nil
}

func NewStore(client *mongo.Client, databaseName string) *Store {
	return &Store{
		client:   client,
		database: client.Database(databaseName),
		logger:   zap.L().Named("mongo"),
	}
}

func (s *Store) Configured() bool {
	return s != nil && s.database != nil
}

func (s *Store) Ping(ctx context.Context) error {
	if !s.Configured() {
		return global.ErrStoreUnavailable
	}
	if err := s.client.Ping(ctx, nil); err != nil {
		return classify(fmt.Errorf("ping mongodb: %w", err))
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if !s.Configured() {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(name string) (*mongo.Collection, error) {
	if !s.Configured() {
		return nil, global.ErrStoreUnavailable
	}
	return s.database.Collection(name), nil
}

// classify tags connectivity failures with global.ErrStoreUnavailable so
// callers can tell "down" apart from "rejected".
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrClientDisconnected) || mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %w", global.ErrStoreUnavailable, err)
	}
	return err
}
