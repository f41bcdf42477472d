package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"holyremedies.mx/storefront/pkg/models"
)

var ErrAdminNotFound = models.ErrAdminNotFound

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	collection, err := s.collection(adminsCollection)
	if err != nil {
		return nil, err
	}

	var admin models.Admin
	if err := collection.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&admin); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAdminNotFound
		}
		return nil, classify(err)
	}
	return &admin, nil
}

func (s *Store) CreateAdmin(ctx context.Context, email, passwordHash string) (*models.Admin, error) {
	collection, err := s.collection(adminsCollection)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{Email: email, PasswordHash: passwordHash}
	result, err := collection.InsertOne(ctx, admin)
	if err != nil {
		return nil, classify(err)
	}
	admin.ID = result.InsertedID.(bson.ObjectID)
	return admin, nil
}
