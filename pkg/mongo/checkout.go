package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"holyremedies.mx/storefront/pkg/models"
)

var (
	ErrSessionNotFound   = models.ErrSessionNotFound
	ErrSessionNotPending = models.ErrSessionNotPending
	ErrSessionDeleted    = errors.New("checkout session was deleted")
	errStreamClosed      = errors.New("change stream closed")
)

// pendingFilter matches sessions that carry neither url nor error.
var pendingFilter = bson.D{
	{Key: "url", Value: bson.D{{Key: "$exists", Value: false}}},
	{Key: "error", Value: bson.D{{Key: "$exists", Value: false}}},
}

// CreateCheckoutSession inserts the session under its customer and returns it with its id.
func (s *Store) CreateCheckoutSession(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	collection, err := s.collection(checkoutSessionsCollection)
	if err != nil {
		return nil, err
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	result, err := collection.InsertOne(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("insert checkout session: %w", classify(err))
	}
	session.ID = result.InsertedID.(bson.ObjectID)
	return session, nil
}

// WatchCheckoutSession opens a live feed on one session. The change stream is
// opened before the current document is read, so a write landing between the
// two is still delivered.
func (s *Store) WatchCheckoutSession(ctx context.Context, customerID, sessionID string) (*SessionFeed, error) {
	collection, err := s.collection(checkoutSessionsCollection)
	if err != nil {
		return nil, err
	}
	cid, sid, err := sessionIDs(customerID, sessionID)
	if err != nil {
		return nil, err
	}
	filter := bson.D{{Key: "customer_id", Value: cid}, {Key: "_id", Value: sid}}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: sid}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("watch checkout session: %w", classify(err))
	}

	var current models.CheckoutSession
	if err := collection.FindOne(ctx, filter).Decode(&current); err != nil {
		_ = stream.Close(context.Background())
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, classify(err)
	}

	return &SessionFeed{stream: stream, initial: &current}, nil
}

// WatchNewCheckoutSessions follows inserts into the sessions collection.
func (s *Store) WatchNewCheckoutSessions(ctx context.Context) (*SessionFeed, error) {
	collection, err := s.collection(checkoutSessionsCollection)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	stream, err := collection.Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("watch checkout sessions: %w", classify(err))
	}
	return &SessionFeed{stream: stream}, nil
}

// ListPendingCheckoutSessions returns sessions still awaiting fulfilment, oldest first.
func (s *Store) ListPendingCheckoutSessions(ctx context.Context, limit int64) ([]*models.CheckoutSession, error) {
	collection, err := s.collection(checkoutSessionsCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit)
	cursor, err := collection.Find(ctx, pendingFilter, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	sessions := []*models.CheckoutSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, classify(err)
	}
	return sessions, nil
}

// CompleteCheckoutSession sets the redirect url on a pending session.
func (s *Store) CompleteCheckoutSession(ctx context.Context, sessionID bson.ObjectID, url string) error {
	return s.finishSession(ctx, sessionID, bson.D{{Key: "url", Value: url}})
}

// FailCheckoutSession sets the error payload on a pending session.
func (s *Store) FailCheckoutSession(ctx context.Context, sessionID bson.ObjectID, message string) error {
	return s.finishSession(ctx, sessionID, bson.D{{Key: "error", Value: models.SessionError{Message: message}}})
}

func (s *Store) finishSession(ctx context.Context, sessionID bson.ObjectID, set bson.D) error {
	collection, err := s.collection(checkoutSessionsCollection)
	if err != nil {
		return err
	}

	filter := append(bson.D{{Key: "_id", Value: sessionID}}, pendingFilter...)
	result, err := collection.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update checkout session %s: %w", sessionID.Hex(), classify(err))
	}
	if result.MatchedCount == 0 {
		return ErrSessionNotPending
	}
	return nil
}

func sessionIDs(customerID, sessionID string) (bson.ObjectID, bson.ObjectID, error) {
	cid, err := bson.ObjectIDFromHex(customerID)
	if err != nil {
		return bson.NilObjectID, bson.NilObjectID, ErrSessionNotFound
	}
	sid, err := bson.ObjectIDFromHex(sessionID)
	if err != nil {
		return bson.NilObjectID, bson.NilObjectID, ErrSessionNotFound
	}
	return cid, sid, nil
}

// SessionFeed yields checkout session documents from a change stream,
// optionally preceded by the document as it was when the feed opened.
type SessionFeed struct {
	stream  *mongo.ChangeStream
	initial *models.CheckoutSession
}

type sessionChange struct {
	OperationType string                  `bson:"operationType"`
	FullDocument  *models.CheckoutSession `bson:"fullDocument"`
}

// Next blocks until the next document, the stream fails, or ctx is done.
func (f *SessionFeed) Next(ctx context.Context) (*models.CheckoutSession, error) {
	if f.initial != nil {
		s := f.initial
		f.initial = nil
		return s, nil
	}

	for f.stream.Next(ctx) {
		var change sessionChange
		if err := f.stream.Decode(&change); err != nil {
			return nil, fmt.Errorf("decode change event: %w", err)
		}
		if change.OperationType == "delete" {
			return nil, ErrSessionDeleted
		}
		if change.FullDocument == nil {
			continue
		}
		return change.FullDocument, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := f.stream.Err(); err != nil {
		return nil, classify(err)
	}
	return nil, errStreamClosed
}

func (f *SessionFeed) Close(ctx context.Context) error {
	return f.stream.Close(ctx)
}
