package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"holyremedies.mx/storefront/pkg/models"
)

var errSubscriptionCancelled = errors.New("subscription cancelled")

// Feed is a live view of one checkout session document. Next blocks until
// the document changes, the feed fails, or ctx is done.
type Feed interface {
	Next(ctx context.Context) (*models.CheckoutSession, error)
	Close(ctx context.Context) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, ref SessionRef) (Feed, error)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, ref SessionRef) (Feed, error)

func (f SubscriberFunc) Subscribe(ctx context.Context, ref SessionRef) (Feed, error) {
	return f(ctx, ref)
}

// Subscription owns a Feed. Cancel closes the feed exactly once; no snapshot
// is handed out after Cancel, even one the feed had already produced.
type Subscription struct {
	feed      Feed
	once      sync.Once
	cancelled atomic.Bool
	closeErr  error
}

func newSubscription(feed Feed) *Subscription {
	return &Subscription{feed: feed}
}

func (s *Subscription) Next(ctx context.Context) (*models.CheckoutSession, error) {
	if s.cancelled.Load() {
		return nil, errSubscriptionCancelled
	}
	snap, err := s.feed.Next(ctx)
	if s.cancelled.Load() {
		return nil, errSubscriptionCancelled
	}
	return snap, err
}

func (s *Subscription) Cancel() error {
	s.once.Do(func() {
		s.cancelled.Store(true)
		s.closeErr = s.feed.Close(context.Background())
	})
	return s.closeErr
}

func (s *Subscription) Cancelled() bool {
	return s.cancelled.Load()
}
