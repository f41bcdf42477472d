package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/metrics"
)

type State int

const (
	StatePending State = iota
	StateFulfilled
	StateFailed
	StateConnectionLost
	StateCancelled
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFulfilled:
		return "fulfilled"
	case StateFailed:
		return "failed"
	case StateConnectionLost:
		return "connection_lost"
	case StateCancelled:
		return "cancelled"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of watching one session. RedirectURL is set
// only for StateFulfilled and Err only for the other terminal states.
type Outcome struct {
	State       State
	RedirectURL string
	Err         error
}

// CartClearer is the one cart operation the watcher needs.
type CartClearer interface {
	ClearCart(ctx context.Context) error
}

type WatcherConfig struct {
	// Timeout bounds how long a session may stay pending; zero waits forever.
	Timeout time.Duration
	Metrics *metrics.Metrics
}

type Watcher struct {
	subscriber Subscriber
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewWatcher(subscriber Subscriber, cfg WatcherConfig) *Watcher {
	return &Watcher{
		subscriber: subscriber,
		timeout:    cfg.Timeout,
		metrics:    cfg.Metrics,
		logger:     zap.L().Named("checkout.watcher"),
	}
}

// Watch follows the session until it is fulfilled, failed, the feed breaks,
// the timeout passes or ctx is cancelled. On fulfilment the cart is cleared
// before the outcome is returned. The returned error is non-nil only when the
// subscription could not be opened at all.
func (w *Watcher) Watch(ctx context.Context, ref SessionRef, cart CartClearer) (Outcome, error) {
	watchCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		watchCtx, cancel = context.WithTimeoutCause(ctx, w.timeout, ErrSessionTimeout)
		defer cancel()
	}

	feed, err := w.subscriber.Subscribe(watchCtx, ref)
	if err != nil {
		return Outcome{}, err
	}
	sub := newSubscription(feed)
	defer sub.Cancel()

	logger := w.logger.With(zap.String("session", ref.Path()))
	outcome := w.follow(watchCtx, ctx, sub, cart, logger)
	if err := sub.Cancel(); err != nil {
		logger.Debug("close session feed", zap.Error(err))
	}

	w.metrics.WatchOutcome(outcome.State.String())
	logger.Info("checkout session watch finished", zap.Stringer("state", outcome.State))
	return outcome, nil
}

func (w *Watcher) follow(watchCtx, parent context.Context, sub *Subscription, cart CartClearer, logger *zap.Logger) Outcome {
	for {
		snap, err := sub.Next(watchCtx)
		if err != nil {
			switch {
			case parent.Err() != nil:
				return Outcome{State: StateCancelled, Err: parent.Err()}
			case errors.Is(context.Cause(watchCtx), ErrSessionTimeout):
				return Outcome{State: StateTimedOut, Err: ErrSessionTimeout}
			default:
				logger.Warn("session feed failed", zap.Error(err))
				return Outcome{State: StateConnectionLost, Err: fmt.Errorf("%w: %w", ErrConnectivity, err)}
			}
		}
		if snap == nil {
			continue
		}

		// error wins over url when both are present
		if snap.Error != nil {
			return Outcome{State: StateFailed, Err: &FulfillmentError{Message: snap.Error.Message}}
		}
		if snap.URL != "" {
			if err := cart.ClearCart(parent); err != nil {
				logger.Error("clear cart after fulfilment failed", zap.Error(err))
			}
			return Outcome{State: StateFulfilled, RedirectURL: snap.URL}
		}
	}
}
