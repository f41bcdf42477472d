package fulfillment

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/checkout"
	"holyremedies.mx/storefront/internal/metrics"
	"holyremedies.mx/storefront/pkg/models"
)

const (
	defaultScanLimit   = 100
	defaultCallTimeout = 30 * time.Second
	fallbackMessage    = "payment_gateway_error"
)

type Sessions interface {
	ListPendingCheckoutSessions(ctx context.Context, limit int64) ([]*models.CheckoutSession, error)
	WatchNewCheckoutSessions(ctx context.Context) (checkout.Feed, error)
	CompleteCheckoutSession(ctx context.Context, sessionID bson.ObjectID, url string) error
	FailCheckoutSession(ctx context.Context, sessionID bson.ObjectID, message string) error
}

type WorkerConfig struct {
	ScanLimit   int64
	CallTimeout time.Duration
	Metrics     *metrics.Metrics
}

type Worker struct {
	sessions    Sessions
	gateway     Gateway
	scanLimit   int64
	callTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewWorker(sessions Sessions, gateway Gateway, cfg WorkerConfig) *Worker {
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = defaultScanLimit
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &Worker{
		sessions:    sessions,
		gateway:     gateway,
		scanLimit:   cfg.ScanLimit,
		callTimeout: cfg.CallTimeout,
		metrics:     cfg.Metrics,
		logger:      zap.L().Named("fulfillment.worker"),
	}
}

// Run fulfils the sessions already pending and then every new one until ctx
// is done. The insert feed is opened before the scan so nothing inserted in
// between is missed; a session seen twice is settled by the conditional update.
func (w *Worker) Run(ctx context.Context) error {
	feed, err := w.sessions.WatchNewCheckoutSessions(ctx)
	if err != nil {
		return err
	}
	defer feed.Close(context.Background())

	pending, err := w.sessions.ListPendingCheckoutSessions(ctx, w.scanLimit)
	if err != nil {
		return err
	}
	w.logger.Info("fulfilling pending sessions", zap.Int("count", len(pending)))
	for _, s := range pending {
		w.Process(ctx, s)
	}

	for {
		s, err := feed.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if s == nil || !s.IsPending() {
			continue
		}
		w.Process(ctx, s)
	}
}

// Process writes exactly one of url or error on a pending session.
func (w *Worker) Process(ctx context.Context, session *models.CheckoutSession) {
	logger := w.logger.With(
		zap.String("session_id", session.ID.Hex()),
		zap.String("customer_id", session.CustomerID.Hex()),
	)

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	url, gwErr := w.gateway.CreatePayment(callCtx, session)
	cancel()

	var err error
	result := "completed"
	if gwErr != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("payment gateway failed", zap.Error(gwErr))
		result = "failed"
		err = w.sessions.FailCheckoutSession(ctx, session.ID, errorMessage(gwErr))
	} else {
		err = w.sessions.CompleteCheckoutSession(ctx, session.ID, url)
	}

	switch {
	case err == nil:
		logger.Info("checkout session settled", zap.String("result", result))
	case errors.Is(err, models.ErrSessionNotPending):
		result = "skipped"
		logger.Debug("checkout session already settled")
	default:
		result = "error"
		logger.Error("write checkout session result failed", zap.Error(err))
	}
	w.metrics.Fulfillment(result)
}

func errorMessage(err error) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "payment_gateway_timeout"
	}
	if errors.Is(err, ErrEmptyRedirect) {
		return ErrEmptyRedirect.Error()
	}
	if errors.Is(err, ErrInvalidLineItem) {
		return ErrInvalidLineItem.Error()
	}
	return fallbackMessage
}
