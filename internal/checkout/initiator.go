// Package checkout turns a cart into a pending payment session and watches
// that session until the payment integration completes it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/metrics"
	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
)

const sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

//go:generate mockgen -source=initiator.go -destination=../mock/checkout/repository_mock.go -package=mock
type Repository interface {
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, email string) (*models.Customer, error)
	CreateCheckoutSession(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error)
}

// SessionRef addresses a checkout session nested under its customer.
type SessionRef struct {
	CustomerID string
	SessionID  string
}

func (r SessionRef) Path() string {
	return fmt.Sprintf("customers/%s/checkout_sessions/%s", r.CustomerID, r.SessionID)
}

type InitiatorConfig struct {
	BaseURL  string
	Currency string
	Metrics  *metrics.Metrics
}

type Initiator struct {
	repo     Repository
	baseURL  string
	currency string
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewInitiator(repo Repository, cfg InitiatorConfig) *Initiator {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "mxn"
	}
	return &Initiator{
		repo:     repo,
		baseURL:  global.NormalizeBaseURL(cfg.BaseURL),
		currency: currency,
		validate: validator.New(),
		metrics:  cfg.Metrics,
		logger:   zap.L().Named("checkout.initiator"),
	}
}

// CreateSession writes a pending checkout session for the cart snapshot and
// returns its reference. No payment is processed here.
func (i *Initiator) CreateSession(ctx context.Context, lines []models.CartLine, email string) (SessionRef, error) {
	if i.repo == nil {
		i.metrics.CheckoutSession("unavailable")
		return SessionRef{}, ErrServiceUnavailable
	}
	if len(lines) == 0 {
		i.metrics.CheckoutSession("empty_cart")
		return SessionRef{}, ErrEmptyCart
	}
	email = strings.TrimSpace(email)
	if err := i.validate.Var(email, "required,email"); err != nil {
		i.metrics.CheckoutSession("invalid_email")
		return SessionRef{}, ErrInvalidEmail
	}

	logger := i.logger.With(zap.String("email", email), zap.Int("lines", len(lines)))

	customer, err := i.findOrCreateCustomer(ctx, email)
	if err != nil {
		logger.Error("resolve customer failed", zap.Error(err))
		return SessionRef{}, i.fail(err)
	}

	session := &models.CheckoutSession{
		CustomerID: customer.ID,
		LineItems:  i.lineItems(lines),
		SuccessURL: i.baseURL + "/gracias?session_id=" + sessionIDPlaceholder,
		CancelURL:  i.baseURL + "/carrito",
		Metadata:   models.SessionMetadata{UserEmail: email},
	}

	created, err := i.repo.CreateCheckoutSession(ctx, session)
	if err != nil {
		logger.Error("create checkout session failed", zap.String("customer_id", customer.ID.Hex()), zap.Error(err))
		return SessionRef{}, i.fail(err)
	}

	ref := SessionRef{CustomerID: customer.ID.Hex(), SessionID: created.ID.Hex()}
	i.metrics.CheckoutSession("created")
	logger.Info("checkout session created", zap.String("session", ref.Path()))
	return ref, nil
}

// findOrCreateCustomer is not serialised: two concurrent first checkouts with
// the same email can both create a customer.
func (i *Initiator) findOrCreateCustomer(ctx context.Context, email string) (*models.Customer, error) {
	customer, err := i.repo.FindCustomerByEmail(ctx, email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, models.ErrCustomerNotFound) {
		return nil, err
	}
	return i.repo.CreateCustomer(ctx, email)
}

func (i *Initiator) lineItems(lines []models.CartLine) []models.LineItem {
	items := make([]models.LineItem, 0, len(lines))
	for _, l := range lines {
		item := models.LineItem{
			PriceData: models.PriceData{
				Currency:   i.currency,
				UnitAmount: toMinorUnits(l.EffectivePrice()),
				ProductData: models.ProductData{
					Name:     l.Name,
					Metadata: map[string]string{"productId": l.ProductID},
				},
			},
			Quantity: l.Quantity,
		}
		if l.ImageRef != "" {
			item.PriceData.ProductData.Images = []string{l.ImageRef}
		}
		items = append(items, item)
	}
	return items
}

func (i *Initiator) fail(err error) error {
	if errors.Is(err, global.ErrStoreUnavailable) {
		i.metrics.CheckoutSession("unavailable")
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	i.metrics.CheckoutSession("failed")
	return fmt.Errorf("%w: %w", ErrCheckoutCreation, err)
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
