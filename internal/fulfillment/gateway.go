// Package fulfillment is the payment integration side of checkout: it picks
// up pending sessions, asks a payment gateway for a hosted payment page and
// writes back either its url or an error.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	midtransgo "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"

	"holyremedies.mx/storefront/pkg/models"
)

var (
	ErrEmptyRedirect   = errors.New("payment gateway returned no redirect url")
	ErrInvalidLineItem = errors.New("checkout session has an invalid line item")
)

//go:generate mockgen -source=gateway.go -destination=../mock/fulfillment/gateway_mock.go -package=mock
type Gateway interface {
	// CreatePayment returns the hosted payment page url for the session.
	CreatePayment(ctx context.Context, session *models.CheckoutSession) (string, error)
}

// GatewayError is a rejection reported by the gateway. Message is written to
// the session as is.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway rejected session (%d): %s", e.StatusCode, e.Message)
}

type MidtransGateway struct {
	create func(req *snap.Request) (*snap.Response, *midtransgo.Error)
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtransgo.Sandbox
	if production {
		env = midtransgo.Production
	}

	c := snap.Client{}
	c.New(serverKey, env)

	return &MidtransGateway{create: c.CreateTransaction}
}

type snapResult struct {
	resp *snap.Response
	err  *midtransgo.Error
}

// CreatePayment gives up when ctx ends. The Snap client has no context
// support, so an abandoned call finishes in the background.
func (g *MidtransGateway) CreatePayment(ctx context.Context, session *models.CheckoutSession) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	req, err := snapRequest(session)
	if err != nil {
		return "", err
	}

	done := make(chan snapResult, 1)
	go func() {
		resp, merr := g.create(req)
		done <- snapResult{resp: resp, err: merr}
	}()

	var res snapResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		return "", &GatewayError{StatusCode: res.err.StatusCode, Message: res.err.Message}
	}
	if res.resp == nil || res.resp.RedirectURL == "" {
		return "", ErrEmptyRedirect
	}
	return res.resp.RedirectURL, nil
}

// snapRequest maps a session to a Snap transaction. Snap takes whole currency
// units, so each unit amount is rounded from minor units and the gross amount
// is summed from the rounded prices.
func snapRequest(session *models.CheckoutSession) (*snap.Request, error) {
	items := make([]midtransgo.ItemDetails, 0, len(session.LineItems))
	var gross int64
	for i, item := range session.LineItems {
		if item.Quantity < 1 || item.Quantity > math.MaxInt32 {
			return nil, fmt.Errorf("%w: line %d has quantity %d", ErrInvalidLineItem, i+1, item.Quantity)
		}

		id := item.PriceData.ProductData.Metadata["productId"]
		if id == "" {
			id = fmt.Sprintf("line-%d", i+1)
		}
		price := wholeUnits(item.PriceData.UnitAmount)
		items = append(items, midtransgo.ItemDetails{
			ID:    id,
			Name:  item.PriceData.ProductData.Name,
			Price: price,
			Qty:   int32(item.Quantity),
		})
		gross += price * int64(item.Quantity)
	}

	req := &snap.Request{
		TransactionDetails: midtransgo.TransactionDetails{
			OrderID:  session.ID.Hex(),
			GrossAmt: gross,
		},
		Items: &items,
	}
	if session.Metadata.UserEmail != "" {
		req.CustomerDetail = &midtransgo.CustomerDetails{Email: session.Metadata.UserEmail}
	}
	if session.SuccessURL != "" {
		req.Callbacks = &snap.Callbacks{
			Finish: strings.ReplaceAll(session.SuccessURL, "{CHECKOUT_SESSION_ID}", session.ID.Hex()),
		}
	}
	return req, nil
}

func wholeUnits(minor int64) int64 {
	return decimal.New(minor, -2).Round(0).IntPart()
}
