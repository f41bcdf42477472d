// Package cart holds the browser-scoped shopping cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/pkg/models"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Storage persists a cart's full ordered line list under a browser key.
//
//go:generate mockgen -source=store.go -destination=../mock/cart/storage_mock.go -package=mock
type Storage interface {
	Load(ctx context.Context, key string) ([]models.CartLine, error)
	Save(ctx context.Context, key string, lines []models.CartLine) error
	Delete(ctx context.Context, key string) error
}

// Store is one browser's cart. Every mutation writes the whole cart back to
// Storage before returning.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	lines   []models.CartLine
	onSave  func(op string)
}

type Option func(*Store)

// WithMutationHook is called after every successful mutation with the operation name.
func WithMutationHook(fn func(op string)) Option {
	return func(s *Store) { s.onSave = fn }
}

// Open loads the cart stored under key.
func Open(ctx context.Context, storage Storage, key string, opts ...Option) (*Store, error) {
	lines, err := storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	s := &Store{storage: storage, key: key, lines: lines}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddToCart increments the existing line for the product or appends a new one
// with the product's current price snapshot.
func (s *Store) AddToCart(ctx context.Context, product *models.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := product.ID.Hex()
	next := s.copyLines()
	if i := indexOf(next, id); i >= 0 {
		next[i].Quantity += quantity
	} else {
		next = append(next, models.NewCartLine(product, quantity))
	}
	return s.commit(ctx, "add", next)
}

// UpdateQuantity sets a line's quantity. Values below 1 are clamped to 1 and
// an unknown product id leaves the cart unchanged.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, productID)
	if i < 0 || s.lines[i].Quantity == quantity {
		return nil
	}
	next := s.copyLines()
	next[i].Quantity = quantity
	return s.commit(ctx, "update", next)
}

func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}
	next := make([]models.CartLine, 0, len(s.lines)-1)
	next = append(next, s.lines[:i]...)
	next = append(next, s.lines[i+1:]...)
	return s.commit(ctx, "remove", next)
}

func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.lines = nil
	s.notify("clear")
	return nil
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLines()
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CartTotal(s.lines)
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CartCount(s.lines)
}

func (s *Store) View() models.CartView {
	return models.NewCartView(s.Lines())
}

// commit persists next and only then makes it the in-memory state.
func (s *Store) commit(ctx context.Context, op string, next []models.CartLine) error {
	if err := s.storage.Save(ctx, s.key, next); err != nil {
		zap.L().Named("cart").Warn("persist cart failed", zap.String("op", op), zap.String("cart", s.key), zap.Error(err))
		return fmt.Errorf("save cart: %w", err)
	}
	s.lines = next
	s.notify(op)
	return nil
}

func (s *Store) notify(op string) {
	if s.onSave != nil {
		s.onSave(op)
	}
}

func (s *Store) copyLines() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func indexOf(lines []models.CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
