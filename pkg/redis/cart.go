package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"holyremedies.mx/storefront/pkg/models"
)

// CartTTL keeps an idle browser cart around for a month; every save refreshes it.
const CartTTL = 30 * 24 * time.Hour

// CartStorage persists a browser's ordered cart lines as one JSON document
// under cart:{browserKey}.
type CartStorage struct {
	client *redisclient.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCartStorage(client *redisclient.Client) *CartStorage {
	return &CartStorage{
		client: client,
		ttl:    CartTTL,
		logger: zap.L().Named("redis.cart"),
	}
}

// Load returns the stored lines. A missing key is an empty cart, and so is a
// value that no longer decodes as a list of valid lines.
func (s *CartStorage) Load(ctx context.Context, key string) ([]models.CartLine, error) {
	data, err := s.client.Get(ctx, cartKey(key)).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		s.logger.Warn("discarding unreadable cart", zap.String("cart", key), zap.Error(err))
		return nil, nil
	}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 {
			s.logger.Warn("discarding cart with invalid line", zap.String("cart", key), zap.String("product_id", l.ProductID))
			return nil, nil
		}
	}
	return lines, nil
}

func (s *CartStorage) Save(ctx context.Context, key string, lines []models.CartLine) error {
	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *CartStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, cartKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

func cartKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}
