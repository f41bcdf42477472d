package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"holyremedies.mx/storefront/pkg/models"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	productTTL    = 24 * time.Hour
	emptyCategory = "-"
)

// ProductCache is a read-through cache for catalog entries keyed by product id,
// plus one id list per category.
type ProductCache struct {
	client *redisclient.Client
}

func NewProductCache(client *redisclient.Client) *ProductCache {
	return &ProductCache{client: client}
}

func (c *ProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get product: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &product, nil
}

// Set stores the product and drops its category list, which is rebuilt in
// full on the next catalog read.
func (c *ProductCache) Set(ctx context.Context, product *models.Product) error {
	productJSON, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product %s: %w", product.ID.Hex(), err)
	}

	id := product.ID.Hex()
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, productKey(id), productJSON, productTTL)
	if product.Category != "" {
		pipe.Del(ctx, categoryKey(product.Category))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for product %s: %w", id, err)
	}
	return nil
}

func (c *ProductCache) Delete(ctx context.Context, product *models.Product) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, productKey(product.ID.Hex()))
	if product.Category != "" {
		pipe.Del(ctx, categoryKey(product.Category))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove product from Redis cache: %w", err)
	}
	return nil
}

// SetCategory replaces the cached product list of a category, in the given
// order. An empty category is stored as a single placeholder element.
func (c *ProductCache) SetCategory(ctx context.Context, name string, products []*models.Product) error {
	key := categoryKey(name)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)

	ids := make([]any, 0, len(products))
	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal product %s: %w", p.ID.Hex(), err)
		}
		pipe.Set(ctx, productKey(p.ID.Hex()), data, productTTL)
		ids = append(ids, p.ID.Hex())
	}
	if len(ids) == 0 {
		ids = append(ids, emptyCategory)
	}
	pipe.RPush(ctx, key, ids...)
	pipe.Expire(ctx, key, productTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache category %s: %w", name, err)
	}
	return nil
}

// GetCategory returns the cached products of a category. A missing list, an
// expired product or a product that moved to another category is a miss.
func (c *ProductCache) GetCategory(ctx context.Context, name string) ([]*models.Product, error) {
	ids, err := c.client.LRange(ctx, categoryKey(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read category %s: %w", name, err)
	}
	if len(ids) == 0 {
		return nil, ErrCacheMiss
	}
	if len(ids) == 1 && ids[0] == emptyCategory {
		return []*models.Product{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read category %s products: %w", name, err)
	}

	products := make([]*models.Product, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, ErrCacheMiss
		}
		var product models.Product
		if err := json.Unmarshal([]byte(raw), &product); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product: %w", err)
		}
		if product.Category != name {
			return nil, ErrCacheMiss
		}
		products = append(products, &product)
	}
	return products, nil
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func categoryKey(name string) string {
	return fmt.Sprintf("category:%s", name)
}
