package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"holyremedies.mx/storefront/internal/auth"
	"holyremedies.mx/storefront/internal/checkout"
	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
	"holyremedies.mx/storefront/pkg/redis"
)

type fakeCatalog struct {
	mu         sync.Mutex
	products   map[string]*models.Product
	categories []*models.Category
	reads      int
	lists      int
	err        error
}

func (f *fakeCatalog) ListProducts(context.Context) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) UpsertProduct(_ context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID.Hex()] = p
	return p, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	delete(f.products, id)
	return p, nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := append([]*models.Category{}, f.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeCatalog) UpsertCategory(_ context.Context, c *models.Category) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.categories {
		if existing.ID == c.ID {
			f.categories[i] = c
			return c, nil
		}
	}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, id string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.categories {
		if c.ID.Hex() == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return c, nil
		}
	}
	return nil, models.ErrCategoryNotFound
}

type fakeSite struct {
	banner *models.PromoBanner
	err    error
}

func (f *fakeSite) GetPromoBanner(context.Context) (models.PromoBanner, error) {
	if f.err != nil {
		return models.PromoBanner{}, f.err
	}
	if f.banner == nil {
		return models.DefaultPromoBanner(), nil
	}
	return *f.banner, nil
}

func (f *fakeSite) SetPromoBanner(_ context.Context, b models.PromoBanner) error {
	if f.err != nil {
		return f.err
	}
	f.banner = &b
	return nil
}

type fakeCheckoutRepo struct {
	mu       sync.Mutex
	sessions []*models.CheckoutSession
	customer *models.Customer
}

func (f *fakeCheckoutRepo) FindCustomerByEmail(context.Context, string) (*models.Customer, error) {
	if f.customer == nil {
		return nil, models.ErrCustomerNotFound
	}
	return f.customer, nil
}

func (f *fakeCheckoutRepo) CreateCustomer(_ context.Context, email string) (*models.Customer, error) {
	f.customer = &models.Customer{ID: bson.NewObjectID(), Email: email}
	return f.customer, nil
}

func (f *fakeCheckoutRepo) CreateCheckoutSession(_ context.Context, s *models.CheckoutSession) (*models.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = bson.NewObjectID()
	f.sessions = append(f.sessions, s)
	return s, nil
}

// scriptedFeed yields its snapshots in order and then blocks.
type scriptedFeed struct {
	snaps []*models.CheckoutSession
}

func (f *scriptedFeed) Next(ctx context.Context) (*models.CheckoutSession, error) {
	if len(f.snaps) > 0 {
		s := f.snaps[0]
		f.snaps = f.snaps[1:]
		return s, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *scriptedFeed) Close(context.Context) error { return nil }

type testServer struct {
	engine  *gin.Engine
	catalog *fakeCatalog
	site    *fakeSite
	repo    *fakeCheckoutRepo
	mr      *miniredis.Miniredis
	product *models.Product
	feeds   map[string]checkout.Feed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redisclient.NewClient(&redisclient.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	promo := 80.0
	product := &models.Product{ID: bson.NewObjectID(), Name: "Té verde", Price: 100, PromotionalPrice: &promo, Images: []string{"https://img.example/te.png"}, Category: "Tés"}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	admins := adminRepo{"admin@example.com": {ID: bson.NewObjectID(), Email: "admin@example.com", PasswordHash: string(hash)}}

	ts := &testServer{
		catalog: &fakeCatalog{
			products: map[string]*models.Product{product.ID.Hex(): product},
			categories: []*models.Category{
				{ID: bson.NewObjectID(), Name: "Dulces", Order: 2},
				{ID: bson.NewObjectID(), Name: "Tés", Logo: "https://img.example/tes.png", Order: 1},
			},
		},
		site:    &fakeSite{},
		repo:    &fakeCheckoutRepo{},
		mr:      mr,
		product: product,
		feeds:   map[string]checkout.Feed{},
	}

	subscriber := checkout.SubscriberFunc(func(_ context.Context, ref checkout.SessionRef) (checkout.Feed, error) {
		feed, ok := ts.feeds[ref.SessionID]
		if !ok {
			return nil, models.ErrSessionNotFound
		}
		return feed, nil
	})

	ts.engine = NewEngine(Dependencies{
		Config:       global.Config{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		Catalog:      ts.catalog,
		ProductCache: redis.NewProductCache(client),
		Site:         ts.site,
		CartStorage:  redis.NewCartStorage(client),
		Initiator:    checkout.NewInitiator(ts.repo, checkout.InitiatorConfig{BaseURL: "shop.example"}),
		Watcher:      checkout.NewWatcher(subscriber, checkout.WatcherConfig{Timeout: time.Second}),
		Auth:         auth.NewService(admins, "test-secret", time.Hour),
	})
	return ts
}

type adminRepo map[string]*models.Admin

func (a adminRepo) FindAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	if admin, ok := a[email]; ok {
		return admin, nil
	}
	return nil, models.ErrAdminNotFound
}

func (ts *testServer) do(method, path string, body any, cookies []*http.Cookie, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool                     `json:"success"`
	Data    json.RawMessage          `json:"data"`
	Message string                   `json:"message"`
	Errors  []global.ValidationError `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func cartCookie(t *testing.T, rec *httptest.ResponseRecorder) []*http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cartCookieName {
			return []*http.Cookie{c}
		}
	}
	t.Fatalf("no %s cookie issued", cartCookieName)
	return nil
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "not_configured", body["database"])
}

func TestProducts(t *testing.T) {
	ts := newTestServer(t)
	path := "/api/products/" + ts.product.ID.Hex()

	t.Run("cache_miss_then_hit", func(t *testing.T) {
		rec := ts.do(http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

		rec = ts.do(http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
		assert.Equal(t, 1, ts.catalog.reads)
	})

	t.Run("not_found", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/products/"+bson.NewObjectID().Hex(), nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list_unconfigured_store_is_empty", func(t *testing.T) {
		ts.catalog.err = global.ErrStoreUnavailable
		defer func() { ts.catalog.err = nil }()

		rec := ts.do(http.MethodGet, "/api/products", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var products []models.Product
		decode(t, rec, &products)
		assert.Empty(t, products)
	})
}

func TestCatalog(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var categories []models.Category
	decode(t, rec, &categories)
	require.Len(t, categories, 2)
	assert.Equal(t, "Tés", categories[0].Name)
	assert.Equal(t, "Dulces", categories[1].Name)

	rec = ts.do(http.MethodGet, "/api/catalog", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var sections []models.CatalogSection
	decode(t, rec, &sections)
	require.Len(t, sections, 1)
	assert.Equal(t, "Tés", sections[0].Name)
	assert.Equal(t, "https://img.example/tes.png", sections[0].Logo)
	require.Len(t, sections[0].Products, 1)
	assert.Equal(t, ts.product.ID, sections[0].Products[0].ID)
	assert.True(t, ts.mr.Exists("category:Tés"))

	rec = ts.do(http.MethodGet, "/api/catalog", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	sections = nil
	decode(t, rec, &sections)
	require.Len(t, sections, 1)
	assert.Equal(t, 1, ts.catalog.lists)

	t.Run("unconfigured_store_is_empty", func(t *testing.T) {
		ts.catalog.err = global.ErrStoreUnavailable
		defer func() { ts.catalog.err = nil }()

		rec := ts.do(http.MethodGet, "/api/catalog", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var sections []models.CatalogSection
		decode(t, rec, &sections)
		assert.Empty(t, sections)
	})
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t)
	id := ts.product.ID.Hex()

	rec := ts.do(http.MethodPost, "/api/cart/items", gin.H{"productId": id, "quantity": 2}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := cartCookie(t, rec)

	var view models.CartView
	decode(t, rec, &view)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 160.0, view.Total)

	rec = ts.do(http.MethodPost, "/api/cart/items", gin.H{"productId": id, "quantity": 1}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	rec = ts.do(http.MethodPut, "/api/cart/items/"+id, gin.H{"quantity": 0}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, 1, view.Items[0].Quantity)

	rec = ts.do(http.MethodGet, "/api/cart", nil, cookies)
	decode(t, rec, &view)
	assert.Equal(t, 1, view.Count)

	rec = ts.do(http.MethodDelete, "/api/cart/items/"+id, nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.Count)
}

func TestCart_AddValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/cart/items", gin.H{"productId": ts.product.ID.Hex(), "quantity": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/cart/items", gin.H{"productId": bson.NewObjectID().Hex(), "quantity": 1}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_StorageDown(t *testing.T) {
	ts := newTestServer(t)
	ts.mr.Close()

	rec := ts.do(http.MethodGet, "/api/cart", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/checkout", gin.H{"email": "ana@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, checkout.ErrEmptyCart.Error(), env.Message)
	assert.Empty(t, ts.repo.sessions)
}

func TestCheckout_CreateAndWatch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/cart/items", gin.H{"productId": ts.product.ID.Hex(), "quantity": 2}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := cartCookie(t, rec)

	rec = ts.do(http.MethodPost, "/api/checkout", gin.H{"email": "bad"}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/checkout", gin.H{"email": "ana@example.com"}, cookies)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ref models.CheckoutSessionRef
	decode(t, rec, &ref)
	require.Len(t, ts.repo.sessions, 1)
	assert.Equal(t, ts.repo.sessions[0].ID.Hex(), ref.SessionID)
	assert.Equal(t, int64(8000), ts.repo.sessions[0].LineItems[0].PriceData.UnitAmount)

	// creating a session leaves the cart alone
	rec = ts.do(http.MethodGet, "/api/cart", nil, cookies)
	var view models.CartView
	decode(t, rec, &view)
	assert.Equal(t, 2, view.Count)

	ts.feeds[ref.SessionID] = &scriptedFeed{snaps: []*models.CheckoutSession{
		{},
		{URL: "https://pay.example/s1"},
	}}

	rec = ts.do(http.MethodGet, "/api/checkout/"+ref.CustomerID+"/sessions/"+ref.SessionID+"/events", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"))
	body := rec.Body.String()
	assert.Contains(t, body, "event:pending")
	assert.Contains(t, body, "event:redirect")
	assert.Contains(t, body, "https://pay.example/s1")
	assert.NotContains(t, body, "event:error")

	rec = ts.do(http.MethodGet, "/api/cart", nil, cookies)
	decode(t, rec, &view)
	assert.Equal(t, 0, view.Count)
}

func TestCheckout_WatchFailedLeavesCart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/cart/items", gin.H{"productId": ts.product.ID.Hex(), "quantity": 1}, nil)
	cookies := cartCookie(t, rec)

	sessionID := bson.NewObjectID().Hex()
	ts.feeds[sessionID] = &scriptedFeed{snaps: []*models.CheckoutSession{
		{Error: &models.SessionError{Message: "card_declined"}},
	}}

	rec = ts.do(http.MethodGet, "/api/checkout/c1/sessions/"+sessionID+"/events", nil, cookies)
	body := rec.Body.String()
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, "card_declined")
	assert.Equal(t, 1, strings.Count(body, "event:error"))

	rec = ts.do(http.MethodGet, "/api/cart", nil, cookies)
	var view models.CartView
	decode(t, rec, &view)
	assert.Equal(t, 1, view.Count)
}

func TestCheckout_WatchUnknownSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/checkout/c1/sessions/nope/events", nil, nil)
	body := rec.Body.String()
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, models.ErrSessionNotFound.Error())
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	id := bson.NewObjectID().Hex()
	payload := gin.H{"name": "Miel de abeja", "price": 120, "category": "dulces"}

	rec := ts.do(http.MethodPut, "/api/admin/products/"+id, payload, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/login", gin.H{"email": "admin@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/login", gin.H{"email": "admin@example.com", "password": "s3cret"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var token auth.Token
	decode(t, rec, &token)
	require.NotEmpty(t, token.AccessToken)
	bearer := "Bearer " + token.AccessToken

	rec = ts.do(http.MethodPut, "/api/admin/products/"+id, payload, nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "REFRESHED", rec.Header().Get("X-Cache"))

	rec = ts.do(http.MethodGet, "/api/products/"+id, nil, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = ts.do(http.MethodGet, "/api/catalog", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var sections []models.CatalogSection
	decode(t, rec, &sections)
	require.Len(t, sections, 1, "dulces has no category yet")

	categoryID := bson.NewObjectID().Hex()
	rec = ts.do(http.MethodPut, "/api/admin/categories/"+categoryID, gin.H{"name": "dulces", "order": 0}, nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/catalog", nil, nil)
	sections = nil
	decode(t, rec, &sections)
	require.Len(t, sections, 2)
	assert.Equal(t, "dulces", sections[0].Name)
	assert.Equal(t, "Miel de abeja", sections[0].Products[0].Name)

	rec = ts.do(http.MethodPut, "/api/admin/categories/not-hex", gin.H{"name": "x"}, nil, "Authorization", bearer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/admin/products/"+id, nil, nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ts.mr.Exists("product:"+id))
	assert.False(t, ts.mr.Exists("category:dulces"))

	rec = ts.do(http.MethodGet, "/api/products/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/admin/products/"+id, nil, nil, "Authorization", bearer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/admin/categories/"+categoryID, nil, nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodDelete, "/api/admin/categories/"+categoryID, nil, nil, "Authorization", bearer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	banner := gin.H{"text": "Envío gratis", "link": "/tienda", "isActive": true}
	rec = ts.do(http.MethodPut, "/api/admin/site/promo-banner", banner, nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/site/promo-banner", nil, nil)
	var got models.PromoBanner
	decode(t, rec, &got)
	assert.Equal(t, "Envío gratis", got.Text)
	assert.True(t, got.IsActive)
	assert.Equal(t, "#29ABE2", got.BackgroundColor)
}

func TestPromoBanner_DefaultsWhenStoreFails(t *testing.T) {
	ts := newTestServer(t)
	ts.site.err = errors.New("boom")

	rec := ts.do(http.MethodGet, "/api/site/promo-banner", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.PromoBanner
	decode(t, rec, &got)
	assert.Equal(t, models.DefaultPromoBanner(), got)
}
