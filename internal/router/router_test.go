package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wholesale-portal/internal/authz"
	"github.com/wholesale-portal/internal/config"
	"github.com/wholesale-portal/internal/constants"
	"github.com/wholesale-portal/internal/models"
	"github.com/wholesale-portal/internal/provider"
	"github.com/wholesale-portal/internal/service"
	"github.com/wholesale-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type routerCatalog struct{}

func (routerCatalog) GetProduct(_ context.Context, productID uint) (*models.Product, error) {
	if productID != 10 {
		return nil, service.ErrProductNotFound
	}
	return &models.Product{
		ID:                10,
		Name:              "Canvas Tote",
		AllowedOrderTypes: []string{constants.OrderTypeAtOnce},
		IsActive:          true,
		Variants: []models.ProductVariant{
			{ID: 101, ProductID: 10, SKU: "TOTE-NAT", StockAvailable: 40, IsActive: true},
		},
		PricingTiers: []models.PricingTier{
			{ProductID: 10, MinQuantity: 1, PriceAmount: models.MustMoney("10.00")},
		},
	}, nil
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerFixture struct {
	engine   *gin.Engine
	sessions *service.SessionService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	authzService, err := authz.NewService(db)
	require.NoError(t, err)
	require.NoError(t, authzService.BootstrapBuiltinRoles())

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "debug"},
		Session: config.SessionConfig{Secret: "router-test-secret", ExpireHours: 1, Issuer: "wholesale-portal"},
	}
	sessions := service.NewSessionService(&cfg.Session)
	cartService := service.NewCartService(routerCatalog{}, store.NewMemoryStore(), nil, service.CartServiceOptions{})
	t.Cleanup(cartService.Close)

	container := &provider.Container{
		Config:         cfg,
		AuthzService:   authzService,
		SessionService: sessions,
		CartService:    cartService,
	}
	return &routerFixture{engine: SetupRouter(cfg, container), sessions: sessions}
}

func (f *routerFixture) token(t *testing.T, session service.Session) string {
	t.Helper()
	token, _, err := f.sessions.Issue(session)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var retailerSession = service.Session{Role: constants.RoleRetailer, CompanyID: 7, UserID: 70}

func TestCartsRequireSession(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, http.MethodGet, "/api/v1/carts", "", nil, nil)
	assert.Equal(t, 401, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/carts", "not-a-jwt", nil, nil)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRetailerAddAndReadAtOnceCart(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, retailerSession)

	resp := f.do(t, http.MethodPost, "/api/v1/carts/at-once/items", token,
		map[string]interface{}{"product_id": 10, "variant_id": 101, "quantity": 2}, nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	var result struct {
		Summary struct {
			Total     string `json:"total"`
			ItemCount int    `json:"item_count"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "20.00", result.Summary.Total)
	assert.Equal(t, 2, result.Summary.ItemCount)

	resp = f.do(t, http.MethodGet, "/api/v1/carts/at-once", token, nil, nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	assert.Contains(t, string(resp.Data), `"item_count":2`)

	resp = f.do(t, http.MethodDelete, "/api/v1/carts/at-once/items/10/101", token, nil, nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	assert.Contains(t, string(resp.Data), `"item_count":0`)
}

func TestRejectedMutationReturnsReason(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, retailerSession)

	resp := f.do(t, http.MethodPost, "/api/v1/carts/at-once/items", token,
		map[string]interface{}{"product_id": 10, "variant_id": 101, "quantity": 0}, nil)
	assert.Equal(t, 422, resp.StatusCode)
	assert.Contains(t, string(resp.Data), `"reason":"invalid_quantity"`)
}

func TestAdminIsReadOnly(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, service.Session{Role: constants.RoleAdmin, UserID: 1})
	headers := map[string]string{"X-Company-ID": "7"}

	resp := f.do(t, http.MethodGet, "/api/v1/carts", token, nil, headers)
	assert.Equal(t, 0, resp.StatusCode, resp.Msg)

	resp = f.do(t, http.MethodPost, "/api/v1/carts/at-once/items", token,
		map[string]interface{}{"product_id": 10, "variant_id": 101, "quantity": 1}, headers)
	assert.Equal(t, 403, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/carts", token, nil, nil)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCompanyScopeOverride(t *testing.T) {
	f := newRouterFixture(t)

	retailer := f.token(t, retailerSession)
	resp := f.do(t, http.MethodGet, "/api/v1/carts", retailer, nil, map[string]string{"X-Company-ID": "8"})
	assert.Equal(t, 403, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/carts", retailer, nil, map[string]string{"X-Company-ID": "abc"})
	assert.Equal(t, 400, resp.StatusCode)

	rep := f.token(t, service.Session{Role: constants.RoleSalesRep, UserID: 5})
	resp = f.do(t, http.MethodPost, "/api/v1/carts/at-once/items", rep,
		map[string]interface{}{"product_id": 10, "variant_id": 101, "quantity": 3}, map[string]string{"X-Company-ID": "8"})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	resp = f.do(t, http.MethodGet, "/api/v1/carts/at-once", retailer, nil, nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)
	assert.Contains(t, string(resp.Data), `"item_count":0`)
}

func TestUnknownChannelAndList(t *testing.T) {
	f := newRouterFixture(t)
	token := f.token(t, retailerSession)

	resp := f.do(t, http.MethodGet, "/api/v1/carts/backorder", token, nil, nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/carts/closeout/lists/CL-NONE", token, nil, nil)
	assert.Equal(t, 404, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/carts/at-once/lists/CL-NONE", token, nil, nil)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestPermissionCatalogCoveredByRetailer(t *testing.T) {
	f := newRouterFixture(t)
	items := buildPermissionCatalog(f.engine.Routes())
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Equal(t, "carts", item.Module)
		assert.True(t, strings.HasPrefix(item.Object, "/carts"), item.Object)
	}
}
