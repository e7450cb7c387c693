package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/commerce"
	commercemock "github.com/utafrali/StorefrontGo/internal/commerce/mock"
	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/shop"
	"github.com/utafrali/StorefrontGo/internal/snapshot"
	"github.com/utafrali/StorefrontGo/pkg/health"
)

type testServer struct {
	api     *commercemock.API
	state   *shop.State
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	api := commercemock.New()
	api.ViewInitFunc = func(context.Context) (*commerce.InitData, error) {
		return &commerce.InitData{
			Products: []domain.Product{
				{ID: "prd_1", Name: "Dark Roast", Variants: []domain.Variant{
					{ID: "v1", Name: "12oz", Price: 2200},
				}},
			},
			Addresses: []domain.Address{{ID: "a1", Name: "Home"}},
			Cards:     []domain.Card{{ID: "c1", Brand: "visa", Last4: "4242"}},
		}, nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "cart.json"))
	state := shop.NewState(api, store, logger)
	require.NoError(t, state.Initialize(context.Background()))

	return &testServer{
		api:     api,
		state:   state,
		handler: NewRouter(state, api, health.NewHandler(), logger),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func TestGetShop(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/shop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view ShopView
	decodeData(t, rec, &view)
	require.Len(t, view.Products, 1)
	assert.Equal(t, "Dark Roast", view.Products[0].Name)
	assert.Empty(t, view.Cart.Lines)
}

func TestSetQuantity_UpdatesCart(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/cart/items/v1", SetQuantityRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	var cart CartViewResponse
	decodeData(t, rec, &cart)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.Equal(t, int64(6600), cart.Total)
}

func TestSetQuantity_NegativeRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/cart/items/v1", SetQuantityRequest{Quantity: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearCart(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPut, "/api/v1/cart/items/v1", SetQuantityRequest{Quantity: 3})
	rec := s.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, s.state.Cart().IsEmpty())
}

func TestGetProduct_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/products/prd_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAddress_ValidationFailure(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/addresses", CreateAddressRequest{Name: "Home"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestCreateAddress_Success(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/addresses", CreateAddressRequest{
		Name:    "Home",
		Street1: "1 Main St",
		City:    "Springfield",
		Country: "US",
		Zip:     "12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var address domain.Address
	decodeData(t, rec, &address)
	assert.Equal(t, "adr_mock", address.ID)
}

func TestCreateCard_BadExpiryRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cards", CreateCardRequest{Token: "tok", Expiry: "13/99"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnsupportedMediaType(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tokens", bytes.NewBufferString("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCheckout_RequiresNonEmptyCart(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_GetWithoutSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_FullFlow(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK,
		s.do(t, http.MethodPut, "/api/v1/cart/items/v1", SetQuantityRequest{Quantity: 3}).Code)

	rec := s.do(t, http.MethodPost, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session SessionView
	decodeData(t, rec, &session)
	assert.Equal(t, domain.StepCart, session.Step)

	// cart -> address
	rec = s.do(t, http.MethodPost, "/api/v1/checkout/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// advancing without an address selection is blocked
	rec = s.do(t, http.MethodPost, "/api/v1/checkout/advance", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/checkout/address", SelectAddressRequest{AddressID: "a1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/checkout/card", SelectCardRequest{CardID: "c1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/checkout/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &session)
	require.Equal(t, domain.StepReview, session.Step)

	s.api.Reset()
	rec = s.do(t, http.MethodPost, "/api/v1/checkout/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"ClearCart", "AddCartItem:v1:3", "ConvertCart"}, s.api.Calls())
	assert.True(t, s.state.Cart().IsEmpty())
}

func TestCheckout_Abandon(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPut, "/api/v1/cart/items/v1", SetQuantityRequest{Quantity: 1})
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/checkout", nil).Code)

	rec := s.do(t, http.MethodDelete, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the cart survives an abandoned checkout
	assert.Equal(t, domain.LocalCart{"v1": 1}, s.state.Cart())
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil).Code)
}
