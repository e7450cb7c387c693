// Package http exposes the storefront state and its operations to the
// rendering layer over a JSON API.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/StorefrontGo/internal/commerce"
	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/shop"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httputil"
	"github.com/utafrali/StorefrontGo/pkg/validator"
)

// ShopHandler handles catalog, cart, and account resource endpoints.
type ShopHandler struct {
	state  *shop.State
	logger *slog.Logger
}

// NewShopHandler creates a shop HTTP handler.
func NewShopHandler(state *shop.State, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{
		state:  state,
		logger: logger,
	}
}

// --- Request DTOs ---

// SetQuantityRequest is the JSON body for setting a cart line quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CreateAddressRequest is the JSON body for creating a shipping address.
type CreateAddressRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Street1  string `json:"street1" validate:"required,min=1,max=200"`
	Street2  string `json:"street2" validate:"max=200"`
	City     string `json:"city" validate:"required,min=1,max=100"`
	Province string `json:"province" validate:"max=100"`
	Country  string `json:"country" validate:"required,len=2"`
	Zip      string `json:"zip" validate:"required,min=1,max=20"`
	Phone    string `json:"phone" validate:"max=30"`
}

func (r CreateAddressRequest) input() commerce.AddressInput {
	return commerce.AddressInput{
		Name:     r.Name,
		Street1:  r.Street1,
		Street2:  r.Street2,
		City:     r.City,
		Province: r.Province,
		Country:  r.Country,
		Zip:      r.Zip,
		Phone:    r.Phone,
	}
}

// CreateCardRequest is the JSON body for storing a payment card. Only a
// tokenized reference crosses this API; expiry is validated locally before
// any network call.
type CreateCardRequest struct {
	Token  string `json:"token" validate:"required"`
	Expiry string `json:"expiry" validate:"omitempty,cardexpiry"`
}

func (r CreateCardRequest) input() commerce.CardInput {
	return commerce.CardInput{Token: r.Token, Expiry: r.Expiry}
}

// SubscribeRequest is the JSON body for creating a subscription.
type SubscribeRequest struct {
	ProductVariantID string `json:"productVariantID" validate:"required"`
	Quantity         int    `json:"quantity" validate:"required,gte=1"`
}

// CreateTokenRequest is the JSON body for creating a personal access token.
type CreateTokenRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// UpdateProfileRequest is the JSON body for updating the profile.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}

// --- View DTOs ---

// ShopView is the full storefront state published to the rendering layer.
type ShopView struct {
	Cart          CartViewResponse      `json:"cart"`
	Products      []domain.Product      `json:"products"`
	Addresses     []domain.Address      `json:"addresses"`
	Cards         []domain.Card         `json:"cards"`
	Orders        []domain.Order        `json:"orders"`
	Subscriptions []domain.Subscription `json:"subscriptions"`
	Profile       *domain.Profile       `json:"profile,omitempty"`
}

// CartViewResponse is the resolved local cart.
type CartViewResponse struct {
	Lines []shop.CartLine `json:"lines"`
	Total int64           `json:"total"`
}

func (h *ShopHandler) cartView() CartViewResponse {
	lines := h.state.CartView()
	var total int64
	for _, l := range lines {
		total += l.Subtotal
	}
	return CartViewResponse{Lines: lines, Total: total}
}

// --- Handlers ---

// GetShop handles GET /api/v1/shop
func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	if !h.state.Initialized() {
		httputil.WriteError(w, r, apperrors.Internal(errors.New("shop state is not initialized")), h.logger)
		return
	}

	view := ShopView{
		Cart:          h.cartView(),
		Products:      h.state.Products(),
		Addresses:     h.state.Addresses(),
		Cards:         h.state.Cards(),
		Orders:        h.state.Orders(),
		Subscriptions: h.state.Subscriptions(),
		Profile:       h.state.Profile(),
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// GetCart handles GET /api/v1/cart
func (h *ShopHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.cartView()})
}

// SetQuantity handles PUT /api/v1/cart/items/{variantId}
func (h *ShopHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "variantId")

	var req SetQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.state.SetQuantity(r.Context(), variantID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.cartView()})
}

// ClearCart handles DELETE /api/v1/cart
func (h *ShopHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.state.Clear(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cleared"}})
}

// ListProducts handles GET /api/v1/products
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.state.Products()})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, p := range h.state.Products() {
		if p.ID == id {
			httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
			return
		}
	}
	httputil.WriteError(w, r, apperrors.NotFound("product", id), h.logger)
}

// ListAddresses handles GET /api/v1/addresses
func (h *ShopHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.state.Addresses()})
}

// CreateAddress handles POST /api/v1/addresses
func (h *ShopHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req CreateAddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	address, err := h.state.CreateAddress(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: address})
}

// DeleteAddress handles DELETE /api/v1/addresses/{id}
func (h *ShopHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.state.RemoveAddress(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "deleted"}})
}

// ListCards handles GET /api/v1/cards
func (h *ShopHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.state.Cards()})
}

// CreateCard handles POST /api/v1/cards
func (h *ShopHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	card, err := h.state.CreateCard(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: card})
}

// DeleteCard handles DELETE /api/v1/cards/{id}
func (h *ShopHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.state.RemoveCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "deleted"}})
}

// ListOrders handles GET /api/v1/orders
func (h *ShopHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.state.Orders()})
}

// RefreshOrders handles POST /api/v1/orders/refresh
func (h *ShopHandler) RefreshOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.state.RefreshOrders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: orders})
}

// ListSubscriptions handles GET /api/v1/subscriptions
func (h *ShopHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.state.Subscriptions()})
}

// Subscribe handles POST /api/v1/subscriptions
func (h *ShopHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sub, err := h.state.Subscribe(r.Context(), req.ProductVariantID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: sub})
}

// CancelSubscription handles DELETE /api/v1/subscriptions/{id}
func (h *ShopHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.state.CancelSubscription(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cancelled"}})
}

// ListTokens handles GET /api/v1/tokens
func (h *ShopHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.state.Tokens()})
}

// CreateToken handles POST /api/v1/tokens
func (h *ShopHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req CreateTokenRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	token, err := h.state.CreateToken(r.Context(), req.Name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: token})
}

// DeleteToken handles DELETE /api/v1/tokens/{id}
func (h *ShopHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	if err := h.state.RemoveToken(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "deleted"}})
}

// GetProfile handles GET /api/v1/profile
func (h *ShopHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile := h.state.Profile()
	if profile == nil {
		httputil.WriteError(w, r, apperrors.NotFound("profile", "current"), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ShopHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	profile, err := h.state.UpdateProfile(r.Context(), commerce.ProfileInput{Name: req.Name, Email: req.Email})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: profile})
}
