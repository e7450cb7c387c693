// Package mock provides a configurable fake commerce backend for tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/utafrali/StorefrontGo/internal/commerce"
	"github.com/utafrali/StorefrontGo/internal/domain"
)

// API implements commerce.API with per-method function hooks. A method whose
// hook is nil succeeds with a zero value. Every invocation is recorded in
// order, so tests can assert on the exact call sequence.
type API struct {
	mu    sync.Mutex
	calls []string

	ViewInitFunc           func(ctx context.Context) (*commerce.InitData, error)
	ListProductsFunc       func(ctx context.Context) ([]domain.Product, error)
	GetProductFunc         func(ctx context.Context, id string) (*domain.Product, error)
	GetCartFunc            func(ctx context.Context) (*domain.ServerCart, error)
	ClearCartFunc          func(ctx context.Context) error
	AddCartItemFunc        func(ctx context.Context, variantID string, quantity int) (*domain.ServerCart, error)
	ConvertCartFunc        func(ctx context.Context) (*domain.Order, error)
	SetCartAddressFunc     func(ctx context.Context, addressID string) error
	SetCartCardFunc        func(ctx context.Context, cardID string) error
	ListAddressesFunc      func(ctx context.Context) ([]domain.Address, error)
	CreateAddressFunc      func(ctx context.Context, input commerce.AddressInput) (*domain.Address, error)
	DeleteAddressFunc      func(ctx context.Context, id string) error
	ListCardsFunc          func(ctx context.Context) ([]domain.Card, error)
	CreateCardFunc         func(ctx context.Context, input commerce.CardInput) (*domain.Card, error)
	DeleteCardFunc         func(ctx context.Context, id string) error
	ListOrdersFunc         func(ctx context.Context) ([]domain.Order, error)
	GetOrderFunc           func(ctx context.Context, id string) (*domain.Order, error)
	ListSubscriptionsFunc  func(ctx context.Context) ([]domain.Subscription, error)
	CreateSubscriptionFunc func(ctx context.Context, variantID string, quantity int) (*domain.Subscription, error)
	CancelSubscriptionFunc func(ctx context.Context, id string) error
	ListTokensFunc         func(ctx context.Context) ([]domain.Token, error)
	CreateTokenFunc        func(ctx context.Context, name string) (*domain.Token, error)
	DeleteTokenFunc        func(ctx context.Context, id string) error
	GetProfileFunc         func(ctx context.Context) (*domain.Profile, error)
	UpdateProfileFunc      func(ctx context.Context, input commerce.ProfileInput) (*domain.Profile, error)
}

// New creates an API fake whose every call succeeds with zero values.
func New() *API {
	return &API{}
}

func (a *API) record(call string) {
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()
}

// Calls returns the invocations recorded so far, in order.
func (a *API) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Reset discards the recorded calls.
func (a *API) Reset() {
	a.mu.Lock()
	a.calls = nil
	a.mu.Unlock()
}

func (a *API) ViewInit(ctx context.Context) (*commerce.InitData, error) {
	a.record("ViewInit")
	if a.ViewInitFunc != nil {
		return a.ViewInitFunc(ctx)
	}
	return &commerce.InitData{}, nil
}

func (a *API) ListProducts(ctx context.Context) ([]domain.Product, error) {
	a.record("ListProducts")
	if a.ListProductsFunc != nil {
		return a.ListProductsFunc(ctx)
	}
	return nil, nil
}

func (a *API) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	a.record("GetProduct:" + id)
	if a.GetProductFunc != nil {
		return a.GetProductFunc(ctx, id)
	}
	return &domain.Product{ID: id}, nil
}

func (a *API) GetCart(ctx context.Context) (*domain.ServerCart, error) {
	a.record("GetCart")
	if a.GetCartFunc != nil {
		return a.GetCartFunc(ctx)
	}
	return &domain.ServerCart{}, nil
}

func (a *API) ClearCart(ctx context.Context) error {
	a.record("ClearCart")
	if a.ClearCartFunc != nil {
		return a.ClearCartFunc(ctx)
	}
	return nil
}

func (a *API) AddCartItem(ctx context.Context, variantID string, quantity int) (*domain.ServerCart, error) {
	a.record(fmt.Sprintf("AddCartItem:%s:%d", variantID, quantity))
	if a.AddCartItemFunc != nil {
		return a.AddCartItemFunc(ctx, variantID, quantity)
	}
	return &domain.ServerCart{}, nil
}

func (a *API) ConvertCart(ctx context.Context) (*domain.Order, error) {
	a.record("ConvertCart")
	if a.ConvertCartFunc != nil {
		return a.ConvertCartFunc(ctx)
	}
	return &domain.Order{ID: "ord_mock"}, nil
}

func (a *API) SetCartAddress(ctx context.Context, addressID string) error {
	a.record("SetCartAddress:" + addressID)
	if a.SetCartAddressFunc != nil {
		return a.SetCartAddressFunc(ctx, addressID)
	}
	return nil
}

func (a *API) SetCartCard(ctx context.Context, cardID string) error {
	a.record("SetCartCard:" + cardID)
	if a.SetCartCardFunc != nil {
		return a.SetCartCardFunc(ctx, cardID)
	}
	return nil
}

func (a *API) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	a.record("ListAddresses")
	if a.ListAddressesFunc != nil {
		return a.ListAddressesFunc(ctx)
	}
	return nil, nil
}

func (a *API) CreateAddress(ctx context.Context, input commerce.AddressInput) (*domain.Address, error) {
	a.record("CreateAddress")
	if a.CreateAddressFunc != nil {
		return a.CreateAddressFunc(ctx, input)
	}
	return &domain.Address{ID: "adr_mock", Name: input.Name}, nil
}

func (a *API) DeleteAddress(ctx context.Context, id string) error {
	a.record("DeleteAddress:" + id)
	if a.DeleteAddressFunc != nil {
		return a.DeleteAddressFunc(ctx, id)
	}
	return nil
}

func (a *API) ListCards(ctx context.Context) ([]domain.Card, error) {
	a.record("ListCards")
	if a.ListCardsFunc != nil {
		return a.ListCardsFunc(ctx)
	}
	return nil, nil
}

func (a *API) CreateCard(ctx context.Context, input commerce.CardInput) (*domain.Card, error) {
	a.record("CreateCard")
	if a.CreateCardFunc != nil {
		return a.CreateCardFunc(ctx, input)
	}
	return &domain.Card{ID: "crd_mock"}, nil
}

func (a *API) DeleteCard(ctx context.Context, id string) error {
	a.record("DeleteCard:" + id)
	if a.DeleteCardFunc != nil {
		return a.DeleteCardFunc(ctx, id)
	}
	return nil
}

func (a *API) ListOrders(ctx context.Context) ([]domain.Order, error) {
	a.record("ListOrders")
	if a.ListOrdersFunc != nil {
		return a.ListOrdersFunc(ctx)
	}
	return nil, nil
}

func (a *API) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	a.record("GetOrder:" + id)
	if a.GetOrderFunc != nil {
		return a.GetOrderFunc(ctx, id)
	}
	return &domain.Order{ID: id}, nil
}

func (a *API) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	a.record("ListSubscriptions")
	if a.ListSubscriptionsFunc != nil {
		return a.ListSubscriptionsFunc(ctx)
	}
	return nil, nil
}

func (a *API) CreateSubscription(ctx context.Context, variantID string, quantity int) (*domain.Subscription, error) {
	a.record(fmt.Sprintf("CreateSubscription:%s:%d", variantID, quantity))
	if a.CreateSubscriptionFunc != nil {
		return a.CreateSubscriptionFunc(ctx, variantID, quantity)
	}
	return &domain.Subscription{ID: "sub_mock", ProductVariantID: variantID, Quantity: quantity}, nil
}

func (a *API) CancelSubscription(ctx context.Context, id string) error {
	a.record("CancelSubscription:" + id)
	if a.CancelSubscriptionFunc != nil {
		return a.CancelSubscriptionFunc(ctx, id)
	}
	return nil
}

func (a *API) ListTokens(ctx context.Context) ([]domain.Token, error) {
	a.record("ListTokens")
	if a.ListTokensFunc != nil {
		return a.ListTokensFunc(ctx)
	}
	return nil, nil
}

func (a *API) CreateToken(ctx context.Context, name string) (*domain.Token, error) {
	a.record("CreateToken")
	if a.CreateTokenFunc != nil {
		return a.CreateTokenFunc(ctx, name)
	}
	return &domain.Token{ID: "tok_mock", Name: name, Token: "trm_secret"}, nil
}

func (a *API) DeleteToken(ctx context.Context, id string) error {
	a.record("DeleteToken:" + id)
	if a.DeleteTokenFunc != nil {
		return a.DeleteTokenFunc(ctx, id)
	}
	return nil
}

func (a *API) GetProfile(ctx context.Context) (*domain.Profile, error) {
	a.record("GetProfile")
	if a.GetProfileFunc != nil {
		return a.GetProfileFunc(ctx)
	}
	return &domain.Profile{}, nil
}

func (a *API) UpdateProfile(ctx context.Context, input commerce.ProfileInput) (*domain.Profile, error) {
	a.record("UpdateProfile")
	if a.UpdateProfileFunc != nil {
		return a.UpdateProfileFunc(ctx, input)
	}
	return &domain.Profile{Name: input.Name, Email: input.Email}, nil
}

var _ commerce.API = (*API)(nil)
