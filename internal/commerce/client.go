package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httpclient"
	"github.com/utafrali/StorefrontGo/pkg/tracing"
)

// InitData is the composite bootstrap payload returned by the view/init
// endpoint.
type InitData struct {
	User          *domain.Profile       `json:"user,omitempty"`
	Products      []domain.Product      `json:"products"`
	Cart          domain.ServerCart     `json:"cart"`
	Addresses     []domain.Address      `json:"addresses"`
	Cards         []domain.Card         `json:"cards"`
	Orders        []domain.Order        `json:"orders"`
	Subscriptions []domain.Subscription `json:"subscriptions"`
	Tokens        []domain.Token        `json:"tokens"`
}

// AddressInput holds the parameters for creating an address.
type AddressInput struct {
	Name     string `json:"name" validate:"required"`
	Street1  string `json:"street1" validate:"required"`
	Street2  string `json:"street2,omitempty"`
	City     string `json:"city" validate:"required"`
	Province string `json:"province,omitempty"`
	Country  string `json:"country" validate:"required,len=2"`
	Zip      string `json:"zip" validate:"required"`
	Phone    string `json:"phone,omitempty"`
}

// CardInput holds the parameters for creating a payment card. The backend
// expects a tokenized card reference, never raw PAN data.
type CardInput struct {
	Token  string `json:"token" validate:"required"`
	Expiry string `json:"-" validate:"omitempty,cardexpiry"`
}

// ProfileInput holds the parameters for updating the user profile.
type ProfileInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// API is the surface of the remote commerce backend the storefront consumes.
// *Client satisfies it; tests substitute fakes.
type API interface {
	ViewInit(ctx context.Context) (*InitData, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	GetCart(ctx context.Context) (*domain.ServerCart, error)
	ClearCart(ctx context.Context) error
	AddCartItem(ctx context.Context, variantID string, quantity int) (*domain.ServerCart, error)
	ConvertCart(ctx context.Context) (*domain.Order, error)
	SetCartAddress(ctx context.Context, addressID string) error
	SetCartCard(ctx context.Context, cardID string) error

	ListAddresses(ctx context.Context) ([]domain.Address, error)
	CreateAddress(ctx context.Context, input AddressInput) (*domain.Address, error)
	DeleteAddress(ctx context.Context, id string) error

	ListCards(ctx context.Context) ([]domain.Card, error)
	CreateCard(ctx context.Context, input CardInput) (*domain.Card, error)
	DeleteCard(ctx context.Context, id string) error

	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	CreateSubscription(ctx context.Context, variantID string, quantity int) (*domain.Subscription, error)
	CancelSubscription(ctx context.Context, id string) error

	ListTokens(ctx context.Context) ([]domain.Token, error)
	CreateToken(ctx context.Context, name string) (*domain.Token, error)
	DeleteToken(ctx context.Context, id string) error

	GetProfile(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, input ProfileInput) (*domain.Profile, error)
}

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

var apiRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "commerce_api_requests_total",
		Help: "Total number of commerce backend API requests",
	},
	[]string{"method", "path", "status"},
)

// Client is the HTTP client for the commerce backend. Every call carries the
// bearer credential; responses are normalized through a single envelope
// decoder at this boundary.
type Client struct {
	baseURL string
	token   string
	doer    HTTPDoer
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewClient creates a commerce API client.
func NewClient(baseURL, token string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		doer:    doer,
		logger:  logger,
		tracer:  tracing.Tracer("github.com/utafrali/StorefrontGo/internal/commerce"),
	}
}

// envelope matches the backend's optional {"data": ...} wrapper. Some
// endpoints wrap the payload, some return it bare; normalization happens here
// once instead of at every call site.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func unwrap(body []byte) []byte {
	var env envelope
	if json.Unmarshal(body, &env) == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data
	}
	return body
}

func decodeInto(body []byte, dst any) error {
	if err := json.Unmarshal(unwrap(body), dst); err != nil {
		return fmt.Errorf("decode commerce response: %w", err)
	}
	return nil
}

// call performs one backend request and returns the raw response body for
// 2xx responses. Transport failures map to NetworkFailure, 401 to
// Unauthorized, and other non-2xx statuses to ApiError.
func (c *Client) call(ctx context.Context, method, path string, payload any) ([]byte, error) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	req, err := httpclient.NewJSONRequest(ctx, method, c.baseURL+path, payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		apiRequestsTotal.WithLabelValues(method, path, "error").Inc()
		span.SetStatus(codes.Error, err.Error())
		c.logger.ErrorContext(ctx, "commerce api call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Network(err)
	}
	defer func() { _ = resp.Body.Close() }()

	apiRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := httpclient.ParseResponseError(resp)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.Network(fmt.Errorf("read response body: %w", err))
	}

	c.logger.DebugContext(ctx, "commerce api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return body, nil
}

// ViewInit fetches the composite bootstrap payload.
func (c *Client) ViewInit(ctx context.Context) (*InitData, error) {
	body, err := c.call(ctx, http.MethodGet, "/view/init", nil)
	if err != nil {
		return nil, err
	}
	var data InitData
	if err := decodeInto(body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListProducts fetches the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	body, err := c.call(ctx, http.MethodGet, "/product", nil)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := decodeInto(body, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	body, err := c.call(ctx, http.MethodGet, "/product/"+id, nil)
	if err != nil {
		return nil, err
	}
	var product domain.Product
	if err := decodeInto(body, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetCart fetches the server-side cart.
func (c *Client) GetCart(ctx context.Context) (*domain.ServerCart, error) {
	body, err := c.call(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, err
	}
	var cart domain.ServerCart
	if err := decodeInto(body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart removes all items from the server-side cart.
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodDelete, "/cart", nil)
	return err
}

// AddCartItem puts a line item on the server cart. The PUT is keyed by
// variant ID, so replaying it converges to the same final state.
func (c *Client) AddCartItem(ctx context.Context, variantID string, quantity int) (*domain.ServerCart, error) {
	body, err := c.call(ctx, http.MethodPut, "/cart/item", map[string]any{
		"productVariantID": variantID,
		"quantity":         quantity,
	})
	if err != nil {
		return nil, err
	}
	var cart domain.ServerCart
	if err := decodeInto(body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ConvertCart converts the server cart into an order.
func (c *Client) ConvertCart(ctx context.Context) (*domain.Order, error) {
	body, err := c.call(ctx, http.MethodPost, "/cart/convert", nil)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	if err := decodeInto(body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SetCartAddress attaches a shipping address to the server cart.
func (c *Client) SetCartAddress(ctx context.Context, addressID string) error {
	_, err := c.call(ctx, http.MethodPut, "/cart/address", map[string]string{
		"addressID": addressID,
	})
	return err
}

// SetCartCard attaches a payment card to the server cart.
func (c *Client) SetCartCard(ctx context.Context, cardID string) error {
	_, err := c.call(ctx, http.MethodPut, "/cart/card", map[string]string{
		"cardID": cardID,
	})
	return err
}

// ListAddresses fetches the stored shipping addresses.
func (c *Client) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	body, err := c.call(ctx, http.MethodGet, "/address", nil)
	if err != nil {
		return nil, err
	}
	var addresses []domain.Address
	if err := decodeInto(body, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress stores a new shipping address.
func (c *Client) CreateAddress(ctx context.Context, input AddressInput) (*domain.Address, error) {
	body, err := c.call(ctx, http.MethodPost, "/address", input)
	if err != nil {
		return nil, err
	}
	var address domain.Address
	if err := decodeInto(body, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// DeleteAddress removes a stored shipping address.
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/address/"+id, nil)
	return err
}

// ListCards fetches the stored payment cards.
func (c *Client) ListCards(ctx context.Context) ([]domain.Card, error) {
	body, err := c.call(ctx, http.MethodGet, "/card", nil)
	if err != nil {
		return nil, err
	}
	var cards []domain.Card
	if err := decodeInto(body, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateCard stores a new payment card from a tokenized reference.
func (c *Client) CreateCard(ctx context.Context, input CardInput) (*domain.Card, error) {
	body, err := c.call(ctx, http.MethodPost, "/card", input)
	if err != nil {
		return nil, err
	}
	var card domain.Card
	if err := decodeInto(body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes a stored payment card.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/card/"+id, nil)
	return err
}

// ListOrders fetches the order history.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	body, err := c.call(ctx, http.MethodGet, "/order", nil)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := decodeInto(body, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches a single order by ID.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	body, err := c.call(ctx, http.MethodGet, "/order/"+id, nil)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	if err := decodeInto(body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListSubscriptions fetches the active subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	body, err := c.call(ctx, http.MethodGet, "/subscription", nil)
	if err != nil {
		return nil, err
	}
	var subs []domain.Subscription
	if err := decodeInto(body, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// CreateSubscription starts a recurring purchase for a variant.
func (c *Client) CreateSubscription(ctx context.Context, variantID string, quantity int) (*domain.Subscription, error) {
	body, err := c.call(ctx, http.MethodPost, "/subscription", map[string]any{
		"productVariantID": variantID,
		"quantity":         quantity,
	})
	if err != nil {
		return nil, err
	}
	var sub domain.Subscription
	if err := decodeInto(body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription cancels a subscription by ID.
func (c *Client) CancelSubscription(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/subscription/"+id, nil)
	return err
}

// ListTokens fetches the personal access tokens.
func (c *Client) ListTokens(ctx context.Context) ([]domain.Token, error) {
	body, err := c.call(ctx, http.MethodGet, "/token", nil)
	if err != nil {
		return nil, err
	}
	var tokens []domain.Token
	if err := decodeInto(body, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// CreateToken creates a personal access token. The response is the only place
// the secret is ever returned.
func (c *Client) CreateToken(ctx context.Context, name string) (*domain.Token, error) {
	body, err := c.call(ctx, http.MethodPost, "/token", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var token domain.Token
	if err := decodeInto(body, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteToken revokes a personal access token.
func (c *Client) DeleteToken(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/token/"+id, nil)
	return err
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (*domain.Profile, error) {
	body, err := c.call(ctx, http.MethodGet, "/profile", nil)
	if err != nil {
		return nil, err
	}
	var profile domain.Profile
	if err := decodeInto(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile updates the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, input ProfileInput) (*domain.Profile, error) {
	body, err := c.call(ctx, http.MethodPut, "/profile", input)
	if err != nil {
		return nil, err
	}
	var profile domain.Profile
	if err := decodeInto(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

var _ API = (*Client)(nil)
