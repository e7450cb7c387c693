// Package shop holds the process-wide storefront state: the reconciled local
// cart, the catalog, and the account resources fetched from the commerce
// backend. All mutations go through State; consumers read published copies.
package shop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/utafrali/StorefrontGo/internal/commerce"
	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// State owns the local cart and its persisted snapshot. The local cart is
// authoritative for pending edits; the server cart only reflects what has been
// committed remotely.
type State struct {
	api    commerce.API
	store  snapshotStore
	logger *slog.Logger

	mu sync.Mutex
	// generation stamps each cart-affecting operation so a slow Initialize
	// cannot apply a stale result over edits made while it was in flight.
	generation  uint64
	initialized bool

	cart          domain.LocalCart
	serverCart    domain.ServerCart
	products      []domain.Product
	addresses     []domain.Address
	cards         []domain.Card
	orders        []domain.Order
	subscriptions []domain.Subscription
	tokens        []domain.Token
	profile       *domain.Profile
}

// snapshotStore is the durable cart record. Matches snapshot.Store.
type snapshotStore interface {
	Load(ctx context.Context) (domain.LocalCart, error)
	Save(ctx context.Context, cart domain.LocalCart) error
	Clear(ctx context.Context) error
}

// NewState creates an uninitialized shop state.
func NewState(api commerce.API, store snapshotStore, logger *slog.Logger) *State {
	return &State{
		api:    api,
		store:  store,
		logger: logger,
		cart:   domain.LocalCart{},
	}
}

// Initialize loads the persisted cart snapshot, fetches the bootstrap payload
// from the commerce backend, and reconciles the two into the authoritative
// local cart.
//
// Reconciliation rules: a well-formed snapshot wins over the server cart
// unconditionally, so edits made before a restart survive. Only when no
// snapshot exists at all is the local cart seeded from the server cart's line
// items. A corrupt snapshot is discarded and deleted without failing
// initialization.
//
// Backend errors are returned to the caller; the consumer shows a blocking
// load error rather than a partial view.
func (s *State) Initialize(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	local, haveLocal := s.loadSnapshot(ctx)

	data, err := s.api.ViewInit(ctx)
	if err != nil {
		return apperrors.Wrap(err, "fetch bootstrap data")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = data.Products
	s.addresses = data.Addresses
	s.cards = data.Cards
	s.orders = data.Orders
	s.subscriptions = data.Subscriptions
	s.tokens = data.Tokens
	s.profile = data.User
	s.serverCart = data.Cart

	if gen != s.generation {
		// The cart was edited, cleared, or re-initialized while this load was
		// in flight. The fetched catalog and resources are still current, but
		// the cart reconciliation below would clobber newer local state.
		s.logger.WarnContext(ctx, "discarding stale initialization result",
			slog.Uint64("generation", gen),
			slog.Uint64("current", s.generation),
		)
		return nil
	}

	switch {
	case haveLocal:
		s.cart = local
	case len(data.Cart.Items) > 0:
		s.cart = domain.LocalCart{}
		for _, item := range data.Cart.Items {
			s.cart.SetQuantity(item.ProductVariantID, item.Quantity)
		}
		s.persistLocked(ctx)
	default:
		s.cart = domain.LocalCart{}
	}

	s.initialized = true
	s.logger.InfoContext(ctx, "shop state initialized",
		slog.Int("products", len(s.products)),
		slog.Int("cart_items", s.cart.ItemCount()),
		slog.Bool("restored_from_snapshot", haveLocal),
	)
	return nil
}

// loadSnapshot reads the persisted cart. Absence and corruption both resolve
// to an empty cart; corruption additionally deletes the bad record so the next
// start is clean. Neither blocks initialization.
func (s *State) loadSnapshot(ctx context.Context) (domain.LocalCart, bool) {
	local, err := s.store.Load(ctx)
	switch {
	case err == nil:
		return local, true
	case errors.Is(err, apperrors.ErrNotFound):
		return domain.LocalCart{}, false
	case errors.Is(err, apperrors.ErrStorageCorrupt):
		s.logger.WarnContext(ctx, "discarding corrupt cart snapshot", slog.String("error", err.Error()))
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to delete corrupt cart snapshot", slog.String("error", clearErr.Error()))
		}
		return domain.LocalCart{}, false
	default:
		s.logger.ErrorContext(ctx, "failed to read cart snapshot", slog.String("error", err.Error()))
		return domain.LocalCart{}, false
	}
}

// persistLocked rewrites the snapshot from the current cart. Durability is
// best-effort: failures are logged and the in-memory cart stays authoritative.
// Callers must hold s.mu, which also serializes writes so a later cart state
// can never be overwritten by an earlier write.
func (s *State) persistLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.cart.Clone()); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist cart snapshot", slog.String("error", err.Error()))
	}
}

// SetQuantity sets the quantity for a variant in the local cart. A quantity
// of zero or less removes the entry. The change is purely local; the snapshot
// is rewritten before the call returns.
func (s *State) SetQuantity(ctx context.Context, variantID string, quantity int) error {
	if variantID == "" {
		return apperrors.InvalidInput("variant id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.cart.SetQuantity(variantID, quantity)
	s.persistLocked(ctx)
	return nil
}

// Clear empties the local cart and erases the persisted snapshot. Idempotent.
func (s *State) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.cart = domain.LocalCart{}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to erase cart snapshot", slog.String("error", err.Error()))
	}
	return nil
}

// CompleteOrder records a successful cart conversion: the local cart and its
// snapshot are destroyed, the cached server cart is reset, and the order is
// prepended to the history.
func (s *State) CompleteOrder(ctx context.Context, order *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.cart = domain.LocalCart{}
	s.serverCart = domain.ServerCart{}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to erase cart snapshot after order", slog.String("error", err.Error()))
	}
	if order != nil {
		s.orders = append([]domain.Order{*order}, s.orders...)
	}

	s.logger.InfoContext(ctx, "order completed", slog.String("order_id", orderID(order)))
}

func orderID(order *domain.Order) string {
	if order == nil {
		return ""
	}
	return order.ID
}

// Cart returns a copy of the local cart.
func (s *State) Cart() domain.LocalCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// ServerCart returns the cached copy of the remote cart.
func (s *State) ServerCart() domain.ServerCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.serverCart
	cart.Items = append([]domain.CartLine(nil), s.serverCart.Items...)
	return cart
}

// Initialized reports whether Initialize has completed successfully.
func (s *State) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Products returns the catalog.
func (s *State) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Product(nil), s.products...)
}

// Addresses returns the stored shipping addresses.
func (s *State) Addresses() []domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Address(nil), s.addresses...)
}

// Cards returns the stored payment cards.
func (s *State) Cards() []domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Card(nil), s.cards...)
}

// Orders returns the order history, most recent first.
func (s *State) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order(nil), s.orders...)
}

// Subscriptions returns the active subscriptions.
func (s *State) Subscriptions() []domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Subscription(nil), s.subscriptions...)
}

// Tokens returns the personal access tokens.
func (s *State) Tokens() []domain.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Token(nil), s.tokens...)
}

// Profile returns the authenticated user's profile, or nil before
// initialization.
func (s *State) Profile() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// VariantByID resolves a variant against the catalog.
func (s *State) VariantByID(variantID string) (domain.Variant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variantByIDLocked(variantID)
}

func (s *State) variantByIDLocked(variantID string) (domain.Variant, bool) {
	for _, p := range s.products {
		for _, v := range p.Variants {
			if v.ID == variantID {
				return v, true
			}
		}
	}
	return domain.Variant{}, false
}

// CartLine is one display row of the local cart, resolved against the
// catalog.
type CartLine struct {
	VariantID   string `json:"variantID"`
	VariantName string `json:"variantName"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

// CartView resolves the local cart against the catalog, ordered by variant
// ID. An entry whose variant is no longer in the catalog is kept and rendered
// as unknown with price zero rather than dropped.
func (s *State) CartView() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cart.Entries()
	lines := make([]CartLine, 0, len(entries))
	for _, e := range entries {
		line := CartLine{
			VariantID:   e.VariantID,
			VariantName: "Unknown",
			Quantity:    e.Quantity,
		}
		if v, ok := s.variantByIDLocked(e.VariantID); ok {
			line.VariantName = v.Name
			line.UnitPrice = v.Price
			line.Subtotal = v.Price * int64(e.Quantity)
		}
		lines = append(lines, line)
	}
	return lines
}

// CartTotal returns the local cart total in minor currency units. Unknown
// variants contribute zero.
func (s *State) CartTotal() int64 {
	var total int64
	for _, line := range s.CartView() {
		total += line.Subtotal
	}
	return total
}

// CreateAddress stores a new shipping address on the backend and caches it. A
// response without a server-assigned identifier is a creation failure; the
// address is not cached and cannot be selected.
func (s *State) CreateAddress(ctx context.Context, input commerce.AddressInput) (*domain.Address, error) {
	address, err := s.api.CreateAddress(ctx, input)
	if err != nil {
		return nil, err
	}
	if address == nil || address.ID == "" {
		return nil, apperrors.API(0, "address created without an identifier")
	}

	s.mu.Lock()
	s.addresses = append(s.addresses, *address)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "address created", slog.String("address_id", address.ID))
	return address, nil
}

// RemoveAddress deletes a stored address on the backend and drops it from the
// cache.
func (s *State) RemoveAddress(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("address id is required")
	}
	if err := s.api.DeleteAddress(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.addresses = removeByID(s.addresses, id, func(a domain.Address) string { return a.ID })
	s.mu.Unlock()
	return nil
}

// CreateCard stores a new payment card on the backend and caches it. The same
// identifier rule as CreateAddress applies.
func (s *State) CreateCard(ctx context.Context, input commerce.CardInput) (*domain.Card, error) {
	card, err := s.api.CreateCard(ctx, input)
	if err != nil {
		return nil, err
	}
	if card == nil || card.ID == "" {
		return nil, apperrors.API(0, "card created without an identifier")
	}

	s.mu.Lock()
	s.cards = append(s.cards, *card)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "card created", slog.String("card_id", card.ID))
	return card, nil
}

// RemoveCard deletes a stored card on the backend and drops it from the cache.
func (s *State) RemoveCard(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("card id is required")
	}
	if err := s.api.DeleteCard(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.cards = removeByID(s.cards, id, func(c domain.Card) string { return c.ID })
	s.mu.Unlock()
	return nil
}

// RefreshOrders refetches the order history.
func (s *State) RefreshOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return append([]domain.Order(nil), orders...), nil
}

// Subscribe starts a recurring purchase for a variant.
func (s *State) Subscribe(ctx context.Context, variantID string, quantity int) (*domain.Subscription, error) {
	if variantID == "" {
		return nil, apperrors.InvalidInput("variant id is required")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}

	sub, err := s.api.CreateSubscription(ctx, variantID, quantity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.subscriptions = append(s.subscriptions, *sub)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "subscription created",
		slog.String("subscription_id", sub.ID),
		slog.String("variant_id", variantID),
	)
	return sub, nil
}

// CancelSubscription cancels a subscription and drops it from the cache.
func (s *State) CancelSubscription(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("subscription id is required")
	}
	if err := s.api.CancelSubscription(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.subscriptions = removeByID(s.subscriptions, id, func(sub domain.Subscription) string { return sub.ID })
	s.mu.Unlock()
	return nil
}

// SubscriptionForVariant returns the subscription covering a variant, if any.
// A subscription relates to a variant by ProductVariantID equality.
func (s *State) SubscriptionForVariant(variantID string) (domain.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		if sub.ProductVariantID == variantID {
			return sub, true
		}
	}
	return domain.Subscription{}, false
}

// CreateToken creates a personal access token. The returned value is the only
// copy of the secret; the cached list retains it as delivered by the backend.
func (s *State) CreateToken(ctx context.Context, name string) (*domain.Token, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("token name is required")
	}

	token, err := s.api.CreateToken(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tokens = append(s.tokens, *token)
	s.mu.Unlock()
	return token, nil
}

// RemoveToken revokes a personal access token.
func (s *State) RemoveToken(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("token id is required")
	}
	if err := s.api.DeleteToken(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.tokens = removeByID(s.tokens, id, func(tok domain.Token) string { return tok.ID })
	s.mu.Unlock()
	return nil
}

// UpdateProfile updates the user profile on the backend and caches the
// result.
func (s *State) UpdateProfile(ctx context.Context, input commerce.ProfileInput) (*domain.Profile, error) {
	profile, err := s.api.UpdateProfile(ctx, input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	return profile, nil
}

func removeByID[T any](items []T, id string, idOf func(T) string) []T {
	out := items[:0]
	for _, item := range items {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}
