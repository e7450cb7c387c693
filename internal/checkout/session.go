// Package checkout drives the multi-step checkout sequence: a strictly
// linear, backward-navigable state machine that pushes the local cart to the
// commerce backend exactly once and converts it into an order.
package checkout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/utafrali/StorefrontGo/internal/commerce"
	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// ShopState is the slice of shop state a checkout session needs. *shop.State
// satisfies it.
type ShopState interface {
	Cart() domain.LocalCart
	Addresses() []domain.Address
	Cards() []domain.Card
	CreateAddress(ctx context.Context, input commerce.AddressInput) (*domain.Address, error)
	CreateCard(ctx context.Context, input commerce.CardInput) (*domain.Card, error)
	CompleteOrder(ctx context.Context, order *domain.Order)
}

// Session is one checkout attempt. It is created from a non-empty cart and
// destroyed on completion or abandonment. Address and card selections survive
// backward navigation; only a successful submit is terminal.
type Session struct {
	id     string
	state  ShopState
	api    commerce.API
	logger *slog.Logger

	mu                sync.Mutex
	step              string
	selectedAddressID string
	selectedCardID    string
	// submitting is flipped under mu before the first backend call of
	// Submit, so a second Submit can never interleave with one in flight.
	submitting     bool
	lastErr        error
	completedOrder *domain.Order
}

// NewSession starts a checkout session at the cart step. The cart must have
// at least one entry.
func NewSession(state ShopState, api commerce.API, logger *slog.Logger) (*Session, error) {
	if state.Cart().IsEmpty() {
		return nil, apperrors.InvalidInput("cannot start checkout with an empty cart")
	}

	s := &Session{
		id:     uuid.New().String(),
		state:  state,
		api:    api,
		logger: logger,
		step:   domain.StepCart,
	}

	logger.Info("checkout session started", slog.String("session_id", s.id))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Step returns the current step.
func (s *Session) Step() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// SelectedAddressID returns the confirmed shipping address selection.
func (s *Session) SelectedAddressID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedAddressID
}

// SelectedCardID returns the confirmed payment card selection.
func (s *Session) SelectedCardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedCardID
}

// Err returns the error from the last failed submit, if any. It is cleared by
// a successful submit.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Order returns the completed order once the session reaches the terminal
// step.
func (s *Session) Order() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedOrder
}

// Advance moves one step forward if the current step's guard is satisfied.
// The review step cannot be advanced past; Submit is the only way to
// complete.
func (s *Session) Advance() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case domain.StepCart:
		if s.state.Cart().IsEmpty() {
			return s.step, apperrors.InvalidInput("cart is empty")
		}
	case domain.StepAddress:
		if s.selectedAddressID == "" {
			return s.step, apperrors.InvalidInput("select a shipping address first")
		}
	case domain.StepPayment:
		if s.selectedCardID == "" {
			return s.step, apperrors.InvalidInput("select a payment card first")
		}
	case domain.StepReview:
		return s.step, apperrors.InvalidInput("submit the order to complete checkout")
	case domain.StepComplete:
		return s.step, apperrors.InvalidInput("checkout is already complete")
	}

	next := domain.NextStep(s.step)
	if next == "" {
		return s.step, apperrors.InvalidInput("no further step")
	}
	s.step = next
	return s.step, nil
}

// Back moves one step backward. Selections already made are kept. The
// terminal step cannot be left.
func (s *Session) Back() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step == domain.StepComplete {
		return s.step, apperrors.InvalidInput("checkout is already complete")
	}
	prev := domain.PrevStep(s.step)
	if prev == "" {
		return s.step, apperrors.InvalidInput("already at the first step")
	}
	s.step = prev
	return s.step, nil
}

// SelectAddress picks an existing stored address and attaches it to the
// server cart. The selection is only recorded once the backend accepts it.
func (s *Session) SelectAddress(ctx context.Context, addressID string) error {
	if addressID == "" {
		return apperrors.InvalidInput("address id is required")
	}
	if !containsID(s.state.Addresses(), addressID, func(a domain.Address) string { return a.ID }) {
		return apperrors.NotFound("address", addressID)
	}

	if err := s.api.SetCartAddress(ctx, addressID); err != nil {
		return err
	}

	s.mu.Lock()
	s.selectedAddressID = addressID
	s.mu.Unlock()
	return nil
}

// CreateAndSelectAddress creates a new address and, once the backend has
// confirmed it with an identifier, selects it.
func (s *Session) CreateAndSelectAddress(ctx context.Context, input commerce.AddressInput) (*domain.Address, error) {
	address, err := s.state.CreateAddress(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.api.SetCartAddress(ctx, address.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.selectedAddressID = address.ID
	s.mu.Unlock()
	return address, nil
}

// SelectCard picks an existing stored card and attaches it to the server
// cart.
func (s *Session) SelectCard(ctx context.Context, cardID string) error {
	if cardID == "" {
		return apperrors.InvalidInput("card id is required")
	}
	if !containsID(s.state.Cards(), cardID, func(c domain.Card) string { return c.ID }) {
		return apperrors.NotFound("card", cardID)
	}

	if err := s.api.SetCartCard(ctx, cardID); err != nil {
		return err
	}

	s.mu.Lock()
	s.selectedCardID = cardID
	s.mu.Unlock()
	return nil
}

// CreateAndSelectCard creates a new card and, once confirmed with an
// identifier, selects it.
func (s *Session) CreateAndSelectCard(ctx context.Context, input commerce.CardInput) (*domain.Card, error) {
	card, err := s.state.CreateCard(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.api.SetCartCard(ctx, card.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.selectedCardID = card.ID
	s.mu.Unlock()
	return card, nil
}

// Submit synchronizes the local cart to the backend and converts it into an
// order. It runs at most once per session: a second call while one is in
// flight is rejected before any backend traffic.
//
// The sequence is clear cart, add each entry, convert, each step awaiting the
// previous one. Clearing first makes the whole sequence safe to retry after a
// partial failure: a rerun converges to the same server cart. On any failure
// the local cart and its snapshot are untouched, the session stays at review
// with the error attached, and submitting resets so the user can retry.
func (s *Session) Submit(ctx context.Context) (*domain.Order, error) {
	s.mu.Lock()
	if s.step != domain.StepReview {
		s.mu.Unlock()
		return nil, apperrors.InvalidInput("submit is only valid at the review step")
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, apperrors.Conflict("an order submission is already in progress")
	}
	s.submitting = true
	entries := s.state.Cart().Entries()
	s.mu.Unlock()

	order, err := s.syncAndConvert(ctx, entries)
	if err != nil {
		s.mu.Lock()
		s.submitting = false
		s.lastErr = err
		s.mu.Unlock()

		s.logger.Error("order submission failed",
			slog.String("session_id", s.id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.state.CompleteOrder(ctx, order)

	s.mu.Lock()
	s.step = domain.StepComplete
	s.submitting = false
	s.lastErr = nil
	s.completedOrder = order
	s.mu.Unlock()

	s.logger.Info("order submitted",
		slog.String("session_id", s.id),
		slog.String("order_id", order.ID),
	)
	return order, nil
}

func (s *Session) syncAndConvert(ctx context.Context, entries []domain.Entry) (*domain.Order, error) {
	if err := s.api.ClearCart(ctx); err != nil {
		return nil, apperrors.Wrap(err, "clear server cart")
	}

	for _, e := range entries {
		if e.Quantity <= 0 {
			continue
		}
		if _, err := s.api.AddCartItem(ctx, e.VariantID, e.Quantity); err != nil {
			return nil, apperrors.Wrap(err, "sync cart item "+e.VariantID)
		}
	}

	order, err := s.api.ConvertCart(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "convert cart")
	}
	return order, nil
}

func containsID[T any](items []T, id string, idOf func(T) string) bool {
	for _, item := range items {
		if idOf(item) == id {
			return true
		}
	}
	return false
}
