package http

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/utafrali/StorefrontGo/internal/checkout"
	"github.com/utafrali/StorefrontGo/internal/commerce"
	"github.com/utafrali/StorefrontGo/internal/shop"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httputil"
	"github.com/utafrali/StorefrontGo/pkg/validator"
)

// CheckoutHandler manages the checkout session lifecycle. The storefront
// serves one user, so at most one session exists at a time; beginning a new
// checkout abandons the previous session.
type CheckoutHandler struct {
	state  *shop.State
	api    commerce.API
	logger *slog.Logger

	mu      sync.Mutex
	session *checkout.Session
}

// NewCheckoutHandler creates a checkout HTTP handler.
func NewCheckoutHandler(state *shop.State, api commerce.API, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		state:  state,
		api:    api,
		logger: logger,
	}
}

// --- Request DTOs ---

// SelectAddressRequest picks an existing address by ID; if AddressID is empty
// a new address is created from the embedded fields and selected.
type SelectAddressRequest struct {
	AddressID string                `json:"addressID"`
	New       *CreateAddressRequest `json:"new,omitempty"`
}

// SelectCardRequest picks an existing card by ID or creates a new one.
type SelectCardRequest struct {
	CardID string             `json:"cardID"`
	New    *CreateCardRequest `json:"new,omitempty"`
}

// SessionView is the checkout session state published to the rendering
// layer.
type SessionView struct {
	ID                string `json:"id"`
	Step              string `json:"step"`
	SelectedAddressID string `json:"selectedAddressID,omitempty"`
	SelectedCardID    string `json:"selectedCardID,omitempty"`
	Error             string `json:"error,omitempty"`
}

func sessionView(s *checkout.Session) SessionView {
	view := SessionView{
		ID:                s.ID(),
		Step:              s.Step(),
		SelectedAddressID: s.SelectedAddressID(),
		SelectedCardID:    s.SelectedCardID(),
	}
	if err := s.Err(); err != nil {
		view.Error = err.Error()
	}
	return view
}

func (h *CheckoutHandler) current() (*checkout.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil, apperrors.NotFound("checkout session", "current")
	}
	return h.session, nil
}

// Begin handles POST /api/v1/checkout
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	session, err := checkout.NewSession(h.state, h.api, h.logger)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.mu.Lock()
	h.session = session
	h.mu.Unlock()

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: sessionView(session)})
}

// Get handles GET /api/v1/checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.current()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionView(session)})
}

// Abandon handles DELETE /api/v1/checkout. Navigating away destroys the
// session; the local cart is untouched.
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.session = nil
	h.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "abandoned"}})
}

// Advance handles POST /api/v1/checkout/advance
func (h *CheckoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	session, err := h.current()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if _, err := session.Advance(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionView(session)})
}

// Back handles POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	session, err := h.current()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if _, err := session.Back(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionView(session)})
}

// SelectAddress handles PUT /api/v1/checkout/address
func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	session, err := h.current()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req SelectAddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	switch {
	case req.AddressID != "":
		err = session.SelectAddress(r.Context(), req.AddressID)
	case req.New != nil:
		_, err = session.CreateAndSelectAddress(r.Context(), req.New.input())
	default:
		err = apperrors.InvalidInput("either addressID or a new address is required")
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionView(session)})
}

// SelectCard handles PUT /api/v1/checkout/card
func (h *CheckoutHandler) SelectCard(w http.ResponseWriter, r *http.Request) {
	session, err := h.current()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req SelectCardRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	switch {
	case req.CardID != "":
		err = session.SelectCard(r.Context(), req.CardID)
	case req.New != nil:
		_, err = session.CreateAndSelectCard(r.Context(), req.New.input())
	default:
		err = apperrors.InvalidInput("either cardID or a new card is required")
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessionView(session)})
}

// Submit handles POST /api/v1/checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, err := h.current()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := session.Submit(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"session": sessionView(session),
		"order":   order,
	}})
}
