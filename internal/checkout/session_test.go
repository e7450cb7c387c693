package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/commerce"
	commercemock "github.com/utafrali/StorefrontGo/internal/commerce/mock"
	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/shop"
	"github.com/utafrali/StorefrontGo/internal/snapshot"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

type fixture struct {
	api   *commercemock.API
	state *shop.State
	store *snapshot.FileStore
}

func newFixture(t *testing.T, cart domain.LocalCart) *fixture {
	t.Helper()

	api := commercemock.New()
	api.ViewInitFunc = func(context.Context) (*commerce.InitData, error) {
		return &commerce.InitData{
			Products: []domain.Product{
				{ID: "prd_1", Name: "Dark Roast", Variants: []domain.Variant{
					{ID: "v1", Name: "12oz", Price: 2200},
					{ID: "v2", Name: "Whole Bean", Price: 2500},
				}},
			},
			Addresses: []domain.Address{{ID: "a1", Name: "Home"}},
			Cards:     []domain.Card{{ID: "c1", Brand: "visa", Last4: "4242"}},
		}, nil
	}

	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "cart.json"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	state := shop.NewState(api, store, logger)
	require.NoError(t, state.Initialize(context.Background()))

	for variantID, qty := range cart {
		require.NoError(t, state.SetQuantity(context.Background(), variantID, qty))
	}
	api.Reset()

	return &fixture{api: api, state: state, store: store}
}

func (f *fixture) session(t *testing.T) *Session {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session, err := NewSession(f.state, f.api, logger)
	require.NoError(t, err)
	return session
}

// advanceToReview selects an address and card and walks the session to the
// review step.
func (f *fixture) sessionAtReview(t *testing.T) *Session {
	t.Helper()
	session := f.session(t)

	_, err := session.Advance()
	require.NoError(t, err)
	require.NoError(t, session.SelectAddress(context.Background(), "a1"))
	_, err = session.Advance()
	require.NoError(t, err)
	require.NoError(t, session.SelectCard(context.Background(), "c1"))
	_, err = session.Advance()
	require.NoError(t, err)
	require.Equal(t, domain.StepReview, session.Step())
	return session
}

func TestNewSession_EmptyCartRejected(t *testing.T) {
	f := newFixture(t, domain.LocalCart{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewSession(f.state, f.api, logger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestAdvance_GuardsEachStep(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.session(t)

	// cart -> address: cart has items
	step, err := session.Advance()
	require.NoError(t, err)
	assert.Equal(t, domain.StepAddress, step)

	// address -> payment blocked without a selection
	_, err = session.Advance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, domain.StepAddress, session.Step())

	require.NoError(t, session.SelectAddress(context.Background(), "a1"))
	step, err = session.Advance()
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, step)

	// payment -> review blocked without a card
	_, err = session.Advance()
	require.Error(t, err)
	assert.Equal(t, domain.StepPayment, session.Step())

	require.NoError(t, session.SelectCard(context.Background(), "c1"))
	step, err = session.Advance()
	require.NoError(t, err)
	assert.Equal(t, domain.StepReview, step)

	// review is only left through Submit
	_, err = session.Advance()
	require.Error(t, err)
	assert.Equal(t, domain.StepReview, session.Step())
}

func TestAdvance_CartToAddressRequiresItems(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 1})
	session := f.session(t)

	// the cart was emptied after the session began
	require.NoError(t, f.state.Clear(context.Background()))

	_, err := session.Advance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, domain.StepCart, session.Step())
}

func TestBack_PreservesSelections(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.sessionAtReview(t)

	for _, want := range []string{domain.StepPayment, domain.StepAddress, domain.StepCart} {
		step, err := session.Back()
		require.NoError(t, err)
		assert.Equal(t, want, step)
	}

	// already at the first step
	_, err := session.Back()
	require.Error(t, err)

	assert.Equal(t, "a1", session.SelectedAddressID())
	assert.Equal(t, "c1", session.SelectedCardID())
}

func TestSelectAddress_UnknownIDRejected(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.session(t)

	err := session.SelectAddress(context.Background(), "a_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, session.SelectedAddressID())
	assert.Empty(t, f.api.Calls())
}

func TestSelectAddress_AttachesToServerCart(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.session(t)

	require.NoError(t, session.SelectAddress(context.Background(), "a1"))
	assert.Equal(t, "a1", session.SelectedAddressID())
	assert.Equal(t, []string{"SetCartAddress:a1"}, f.api.Calls())
}

func TestSelectAddress_BackendFailureLeavesSelectionUnset(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	f.api.SetCartAddressFunc = func(context.Context, string) error {
		return apperrors.Network(errors.New("connection refused"))
	}
	session := f.session(t)

	err := session.SelectAddress(context.Background(), "a1")
	require.Error(t, err)
	assert.Empty(t, session.SelectedAddressID())
}

func TestCreateAndSelectAddress(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.session(t)

	address, err := session.CreateAndSelectAddress(context.Background(), commerce.AddressInput{
		Name:    "Home",
		Street1: "1 Main St",
		City:    "Springfield",
		Country: "US",
		Zip:     "12345",
	})
	require.NoError(t, err)
	assert.Equal(t, "adr_mock", address.ID)
	assert.Equal(t, "adr_mock", session.SelectedAddressID())
	assert.Equal(t, []string{"CreateAddress", "SetCartAddress:adr_mock"}, f.api.Calls())
}

func TestCreateAndSelectAddress_MissingIDNotSelected(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	f.api.CreateAddressFunc = func(context.Context, commerce.AddressInput) (*domain.Address, error) {
		return &domain.Address{Name: "Home"}, nil
	}
	session := f.session(t)

	_, err := session.CreateAndSelectAddress(context.Background(), commerce.AddressInput{Name: "Home"})
	require.Error(t, err)
	assert.Empty(t, session.SelectedAddressID())
}

func TestCreateAndSelectCard(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.session(t)

	card, err := session.CreateAndSelectCard(context.Background(), commerce.CardInput{Token: "tok_visa"})
	require.NoError(t, err)
	assert.Equal(t, "crd_mock", card.ID)
	assert.Equal(t, "crd_mock", session.SelectedCardID())
}

func TestSubmit_OnlyValidAtReview(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.session(t)

	_, err := session.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Empty(t, f.api.Calls())
}

func TestSubmit_EndToEndCallOrder(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	session := f.sessionAtReview(t)
	f.api.Reset()

	order, err := session.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, []string{"ClearCart", "AddCartItem:v1:3", "ConvertCart"}, f.api.Calls())
	assert.Equal(t, domain.StepComplete, session.Step())
	assert.True(t, f.state.Cart().IsEmpty())

	// persisted snapshot is gone
	_, err = f.store.Load(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSubmit_MultipleItemsAddedInVariantOrder(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v2": 1, "v1": 4})
	session := f.sessionAtReview(t)
	f.api.Reset()

	_, err := session.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ClearCart", "AddCartItem:v1:4", "AddCartItem:v2:1", "ConvertCart"}, f.api.Calls())
}

func TestSubmit_FailureKeepsCartAndStaysAtReview(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	f.api.ConvertCartFunc = func(context.Context) (*domain.Order, error) {
		return nil, apperrors.API(500, "conversion failed")
	}
	session := f.sessionAtReview(t)

	_, err := session.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAPI))

	assert.Equal(t, domain.StepReview, session.Step())
	assert.Equal(t, domain.LocalCart{"v1": 3}, f.state.Cart())
	require.Error(t, session.Err())

	// snapshot untouched
	persisted, loadErr := f.store.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Equal(t, domain.LocalCart{"v1": 3}, persisted)
}

func TestSubmit_RetryAfterFailureSucceeds(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})
	failures := 1
	f.api.ConvertCartFunc = func(context.Context) (*domain.Order, error) {
		if failures > 0 {
			failures--
			return nil, apperrors.Network(errors.New("timeout"))
		}
		return &domain.Order{ID: "ord_retry"}, nil
	}
	session := f.sessionAtReview(t)

	_, err := session.Submit(context.Background())
	require.Error(t, err)

	order, err := session.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ord_retry", order.ID)
	assert.Equal(t, domain.StepComplete, session.Step())
	assert.NoError(t, session.Err())
}

func TestSubmit_ConcurrentInvocationsConvertOnce(t *testing.T) {
	f := newFixture(t, domain.LocalCart{"v1": 3})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.ConvertCartFunc = func(context.Context) (*domain.Order, error) {
		close(entered)
		<-release
		return &domain.Order{ID: "ord_once"}, nil
	}
	session := f.sessionAtReview(t)
	f.api.Reset()

	var wg sync.WaitGroup
	results := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[0] = session.Submit(context.Background())
	}()

	// wait until the first submit is suspended inside the convert call, then
	// fire the second
	<-entered
	_, results[1] = session.Submit(context.Background())
	close(release)
	wg.Wait()

	require.Error(t, results[1])
	assert.True(t, errors.Is(results[1], apperrors.ErrConflict))
	require.NoError(t, results[0])

	converts := 0
	for _, call := range f.api.Calls() {
		if call == "ConvertCart" {
			converts++
		}
	}
	assert.Equal(t, 1, converts)
}
