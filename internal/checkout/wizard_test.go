package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/rest"
	"github.com/mykejnr/oscarshop/internal/shell"
)

type stubBasket struct {
	snapshot shell.BasketSnapshot
	cleared  int
	onClear  func()
}

func (b *stubBasket) Snapshot() shell.BasketSnapshot {
	return b.snapshot
}

func (b *stubBasket) Clear(context.Context) {
	b.cleared++
	if b.onClear != nil {
		b.onClear()
	}
}

type stubNotifier struct {
	notes []shell.Notification
}

func (n *stubNotifier) Notify(_ context.Context, note shell.Notification) {
	n.notes = append(n.notes, note)
}

type stubNavigator struct {
	paths []string
}

func (n *stubNavigator) Navigate(path string) {
	n.paths = append(n.paths, path)
}

type stubSubmitter struct {
	submitFn func(ctx context.Context, data domain.CheckoutFormData) (rest.SubmitResult, error)
	calls    int
}

func (s *stubSubmitter) SubmitCheckout(ctx context.Context, data domain.CheckoutFormData) (rest.SubmitResult, error) {
	s.calls++
	return s.submitFn(ctx, data)
}

func readyLoader(t *testing.T, name string, options ...domain.RadioOption) *OptionLoader {
	t.Helper()
	loader, err := NewOptionLoader(name, func(context.Context) ([]domain.RadioOption, error) {
		return options, nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loader.Initialize(context.Background())
	return loader
}

type wizardFixture struct {
	wizard    *Wizard
	basket    *stubBasket
	notifier  *stubNotifier
	navigator *stubNavigator
	submitter *stubSubmitter
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()

	f := &wizardFixture{
		basket: &stubBasket{snapshot: shell.BasketSnapshot{
			Lines:      []shell.BasketLine{{Title: "Kente Scarf", Quantity: 2, UnitPrice: 50}},
			TotalPrice: 100,
		}},
		notifier:  &stubNotifier{},
		navigator: &stubNavigator{},
		submitter: &stubSubmitter{submitFn: func(context.Context, domain.CheckoutFormData) (rest.SubmitResult, error) {
			return rest.SubmitResult{OK: true, Status: 201, Order: domain.Order{Number: "100023"}}, nil
		}},
	}

	wizard, err := NewWizard(WizardDeps{
		Basket:    f.basket,
		Notifier:  f.notifier,
		Navigator: f.navigator,
		Submitter: f.submitter,
		Shipping:  readyLoader(t, "shipping_method", domain.RadioOption{Value: "express", Label: "Express", Price: 25}),
		Payment:   readyLoader(t, "payment_method", domain.RadioOption{Value: "MOMO", Label: "Mobile Money"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.wizard = wizard
	return f
}

func fillAddress(form *Form) {
	form.SetShippingAddress(domain.ShippingAddress{
		FirstName:   "Kofi",
		LastName:    "Mensah",
		State:       "Greater Accra",
		Line4:       "Accra",
		Line1:       "12 High Street",
		PhoneNumber: "0248352555",
		Country:     "GH",
	})
	form.SetGuestEmail("kofi@example.com")
}

func advanceToReview(t *testing.T, w *Wizard) {
	t.Helper()
	fillAddress(w.Form())
	w.Form().SetShippingMethod("express")
	w.Form().SetPaymentMethod("MOMO")
	for i := 0; i < 3; i++ {
		if err := w.Next(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if w.Section() != domain.SectionReview {
		t.Fatalf("expected review, got %s", w.Section())
	}
}

func TestInitializeRedirectsEmptyBasket(t *testing.T) {
	f := newWizardFixture(t)
	f.basket.snapshot = shell.BasketSnapshot{}

	err := f.wizard.Initialize(context.Background())
	if !errors.Is(err, ErrBasketEmpty) {
		t.Fatalf("expected ErrBasketEmpty, got %v", err)
	}
	if len(f.notifier.notes) != 1 || f.notifier.notes[0].Message != EmptyBasketMessage {
		t.Fatalf("unexpected notifications %+v", f.notifier.notes)
	}
	if len(f.navigator.paths) != 1 || f.navigator.paths[0] != CataloguePath {
		t.Fatalf("unexpected navigation %v", f.navigator.paths)
	}
}

func TestInitializeWithItems(t *testing.T) {
	f := newWizardFixture(t)

	if err := f.wizard.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.navigator.paths) != 0 {
		t.Fatalf("unexpected navigation %v", f.navigator.paths)
	}
}

func TestNextBlockedByAddressValidation(t *testing.T) {
	f := newWizardFixture(t)

	if err := f.wizard.Next(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if f.wizard.Section() != domain.SectionShipAddress {
		t.Fatalf("section moved to %s", f.wizard.Section())
	}
	if got := f.wizard.FieldErrors("shipping_address.first_name"); len(got) != 1 {
		t.Fatalf("expected a required error, got %v", got)
	}
}

func TestNextAndBackWalkTheChain(t *testing.T) {
	f := newWizardFixture(t)
	fillAddress(f.wizard.Form())

	if err := f.wizard.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.wizard.Section() != domain.SectionShipMethod {
		t.Fatalf("unexpected section %s", f.wizard.Section())
	}

	f.wizard.Back()
	if f.wizard.Section() != domain.SectionShipAddress {
		t.Fatalf("unexpected section %s", f.wizard.Section())
	}
	// Back from the first section stays put.
	f.wizard.Back()
	if f.wizard.Section() != domain.SectionShipAddress {
		t.Fatalf("unexpected section %s", f.wizard.Section())
	}
}

func TestSubmitOnlyFromReview(t *testing.T) {
	f := newWizardFixture(t)
	if err := f.wizard.Submit(context.Background()); !errors.Is(err, ErrNotOnReview) {
		t.Fatalf("expected ErrNotOnReview, got %v", err)
	}
	if f.submitter.calls != 0 {
		t.Fatalf("submitter must not be called")
	}
}

func TestSubmitSuccessClearsBasketBeforeOrderVisible(t *testing.T) {
	f := newWizardFixture(t)
	advanceToReview(t, f.wizard)

	orderVisibleAtClear := false
	f.basket.onClear = func() {
		_, orderVisibleAtClear = f.wizard.Order()
	}

	if err := f.wizard.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.basket.cleared != 1 {
		t.Fatalf("expected one basket clear, got %d", f.basket.cleared)
	}
	if orderVisibleAtClear {
		t.Fatalf("order became visible before the basket was cleared")
	}
	order, ok := f.wizard.Order()
	if !ok || order.Number != "100023" {
		t.Fatalf("unexpected order %+v (ok=%v)", order, ok)
	}
}

func TestSubmitNormalizesPhoneNumber(t *testing.T) {
	f := newWizardFixture(t)
	advanceToReview(t, f.wizard)

	var submitted domain.CheckoutFormData
	f.submitter.submitFn = func(_ context.Context, data domain.CheckoutFormData) (rest.SubmitResult, error) {
		submitted = data
		return rest.SubmitResult{OK: true, Order: domain.Order{Number: "1"}}, nil
	}

	if err := f.wizard.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submitted.ShippingAddress.PhoneNumber != "+233248352555" {
		t.Fatalf("unexpected phone %q", submitted.ShippingAddress.PhoneNumber)
	}
}

func TestSubmitSingleFlight(t *testing.T) {
	f := newWizardFixture(t)
	advanceToReview(t, f.wizard)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.submitter.submitFn = func(context.Context, domain.CheckoutFormData) (rest.SubmitResult, error) {
		close(entered)
		<-release
		return rest.SubmitResult{OK: true, Order: domain.Order{Number: "100023"}}, nil
	}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- f.wizard.Submit(context.Background())
	}()

	<-entered
	if err := f.wizard.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.submitter.calls != 1 {
		t.Fatalf("expected one submitter call, got %d", f.submitter.calls)
	}
}

func TestSubmitValidationFailureJumpsToSection(t *testing.T) {
	f := newWizardFixture(t)
	advanceToReview(t, f.wizard)

	f.submitter.submitFn = func(context.Context, domain.CheckoutFormData) (rest.SubmitResult, error) {
		return rest.SubmitResult{
			Status: 400,
			FieldErrors: map[string]json.RawMessage{
				"shipping_address": json.RawMessage(`{"first_name": ["required"]}`),
			},
		}, nil
	}

	if err := f.wizard.Submit(context.Background()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if f.wizard.Section() != domain.SectionShipAddress {
		t.Fatalf("expected jump to ship_address, got %s", f.wizard.Section())
	}
	got := f.wizard.FieldErrors("shipping_address.first_name")
	if len(got) != 1 || got[0] != "required" {
		t.Fatalf("unexpected field errors %v", got)
	}
	if f.basket.cleared != 0 {
		t.Fatalf("basket must not be cleared on failure")
	}
}

func TestSubmitRejectedWithoutFieldDetail(t *testing.T) {
	f := newWizardFixture(t)
	advanceToReview(t, f.wizard)

	f.submitter.submitFn = func(context.Context, domain.CheckoutFormData) (rest.SubmitResult, error) {
		return rest.SubmitResult{Status: 400, Message: "Cannot checkout an empty basket"}, nil
	}

	if err := f.wizard.Submit(context.Background()); !errors.Is(err, ErrSubmitRejected) {
		t.Fatalf("expected ErrSubmitRejected, got %v", err)
	}
	if f.wizard.Section() != domain.SectionReview {
		t.Fatalf("wizard must stay on review, got %s", f.wizard.Section())
	}
	if len(f.notifier.notes) != 1 || f.notifier.notes[0].Message != "Cannot checkout an empty basket" {
		t.Fatalf("unexpected notifications %+v", f.notifier.notes)
	}
}

func TestSubmitTransportFailureNotifiesGenerically(t *testing.T) {
	f := newWizardFixture(t)
	advanceToReview(t, f.wizard)

	f.submitter.submitFn = func(context.Context, domain.CheckoutFormData) (rest.SubmitResult, error) {
		return rest.SubmitResult{}, errors.New("dial tcp: connection refused")
	}

	if err := f.wizard.Submit(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if f.wizard.Section() != domain.SectionReview {
		t.Fatalf("wizard must stay on review, got %s", f.wizard.Section())
	}
	if len(f.notifier.notes) != 1 {
		t.Fatalf("expected a generic notification, got %+v", f.notifier.notes)
	}
}

func TestTotalsFromBasketThenOrder(t *testing.T) {
	f := newWizardFixture(t)
	f.wizard.Form().SetShippingMethod("express")

	totals := f.wizard.Totals()
	if totals.Subtotal != 100 || totals.Shipping != 25 || totals.Total != 125 {
		t.Fatalf("unexpected totals %+v", totals)
	}

	// The placed order carries a shipping fee the loader never offered;
	// afterwards every component must come from the order alone.
	advanceToReview(t, f.wizard)
	f.submitter.submitFn = func(context.Context, domain.CheckoutFormData) (rest.SubmitResult, error) {
		return rest.SubmitResult{OK: true, Order: domain.Order{
			Number:          "1",
			TotalExclTax:    130,
			ShippingExclTax: 30,
		}}, nil
	}
	if err := f.wizard.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	totals = f.wizard.Totals()
	if totals.Total != 130 || totals.Shipping != 30 || totals.Subtotal != 100 {
		t.Fatalf("order must be the source of truth, got %+v", totals)
	}
}

func TestReviewSummary(t *testing.T) {
	f := newWizardFixture(t)
	fillAddress(f.wizard.Form())
	f.wizard.Form().SetShippingMethod("express")
	f.wizard.Form().SetPaymentMethod("MOMO")

	summary := f.wizard.Review()
	if summary.FullName != "Kofi Mensah" {
		t.Fatalf("unexpected name %q", summary.FullName)
	}
	if summary.Country != "Ghana" {
		t.Fatalf("unexpected country %q", summary.Country)
	}
	if summary.City != "Accra, Greater Accra" {
		t.Fatalf("unexpected city %q", summary.City)
	}
	if summary.Phone != "(+233) 0248352555" {
		t.Fatalf("unexpected phone %q", summary.Phone)
	}
	if summary.ShippingMethod != "Express" || summary.PaymentMethod != "Mobile Money" {
		t.Fatalf("unexpected methods %+v", summary)
	}
}

func TestNewWizardValidatesDeps(t *testing.T) {
	if _, err := NewWizard(WizardDeps{}); err == nil {
		t.Fatalf("expected dependency validation error")
	}
}
