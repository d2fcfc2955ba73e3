package checkout

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/platform/httpx"
	"github.com/mykejnr/oscarshop/internal/platform/observability"
	"github.com/mykejnr/oscarshop/internal/rest"
	"github.com/mykejnr/oscarshop/internal/shell"
)

// EmptyBasketMessage is shown when someone deep links into checkout with
// nothing to buy.
const EmptyBasketMessage = "Your basket is empty. Please add some items."

// CataloguePath is where an empty basket redirect lands.
const CataloguePath = "/catalogue/"

var (
	// ErrBasketEmpty means the wizard refused to mount over an empty basket.
	ErrBasketEmpty = errors.New("checkout: basket is empty")
	// ErrInvalidInput means client or server side validation failed; the
	// field error tree carries the details.
	ErrInvalidInput = errors.New("checkout: invalid input")
	// ErrSubmitInFlight means a submission is already pending. At most one
	// submission may be in flight per wizard instance.
	ErrSubmitInFlight = errors.New("checkout: submission already in flight")
	// ErrNotOnReview means Submit was invoked from a non-review section.
	ErrNotOnReview = errors.New("checkout: submit is only available from review")
	// ErrSubmitRejected means the endpoint refused the submission without
	// field level detail; the buyer was notified generically.
	ErrSubmitRejected = errors.New("checkout: submission rejected")
)

// Submitter places the order described by the accumulated form data.
type Submitter interface {
	SubmitCheckout(ctx context.Context, data domain.CheckoutFormData) (rest.SubmitResult, error)
}

// WizardDeps carries the wizard's collaborators.
type WizardDeps struct {
	Basket    shell.Basket
	Notifier  shell.Notifier
	Navigator shell.Navigator
	Submitter Submitter
	Shipping  *OptionLoader
	Payment   *OptionLoader
	Logger    observability.EventLogFunc
	Clock     func() time.Time
}

// Wizard owns the multi-step checkout state: the current section, the
// accumulated form values, the server validation errors and, once placed,
// the order. One instance exists per checkout attempt.
type Wizard struct {
	deps WizardDeps
	form *Form

	mu         sync.Mutex
	section    domain.WizardSection
	errors     FieldErrors
	order      *domain.Order
	submitting bool
}

// NewWizard validates the dependency set and builds a wizard positioned on
// the shipping address section.
func NewWizard(deps WizardDeps) (*Wizard, error) {
	if deps.Basket == nil {
		return nil, errors.New("checkout: basket dependency is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("checkout: notifier dependency is required")
	}
	if deps.Navigator == nil {
		return nil, errors.New("checkout: navigator dependency is required")
	}
	if deps.Submitter == nil {
		return nil, errors.New("checkout: submitter dependency is required")
	}
	if deps.Shipping == nil || deps.Payment == nil {
		return nil, errors.New("checkout: method loaders are required")
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Wizard{
		deps:    deps,
		form:    NewForm(),
		section: domain.SectionShipAddress,
	}, nil
}

// Initialize guards the mount and starts both method catalogue fetches.
// With an empty basket and no placed order the wizard is not enterable: the
// buyer is notified and sent back to the catalogue.
func (w *Wizard) Initialize(ctx context.Context) error {
	w.mu.Lock()
	placed := w.order != nil
	w.mu.Unlock()

	if len(w.deps.Basket.Snapshot().Lines) == 0 && !placed {
		w.deps.Notifier.Notify(ctx, shell.Notification{Message: EmptyBasketMessage})
		w.deps.Navigator.Navigate(CataloguePath)
		return ErrBasketEmpty
	}

	// The two catalogues are independent; fetch them concurrently.
	var wg sync.WaitGroup
	for _, loader := range []*OptionLoader{w.deps.Shipping, w.deps.Payment} {
		wg.Add(1)
		go func(l *OptionLoader) {
			defer wg.Done()
			l.Initialize(ctx)
		}(loader)
	}
	wg.Wait()
	return nil
}

// Form exposes the live field state for the rendering layer.
func (w *Wizard) Form() *Form {
	return w.form
}

// Section reports the wizard's current section.
func (w *Wizard) Section() domain.WizardSection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.section
}

// FieldErrors returns the stored messages for a dotted field path, client
// or server side, or nil when the field is clean.
func (w *Wizard) FieldErrors(path string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errors.Extract(path)
}

// Next advances to the following section. The address section blocks
// advancing until its required fields pass validation; later sections
// advance freely.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if errs := w.form.ValidateSection(w.section); len(errs) > 0 {
		w.errors = errs
		return ErrInvalidInput
	}

	_, _, next := GetSection(w.section)
	if next == domain.SectionNone {
		return nil
	}
	w.errors = nil
	w.section = next
	return nil
}

// Back moves to the previous section. Never blocked.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, prev, _ := GetSection(w.section)
	if prev == domain.SectionNone {
		return
	}
	w.section = prev
}

// Submit places the order. Only invocable from the review section and only
// once at a time; the in-flight guard doubles as the disabled state of the
// submit control.
//
// On success the basket is cleared before the order becomes visible, so a
// stale basket total is never shown alongside a placed order. On a
// validation failure the wizard stores the error tree and jumps to the
// earliest offending section. Anything else is surfaced as a generic
// notification and the wizard stays on review.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.section != domain.SectionReview {
		w.mu.Unlock()
		return ErrNotOnReview
	}
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmitInFlight
	}
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	data := w.form.Data()
	data.ShippingAddress.PhoneNumber = normalizePhone(
		data.ShippingAddress.Postcode, data.ShippingAddress.PhoneNumber)

	started := w.deps.Clock()
	result, err := w.deps.Submitter.SubmitCheckout(ctx, data)
	if err != nil {
		w.deps.Logger(ctx, "checkout.submit.failed", map[string]any{
			"error":   err.Error(),
			"elapsed": w.deps.Clock().Sub(started).String(),
		})
		message := httpx.GenericFailureMessage
		var httpErr *httpx.Error
		if errors.As(err, &httpErr) {
			message = httpErr.Message
		}
		w.deps.Notifier.Notify(ctx, shell.Notification{Message: message})
		return err
	}

	if result.OK {
		w.deps.Basket.Clear(ctx)

		w.mu.Lock()
		order := result.Order
		w.order = &order
		w.errors = nil
		w.mu.Unlock()

		w.deps.Logger(ctx, "checkout.submit.placed", map[string]any{
			"order_number": result.Order.Number,
			"elapsed":      w.deps.Clock().Sub(started).String(),
		})
		return nil
	}

	if len(result.FieldErrors) > 0 {
		tree, decodeErr := DecodeFieldErrors(result.FieldErrors)
		if decodeErr == nil {
			w.mu.Lock()
			w.errors = tree
			w.section = ErrorSection(tree)
			w.mu.Unlock()
			return ErrInvalidInput
		}
		w.deps.Logger(ctx, "checkout.submit.bad_error_payload", map[string]any{
			"error": decodeErr.Error(),
		})
	}

	message := result.Message
	if message == "" {
		message = httpx.GenericFailureMessage
	}
	w.deps.Notifier.Notify(ctx, shell.Notification{Message: message})
	return ErrSubmitRejected
}

// Dispose releases wizard-held resources when the host unmounts the
// checkout view. The wizard holds nothing releasable today; the method
// keeps the mount/unmount lifecycle symmetric.
func (w *Wizard) Dispose() {}

// Order returns the placed order, if any.
func (w *Wizard) Order() (domain.Order, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.order == nil {
		return domain.Order{}, false
	}
	return *w.order, true
}

// Totals summarises the money panel beside the wizard.
type Totals struct {
	Subtotal float64
	Shipping float64
	Discount float64
	Total    float64
}

// Totals computes the basket summary. Once an order exists it is the
// single source of truth; before that the live basket plus the selected
// shipping option is.
func (w *Wizard) Totals() Totals {
	if order, ok := w.Order(); ok {
		return Totals{
			Subtotal: order.TotalExclTax - order.ShippingExclTax,
			Shipping: order.ShippingExclTax,
			Total:    order.TotalExclTax,
		}
	}

	shipFee := 0.0
	if option, ok := w.deps.Shipping.Find(w.form.Data().ShippingMethod); ok {
		shipFee = option.Price
	}
	subtotal := w.deps.Basket.Snapshot().TotalPrice
	return Totals{Subtotal: subtotal, Shipping: shipFee, Total: subtotal + shipFee}
}

// ReviewSummary is the read model rendered by the review section.
type ReviewSummary struct {
	FullName       string
	Country        string
	City           string
	Address        string
	Phone          string
	ShippingMethod string
	PaymentMethod  string
	Notes          string
}

// Review assembles the human readable summary of everything collected.
func (w *Wizard) Review() ReviewSummary {
	data := w.form.Data()
	addr := data.ShippingAddress

	shipping := ""
	if option, ok := w.deps.Shipping.Find(data.ShippingMethod); ok {
		shipping = option.Label
	}
	payment := ""
	if option, ok := w.deps.Payment.Find(data.PaymentMethod); ok {
		payment = option.Label
	}

	return ReviewSummary{
		FullName:       strings.TrimSpace(addr.FirstName + " " + addr.LastName),
		Country:        domain.CountryName(addr.Country),
		City:           addr.Line4 + ", " + addr.State,
		Address:        addr.Line1,
		Phone:          "(" + addr.Postcode + ") " + addr.PhoneNumber,
		ShippingMethod: shipping,
		PaymentMethod:  payment,
		Notes:          addr.Notes,
	}
}

// normalizePhone prefixes the national number with the resolved country
// calling code, dropping the leading zero buyers usually type.
func normalizePhone(callingCode, phone string) string {
	trimmed := strings.TrimSpace(phone)
	if n, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return callingCode + strconv.FormatUint(n, 10)
	}
	return callingCode + trimmed
}
