// Command storefront walks one checkout end to end against a running
// gateway: wizard sections, order submission and the mobile money payment
// session. It is the terminal harness for the checkout subsystem.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mykejnr/oscarshop/internal/checkout"
	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/payment"
	"github.com/mykejnr/oscarshop/internal/platform/config"
	"github.com/mykejnr/oscarshop/internal/platform/observability"
	"github.com/mykejnr/oscarshop/internal/rest"
	"github.com/mykejnr/oscarshop/internal/shell"
)

type consoleNotifier struct{}

func (consoleNotifier) Notify(_ context.Context, n shell.Notification) {
	if n.Title != "" {
		fmt.Printf("\n== %s ==\n", n.Title)
	}
	message := n.Message
	if n.HTML {
		message = stripTags(message)
	}
	fmt.Println(message)
}

type consoleNavigator struct {
	mu   sync.Mutex
	last string
}

// Navigate is called from the websocket read goroutine.
func (n *consoleNavigator) Navigate(path string) {
	n.mu.Lock()
	n.last = path
	n.mu.Unlock()
	fmt.Printf("-> navigating to %s\n", path)
}

func (n *consoleNavigator) lastPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

func main() {
	firstName := flag.String("first-name", "Kofi", "buyer first name")
	lastName := flag.String("last-name", "Mensah", "buyer last name")
	email := flag.String("email", "kofi@example.com", "guest email for order updates")
	country := flag.String("country", "GH", "ISO country code")
	city := flag.String("city", "Accra", "delivery city")
	region := flag.String("region", "Greater Accra", "state or region")
	street := flag.String("street", "12 High Street", "street address")
	phone := flag.String("phone", "0248352555", "delivery phone number")
	momo := flag.String("momo", "248352555", "mobile money number to charge")
	flag.Parse()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("storefront")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	client, err := rest.NewClient(cfg.API.BaseURL)
	if err != nil {
		logger.Fatal("failed to initialise api client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := observability.NewEventLogger(logger)
	shipping, err := checkout.NewOptionLoader("shipping_method", func(ctx context.Context) ([]domain.RadioOption, error) {
		return client.FetchMethods(ctx, rest.ShippingMethods)
	}, events)
	if err != nil {
		logger.Fatal("failed to initialise shipping loader", zap.Error(err))
	}
	paymentLoader, err := checkout.NewOptionLoader("payment_method", func(ctx context.Context) ([]domain.RadioOption, error) {
		return client.FetchMethods(ctx, rest.PaymentMethods)
	}, events)
	if err != nil {
		logger.Fatal("failed to initialise payment loader", zap.Error(err))
	}

	basket := shell.NewMemoryBasket(
		shell.BasketLine{Title: "Kente Scarf", Quantity: 2, UnitPrice: 35},
		shell.BasketLine{Title: "Shea Butter 250g", Quantity: 1, UnitPrice: 30},
	)
	notifier := consoleNotifier{}
	navigator := &consoleNavigator{}

	wizard, err := checkout.NewWizard(checkout.WizardDeps{
		Basket:    basket,
		Notifier:  notifier,
		Navigator: navigator,
		Submitter: client,
		Shipping:  shipping,
		Payment:   paymentLoader,
		Logger:    events,
	})
	if err != nil {
		logger.Fatal("failed to initialise wizard", zap.Error(err))
	}
	defer wizard.Dispose()

	if err := wizard.Initialize(ctx); err != nil {
		logger.Fatal("checkout not enterable", zap.Error(err))
	}
	if shipping.State() != checkout.LoaderReady || paymentLoader.State() != checkout.LoaderReady {
		fmt.Println(checkout.FetchFailedMessage)
		os.Exit(1)
	}

	form := wizard.Form()
	form.SetShippingAddress(domain.ShippingAddress{
		FirstName:   *firstName,
		LastName:    *lastName,
		State:       *region,
		Line4:       *city,
		Line1:       *street,
		PhoneNumber: *phone,
		Country:     *country,
	})
	form.SetGuestEmail(*email)
	form.SetShippingMethod(shipping.Options()[0].Value)
	form.SetPaymentMethod(paymentLoader.Options()[0].Value)

	for wizard.Section() != domain.SectionReview {
		step, _, _ := checkout.GetSection(wizard.Section())
		fmt.Printf("[%s] %s\n", wizard.Section(), step.Label)
		if err := wizard.Next(); err != nil {
			logger.Fatal("section blocked", zap.String("section", string(wizard.Section())), zap.Error(err))
		}
	}

	review := wizard.Review()
	totals := wizard.Totals()
	fmt.Printf("\n%s, %s, %s\n", review.FullName, review.City, review.Country)
	fmt.Printf("%s via %s, paying with %s\n", review.Phone, review.ShippingMethod, review.PaymentMethod)
	fmt.Printf("Subtotal %.2f + shipping %.2f = %.2f\n\n", totals.Subtotal, totals.Shipping, totals.Total)

	if err := wizard.Submit(ctx); err != nil {
		logger.Fatal("checkout submission failed", zap.Error(err))
	}
	order, _ := wizard.Order()
	fmt.Printf("Order %s placed. Total %.2f %s\n", order.Number, order.TotalExclTax, order.Currency)

	session, err := payment.NewSession(order, payment.SessionDeps{
		Dialer:    &payment.WebsocketDialer{URL: cfg.Bridge.URL, HandshakeTimeout: cfg.Bridge.DialTimeout},
		Notifier:  notifier,
		Navigator: navigator,
		Logger:    events,
	})
	if err != nil {
		logger.Fatal("failed to initialise payment session", zap.Error(err))
	}
	defer session.Dispose()

	if err := session.Initiate(ctx, *momo); err != nil {
		logger.Fatal("payment initiation failed", zap.Error(err))
	}

	if err := awaitVerdict(ctx, session, navigator); err != nil {
		logger.Fatal("payment failed", zap.Error(err))
	}
}

// awaitVerdict watches the session until it settles: a navigation means
// the payment was authorized, a failed status is terminal.
func awaitVerdict(ctx context.Context, session *payment.Session, navigator *consoleNavigator) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	lastShown := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if navigator.lastPath() != "" {
				return nil
			}
			response := session.Response()
			if display := response.Display(); display != "" && display != lastShown {
				fmt.Println(display)
				lastShown = display
			}
			if response.Status == domain.PaymentStatusFailed {
				return fmt.Errorf("payment ended with %s: %s", response.StatusText, response.Message)
			}
		}
	}
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune('\n')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
