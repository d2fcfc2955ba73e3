package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/platform/httpx"
)

// MethodKind selects which checkout method catalogue to fetch.
type MethodKind string

const (
	// ShippingMethods fetches the shipping options for the current basket.
	ShippingMethods MethodKind = "shipping"
	// PaymentMethods fetches the available payment options.
	PaymentMethods MethodKind = "payment"
)

// Endpoint paths, relative to the API base URL. Method listings are POSTs
// because they price against the caller's basket session.
const (
	shippingMethodsPath = "/api/shipping/methods/"
	paymentMethodsPath  = "/api/payment/methods/"
	checkoutPath        = "/api/basket/checkout/"
)

// Client talks to the shop API. The zero value is not usable; construct
// with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests
// and for injecting timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient builds a Client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("rest: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type shippingMethodPayload struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type paymentMethodPayload struct {
	Label       string `json:"label"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// FetchMethods retrieves the method catalogue of the given kind and maps it
// into the wizard's normalised radio options.
func (c *Client) FetchMethods(ctx context.Context, kind MethodKind) ([]domain.RadioOption, error) {
	var path string
	switch kind {
	case ShippingMethods:
		path = shippingMethodsPath
	case PaymentMethods:
		path = paymentMethodsPath
	default:
		return nil, fmt.Errorf("rest: unknown method kind %q", kind)
	}

	resp, err := c.post(ctx, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !httpx.IsSuccess(resp.StatusCode) {
		return nil, httpx.NewError(resp.StatusCode, resp.Body)
	}

	switch kind {
	case ShippingMethods:
		var payload []shippingMethodPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("rest: decode shipping methods: %w", err)
		}
		options := make([]domain.RadioOption, 0, len(payload))
		for _, m := range payload {
			options = append(options, domain.RadioOption{
				Value:       m.Code,
				Label:       m.Name,
				Description: m.Description,
				Price:       m.Price,
			})
		}
		return options, nil
	default:
		var payload []paymentMethodPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("rest: decode payment methods: %w", err)
		}
		options := make([]domain.RadioOption, 0, len(payload))
		for _, m := range payload {
			options = append(options, domain.RadioOption{
				Value:       m.Label,
				Label:       m.Name,
				Description: m.Description,
				Icon:        m.Icon,
			})
		}
		return options, nil
	}
}

// SubmitResult is the outcome of a checkout submission. Exactly one of
// Order (on success) or FieldErrors/Message (on a 400) is meaningful;
// transport failures and non-400 errors surface as a returned error
// instead.
type SubmitResult struct {
	OK          bool
	Status      int
	Order       domain.Order
	FieldErrors map[string]json.RawMessage
	Message     string
}

// SubmitCheckout places the order described by data. A fresh idempotency
// key accompanies every call so retried submissions cannot double-charge.
func (c *Client) SubmitCheckout(ctx context.Context, data domain.CheckoutFormData) (SubmitResult, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("rest: encode checkout: %w", err)
	}

	resp, err := c.post(ctx, checkoutPath, body, ulid.Make().String())
	if err != nil {
		return SubmitResult{}, err
	}
	defer resp.Body.Close()

	if httpx.IsSuccess(resp.StatusCode) {
		var order domain.Order
		if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
			return SubmitResult{}, fmt.Errorf("rest: decode order: %w", err)
		}
		return SubmitResult{OK: true, Status: resp.StatusCode, Order: order}, nil
	}

	if resp.StatusCode == http.StatusBadRequest {
		var fields map[string]json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil || len(fields) == 0 {
			return SubmitResult{Status: resp.StatusCode, Message: httpx.GenericFailureMessage}, nil
		}
		if raw, ok := fields["message"]; ok && len(fields) == 1 {
			var msg string
			if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
				return SubmitResult{Status: resp.StatusCode, Message: msg}, nil
			}
		}
		return SubmitResult{Status: resp.StatusCode, FieldErrors: fields}, nil
	}

	return SubmitResult{}, httpx.NewError(resp.StatusCode, resp.Body)
}

func (c *Client) post(ctx context.Context, path string, body []byte, idempotencyKey string) (*http.Response, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("rest: build url for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rest: build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest: %s %s: %w", http.MethodPost, path, err)
	}
	return resp, nil
}
