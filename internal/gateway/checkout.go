package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/platform/idempotency"
	"github.com/mykejnr/oscarshop/internal/platform/observability"
)

const (
	maxCheckoutBody = 64 << 10

	requiredMessage      = "This field is required."
	invalidEmailMessage  = "Enter a valid email address."
	unknownMethodMessage = "Select a valid choice."
)

// The gateway keeps no basket; order totals are simulated from a flat
// subtotal plus the selected shipping price.
const demoSubtotal = 100.0

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCheckoutBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request body."})
		return
	}

	key := r.Header.Get("Idempotency-Key")
	fingerprint := idempotency.Fingerprint(body)
	now := s.deps.Clock()

	if key != "" {
		reservation, err := s.deps.Idempotency.Reserve(r.Context(), key, fingerprint, now, s.deps.IdempotencyTTL)
		switch {
		case err != nil:
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"message": "Idempotency key was reused with a different request.",
			})
			return
		case reservation.State == idempotency.ReservationStateCompleted:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(reservation.Record.ResponseStatus)
			w.Write(reservation.Record.ResponseBody)
			return
		case reservation.State == idempotency.ReservationStatePending:
			writeJSON(w, http.StatusConflict, map[string]string{
				"message": "A request with this idempotency key is still processing.",
			})
			return
		}
	}

	var data domain.CheckoutFormData
	if err := json.Unmarshal(body, &data); err != nil {
		s.releaseReservation(r, key, fingerprint)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request body."})
		return
	}

	if errs := s.validateCheckout(data); len(errs) > 0 {
		s.releaseReservation(r, key, fingerprint)
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	order := s.buildOrder(data, now)
	s.placeOrder(order)

	payload, err := json.Marshal(order)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Order serialisation failed."})
		return
	}

	logger := observability.FromContext(r.Context())
	if key != "" {
		saveErr := s.deps.Idempotency.SaveResponse(r.Context(), key, fingerprint,
			idempotency.Response{Status: http.StatusCreated, Body: payload}, now, s.deps.IdempotencyTTL)
		if saveErr != nil {
			logger.Warn("idempotency save failed", zap.Error(saveErr))
		}
	}

	logger.Info("order placed",
		zap.String("order_number", order.Number),
		zap.String("shipping_code", order.ShippingCode),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(payload)
}

func (s *Server) releaseReservation(r *http.Request, key, fingerprint string) {
	if key == "" {
		return
	}
	if err := s.deps.Idempotency.Release(r.Context(), key, fingerprint); err != nil {
		observability.FromContext(r.Context()).Warn("idempotency release failed", zap.Error(err))
	}
}

// validateCheckout mirrors the serializer behaviour of the real shop API:
// a field error tree keyed by the submitted field names, nested for the
// address record.
func (s *Server) validateCheckout(data domain.CheckoutFormData) map[string]any {
	errs := make(map[string]any)

	address := make(map[string]any)
	required := map[string]string{
		"first_name":   data.ShippingAddress.FirstName,
		"last_name":    data.ShippingAddress.LastName,
		"state":        data.ShippingAddress.State,
		"line4":        data.ShippingAddress.Line4,
		"line1":        data.ShippingAddress.Line1,
		"phone_number": data.ShippingAddress.PhoneNumber,
		"country":      data.ShippingAddress.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			address[field] = []string{requiredMessage}
		}
	}
	if len(address) > 0 {
		errs["shipping_address"] = address
	}

	if strings.TrimSpace(data.GuestEmail) == "" {
		errs["guest_email"] = []string{requiredMessage}
	} else if _, err := mail.ParseAddress(data.GuestEmail); err != nil {
		errs["guest_email"] = []string{invalidEmailMessage}
	}

	if data.ShippingMethod == "" {
		errs["shipping_method"] = []string{requiredMessage}
	} else if _, ok := s.deps.Catalogue.shippingMethod(data.ShippingMethod); !ok {
		errs["shipping_method"] = []string{unknownMethodMessage}
	}

	if data.PaymentMethod == "" {
		errs["payment_method"] = []string{requiredMessage}
	} else if _, ok := s.deps.Catalogue.paymentMethod(data.PaymentMethod); !ok {
		errs["payment_method"] = []string{unknownMethodMessage}
	}

	return errs
}

func (s *Server) buildOrder(data domain.CheckoutFormData, now time.Time) domain.Order {
	method, _ := s.deps.Catalogue.shippingMethod(data.ShippingMethod)
	number := s.nextOrderNumber()
	total := demoSubtotal + method.Price

	return domain.Order{
		URL:             "/api/order/" + number + "/",
		Number:          number,
		Currency:        "GHS",
		TotalExclTax:    total,
		TotalInclTax:    total,
		ShippingExclTax: method.Price,
		ShippingInclTax: method.Price,
		ShippingMethod:  method.Name,
		ShippingCode:    method.Code,
		Status:          "Pending",
		GuestEmail:      data.GuestEmail,
		DatePlaced:      now.UTC().Format(time.RFC3339),
		Anonymous: &domain.AnonymousCredentials{
			UUID:  uuid.NewString(),
			Token: uuid.NewString(),
		},
	}
}
