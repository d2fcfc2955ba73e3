// Package gateway implements the local development stand-in for the shop
// API and its payment bridge: the method catalogues, the checkout endpoint
// with idempotent replays, and the websocket feed that simulates a mobile
// money gateway.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/platform/idempotency"
	"github.com/mykejnr/oscarshop/internal/platform/observability"
)

const defaultRouteTimeout = 60 * time.Second

// ServerDeps carries the gateway's collaborators.
type ServerDeps struct {
	Logger      *zap.Logger
	Catalogue   Catalogue
	Idempotency idempotency.Store
	// IdempotencyTTL bounds how long checkout replays are retained.
	IdempotencyTTL time.Duration
	// Bridge tunes the simulated payment gateway. Zero values get
	// production-like defaults; tests inject fast ones.
	Bridge BridgeConfig
	Clock  func() time.Time
}

// BridgeConfig tunes the simulated payment flow.
type BridgeConfig struct {
	// PollInterval is the pause between confirmation attempts.
	PollInterval time.Duration
	// Confirm reports whether one confirmation attempt succeeded. The
	// default succeeds roughly one attempt in four.
	Confirm func() bool
}

// Server is the development gateway. It keeps all state in memory.
type Server struct {
	deps ServerDeps

	mu     sync.Mutex
	orders map[string]domain.Order
	nextNo int
}

// NewServer validates deps and builds a gateway with an empty order book.
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("gateway: logger dependency is required")
	}
	if deps.Idempotency == nil {
		return nil, errors.New("gateway: idempotency store dependency is required")
	}
	if len(deps.Catalogue.Shipping) == 0 || len(deps.Catalogue.Payment) == 0 {
		return nil, errors.New("gateway: catalogue is required")
	}
	if deps.IdempotencyTTL <= 0 {
		deps.IdempotencyTTL = idempotency.DefaultTTL
	}
	if deps.Bridge.PollInterval <= 0 {
		deps.Bridge.PollInterval = 10 * time.Second
	}
	if deps.Bridge.Confirm == nil {
		deps.Bridge.Confirm = func() bool { return rand.Intn(4) == 1 }
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Server{
		deps:   deps,
		orders: make(map[string]domain.Order),
		nextNo: 100001,
	}, nil
}

// Router assembles the gateway's HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/shipping/methods/", s.handleShippingMethods)
	r.Post("/api/payment/methods/", s.handlePaymentMethods)
	r.With(middleware.Timeout(defaultRouteTimeout)).Post("/api/basket/checkout/", s.handleCheckout)
	r.Get("/wbs/pay/", s.handleBridge)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := s.deps.Clock()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(observability.WithLogger(r.Context(), s.deps.Logger))
		next.ServeHTTP(ww, r)
		s.deps.Logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", s.deps.Clock().Sub(started)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.deps.Clock().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleShippingMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalogue.Shipping)
}

func (s *Server) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalogue.Payment)
}

// lookupOrder is used by the bridge to resolve an initiation request.
func (s *Server) lookupOrder(number string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[number]
	return order, ok
}

func (s *Server) placeOrder(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.Number] = order
}

func (s *Server) nextOrderNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	number := s.nextNo
	s.nextNo++
	return fmt.Sprintf("%d", number)
}

// Run serves the gateway until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout, idleTimeout time.Duration) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		ReadTimeout: readTimeout,
		// The bridge holds connections open well beyond a normal
		// request; websocket connections bypass WriteTimeout after
		// hijack, so the value only bounds the REST surface.
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
