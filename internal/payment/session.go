package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/platform/observability"
	"github.com/mykejnr/oscarshop/internal/shell"
)

// Messages shown by the payment panel.
const (
	InvalidNumberMessage = "Enter a valid phone number. Eg. (0248352555)"
	ConnectingMessage    = "Connecting to server..."
	UnexpectedMessage    = "Sorry! An unexpected error occured. We will fix this issue shortly."
	OfflineMessage       = "Network connectivity error. Please check your internet connection."
	TimeoutMessage       = "Timed out waiting for payment confirmation."
	DisconnectedMessage  = "Connection closed before payment confirmation."

	// SuccessTitle heads the rich confirmation popup.
	SuccessTitle = "Order Successfully Placed."
)

// ErrInvalidNumber means the entered mobile money number failed numeric
// parsing; no connection is opened.
var ErrInvalidNumber = errors.New("payment: invalid mobile money number")

// InitiationRequest is the single message sent to the bridge after the
// connection opens.
type InitiationRequest struct {
	OrderNumber string `json:"order_number"`
	MomoNumber  uint64 `json:"momo_number"`
}

// SessionDeps carries the session's collaborators. Online reports network
// connectivity and informs close classification; when nil the session
// assumes it is online.
type SessionDeps struct {
	Dialer    Dialer
	Notifier  shell.Notifier
	Navigator shell.Navigator
	Online    func() bool
	Logger    observability.EventLogFunc
}

// Session reduces the stream of bridge events for one order into the
// UI-visible payment state. At most one live connection exists at a time;
// re-initiating closes the previous one first. Terminal failures are never
// retried automatically.
type Session struct {
	deps  SessionDeps
	order domain.Order

	mu       sync.Mutex
	response domain.PaymentResponse
	channel  MessageChannel
	settled  bool
	disposed bool
}

// NewSession builds an idle session for a placed order.
func NewSession(order domain.Order, deps SessionDeps) (*Session, error) {
	if deps.Dialer == nil {
		return nil, errors.New("payment: dialer dependency is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("payment: notifier dependency is required")
	}
	if deps.Navigator == nil {
		return nil, errors.New("payment: navigator dependency is required")
	}
	if deps.Online == nil {
		deps.Online = func() bool { return true }
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}

	return &Session{
		deps:     deps,
		order:    order,
		response: domain.PaymentResponse{Status: domain.PaymentStatusIdle, StatusText: domain.PaymentIdle},
	}, nil
}

// Response is the currently visible payment state.
func (s *Session) Response() domain.PaymentResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.response
}

// Initiate validates the entered number, opens a fresh bridge connection
// and sends the initiation message. An unparseable or zero number never
// opens a connection.
func (s *Session) Initiate(ctx context.Context, momoNumber string) error {
	number, err := strconv.ParseUint(strings.TrimSpace(momoNumber), 10, 64)
	if err != nil || number == 0 {
		return ErrInvalidNumber
	}

	// A previous attempt's connection is never reused.
	s.mu.Lock()
	previous := s.channel
	s.channel = nil
	s.response = domain.PaymentResponse{
		Status:     domain.PaymentStatusProcessing,
		StatusText: domain.PaymentConnecting,
		Message:    ConnectingMessage,
	}
	s.mu.Unlock()
	if previous != nil {
		previous.Close()
	}

	channel, err := s.deps.Dialer.Dial(ctx, Events{
		OnMessage: func(data []byte) { s.HandleMessage(ctx, data) },
		OnError:   func(err error) { s.HandleError(ctx, err) },
		OnClose:   func(code int, reason string) { s.HandleClose(ctx, code, reason) },
	})
	if err != nil {
		s.deps.Logger(ctx, "payment.dial_failed", map[string]any{"error": err.Error()})
		s.setResponse(domain.PaymentResponse{
			Status:     domain.PaymentStatusFailed,
			StatusText: domain.PaymentError,
			Message:    UnexpectedMessage,
		})
		return fmt.Errorf("payment: dial bridge: %w", err)
	}

	// Publish the channel before sending so a concurrent Dispose always
	// sees it. A Dispose that raced the dial wins: the fresh connection
	// is closed and nothing is sent.
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		channel.Close()
		return nil
	}
	s.channel = channel
	s.mu.Unlock()

	if err := channel.Send(InitiationRequest{OrderNumber: s.order.Number, MomoNumber: number}); err != nil {
		s.mu.Lock()
		if s.channel == channel {
			s.channel = nil
		}
		s.mu.Unlock()
		channel.Close()
		s.deps.Logger(ctx, "payment.send_failed", map[string]any{"error": err.Error()})
		s.setResponse(domain.PaymentResponse{
			Status:     domain.PaymentStatusFailed,
			StatusText: domain.PaymentError,
			Message:    UnexpectedMessage,
		})
		return fmt.Errorf("payment: send initiation: %w", err)
	}
	return nil
}

// HandleMessage reduces one server-pushed event. A 200 settles the session
// exactly once: confirmation popup, navigation to the order lookup page,
// and a reset to idle. Everything else is stored verbatim as the visible
// status.
func (s *Session) HandleMessage(ctx context.Context, data []byte) {
	var response domain.PaymentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		s.deps.Logger(ctx, "payment.bad_message", map[string]any{"error": err.Error()})
		return
	}

	if response.Status != domain.PaymentStatusOK {
		s.setResponse(response)
		return
	}

	s.mu.Lock()
	settled := s.settled
	s.settled = true
	s.response = domain.PaymentResponse{
		Status:     domain.PaymentStatusIdle,
		StatusText: domain.PaymentIdle,
		Message:    response.Message,
	}
	s.mu.Unlock()
	if settled {
		return
	}

	s.deps.Notifier.Notify(ctx, shell.Notification{
		Title:   SuccessTitle,
		Message: confirmationMessage(s.order),
		HTML:    true,
	})
	if anon := s.order.Anonymous; anon != nil {
		s.deps.Navigator.Navigate("/order/" + anon.UUID + "/" + anon.Token)
	}
	s.deps.Logger(ctx, "payment.authorized", map[string]any{"order_number": s.order.Number})
}

// HandleError reacts to a transport level failure.
func (s *Session) HandleError(ctx context.Context, err error) {
	s.deps.Logger(ctx, "payment.transport_error", map[string]any{"error": err.Error()})
	s.setResponse(domain.PaymentResponse{
		Status:     domain.PaymentStatusFailed,
		StatusText: domain.PaymentError,
		Message:    UnexpectedMessage,
	})
}

// HandleClose classifies a connection close. A normal close changes
// nothing once the session has a verdict; mid-flight it becomes the
// DISCONNECTED terminal state so the buyer is never left on a stale
// spinner. Abnormal closes become a connectivity, timeout or generic
// error state.
func (s *Session) HandleClose(ctx context.Context, code int, reason string) {
	if code <= CloseNormal {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.settled || !s.response.Processing() {
			return
		}
		s.response = domain.PaymentResponse{
			Status:     domain.PaymentStatusFailed,
			StatusText: domain.PaymentDisconnected,
			Message:    DisconnectedMessage,
		}
		return
	}

	statusText := domain.PaymentError
	message := UnexpectedMessage
	if !s.deps.Online() {
		message = OfflineMessage
	}
	if code == CloseGatewayTimeout {
		statusText = domain.PaymentTimeout
		message = TimeoutMessage
	}

	s.deps.Logger(ctx, "payment.closed", map[string]any{"code": code, "reason": reason})
	s.setResponse(domain.PaymentResponse{
		Status:     domain.PaymentStatusFailed,
		StatusText: statusText,
		Message:    message,
	})
}

// Dispose closes any live connection. Must be called when the owner of the
// session goes away so a connection is never leaked.
func (s *Session) Dispose() {
	s.mu.Lock()
	s.disposed = true
	channel := s.channel
	s.channel = nil
	s.mu.Unlock()
	if channel != nil {
		channel.Close()
	}
}

func (s *Session) setResponse(response domain.PaymentResponse) {
	s.mu.Lock()
	s.response = response
	s.mu.Unlock()
}

func confirmationMessage(order domain.Order) string {
	return "<div>" +
		"<div>Payment received. Thank you for doing business with us.</div>" +
		"<div>An email has been sent to " + order.GuestEmail + ". The email contains a link " +
		"to check the status and details of your order.</div>" +
		"<div>Order Number: " + order.Number + "</div>" +
		"</div>"
}
