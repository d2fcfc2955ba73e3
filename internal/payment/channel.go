// Package payment drives the real-time mobile money confirmation over a
// persistent connection to the payment bridge.
package payment

import "context"

// Close codes used by the payment bridge. Anything above the normal
// closure code signals abnormal termination.
const (
	// CloseNormal is a clean close; it never changes the visible status.
	CloseNormal = 1000
	// CloseUnknownOrder means the bridge could not find the order number.
	CloseUnknownOrder = 4004
	// CloseBadPayload means the initiation message was missing keys.
	CloseBadPayload = 4007
	// CloseGatewayTimeout means the gateway gave up waiting for the buyer
	// to authorise the charge.
	CloseGatewayTimeout = 4008
)

// Events are the transition callbacks fired by a live channel. OnClose and
// OnError are each fired at most once, after which no further events
// arrive.
type Events struct {
	OnMessage func(data []byte)
	OnError   func(err error)
	OnClose   func(code int, reason string)
}

// MessageChannel is one live bidirectional connection to the bridge.
type MessageChannel interface {
	// Send marshals v and writes it to the bridge.
	Send(v any) error
	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Dialer opens a fresh channel to the bridge. Each payment attempt dials
// its own connection; channels are never reused.
type Dialer interface {
	Dial(ctx context.Context, events Events) (MessageChannel, error)
}
