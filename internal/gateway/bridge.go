package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/payment"
)

// confirmAttempts is how many confirmation polls the gateway makes before
// giving up and closing with the timeout code.
const confirmAttempts = 4

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge is same-origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

type initiationMessage struct {
	OrderNumber *string `json:"order_number"`
	MomoNumber  *uint64 `json:"momo_number"`
}

// handleBridge runs one simulated payment session: the client sends
// {order_number, momo_number} once, then receives REQUESTING and WAITING
// progress events followed by either AUTHORIZED plus a normal close, or an
// abnormal close carrying the failure code.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Logger.Warn("bridge upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var msg initiationMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.OrderNumber == nil || msg.MomoNumber == nil {
		s.deps.Logger.Warn("bridge bad payload", zap.Error(err))
		closeWith(conn, payment.CloseBadPayload, "order_number and momo_number are required")
		return
	}

	order, ok := s.lookupOrder(*msg.OrderNumber)
	if !ok {
		s.deps.Logger.Warn("bridge unknown order", zap.String("order_number", *msg.OrderNumber))
		closeWith(conn, payment.CloseUnknownOrder, "unknown order")
		return
	}

	s.deps.Logger.Info("payment session started",
		zap.String("order_number", order.Number),
		zap.Uint64("momo_number", *msg.MomoNumber),
	)

	if err := respond(conn, domain.PaymentStatusProcessing, domain.PaymentRequesting,
		"Requesting for payment. Please wait..."); err != nil {
		return
	}
	if err := respond(conn, domain.PaymentStatusProcessing, domain.PaymentWaiting,
		"Please check your phone for an authorization prompt for confirmation."); err != nil {
		return
	}

	for attempt := 1; ; attempt++ {
		time.Sleep(s.deps.Bridge.PollInterval)
		if s.deps.Bridge.Confirm() {
			break
		}
		if attempt == confirmAttempts {
			s.deps.Logger.Info("payment session timed out", zap.String("order_number", order.Number))
			closeWith(conn, payment.CloseGatewayTimeout, "authorization not confirmed")
			return
		}
	}

	if err := respond(conn, domain.PaymentStatusOK, domain.PaymentAuthorized,
		"Payment Received. Thank you for buying from us."); err != nil {
		return
	}

	s.deps.Logger.Info("payment authorized", zap.String("order_number", order.Number))
	closeWith(conn, payment.CloseNormal, "")
}

func respond(conn *websocket.Conn, status int, statusText domain.PaymentStatusText, message string) error {
	return conn.WriteJSON(domain.PaymentResponse{
		Status:     status,
		StatusText: statusText,
		Message:    message,
	})
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
