package gateway

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mykejnr/oscarshop/internal/domain"
	"github.com/mykejnr/oscarshop/internal/payment"
)

func dialBridge(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/wbs/pay/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) domain.PaymentResponse {
	t.Helper()
	var response domain.PaymentResponse
	require.NoError(t, conn.ReadJSON(&response))
	return response
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected close error, got %v", err)
	assert.Equal(t, code, closeErr.Code)
}

func TestBridgeRejectsBadPayload(t *testing.T) {
	srv := newTestServer(t)
	conn := dialBridge(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{"momo_number": 248352555}))
	expectClose(t, conn, payment.CloseBadPayload)
}

func TestBridgeRejectsUnknownOrder(t *testing.T) {
	srv := newTestServer(t)
	conn := dialBridge(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"order_number": "999999",
		"momo_number":  248352555,
	}))
	expectClose(t, conn, payment.CloseUnknownOrder)
}

func TestBridgeAuthorizesPayment(t *testing.T) {
	srv := newTestServer(t)
	order := srv.buildOrder(validCheckout(), time.Now())
	srv.placeOrder(order)

	conn := dialBridge(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"order_number": order.Number,
		"momo_number":  248352555,
	}))

	requesting := readResponse(t, conn)
	assert.Equal(t, domain.PaymentRequesting, requesting.StatusText)
	assert.True(t, requesting.Processing())

	waiting := readResponse(t, conn)
	assert.Equal(t, domain.PaymentWaiting, waiting.StatusText)

	authorized := readResponse(t, conn)
	assert.Equal(t, domain.PaymentStatusOK, authorized.Status)
	assert.Equal(t, domain.PaymentAuthorized, authorized.StatusText)
	assert.Equal(t, "Payment Received. Thank you for buying from us.", authorized.Message)

	expectClose(t, conn, payment.CloseNormal)
}

func TestBridgeTimesOutAfterFourAttempts(t *testing.T) {
	srv := newTestServer(t)
	attempts := 0
	srv.deps.Bridge.Confirm = func() bool {
		attempts++
		return false
	}

	order := srv.buildOrder(validCheckout(), time.Now())
	srv.placeOrder(order)

	conn := dialBridge(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"order_number": order.Number,
		"momo_number":  248352555,
	}))

	readResponse(t, conn) // REQUESTING
	readResponse(t, conn) // WAITING
	expectClose(t, conn, payment.CloseGatewayTimeout)
	assert.Equal(t, confirmAttempts, attempts)
}

func TestBridgeConfirmsAfterRetries(t *testing.T) {
	srv := newTestServer(t)
	attempts := 0
	srv.deps.Bridge.Confirm = func() bool {
		attempts++
		return attempts == 3
	}

	order := srv.buildOrder(validCheckout(), time.Now())
	srv.placeOrder(order)

	conn := dialBridge(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"order_number": order.Number,
		"momo_number":  248352555,
	}))

	readResponse(t, conn) // REQUESTING
	readResponse(t, conn) // WAITING
	authorized := readResponse(t, conn)
	assert.Equal(t, domain.PaymentStatusOK, authorized.Status)
	assert.Equal(t, 3, attempts)
}
