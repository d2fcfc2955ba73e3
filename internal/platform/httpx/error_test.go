package httpx

import (
	"strings"
	"testing"
)

func TestMessageFromEnvelope(t *testing.T) {
	body := strings.NewReader(`{"message": "Cannot checkout an empty basket"}`)
	if got := MessageFrom(body); got != "Cannot checkout an empty basket" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestMessageFromMalformedBody(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"not json":    "<html>502 Bad Gateway</html>",
		"no message":  `{"error": "boom"}`,
		"blank value": `{"message": "  "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if got := MessageFrom(strings.NewReader(body)); got != GenericFailureMessage {
				t.Fatalf("expected generic message, got %q", got)
			}
		})
	}
}

func TestNewError(t *testing.T) {
	err := NewError(503, strings.NewReader(`{"message": "down for maintenance"}`))
	if err.Status != 503 {
		t.Fatalf("unexpected status %d", err.Status)
	}
	if !strings.Contains(err.Error(), "down for maintenance") {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestIsSuccess(t *testing.T) {
	for status, want := range map[int]bool{199: false, 200: true, 201: true, 299: true, 300: false, 400: false, 500: false} {
		if got := IsSuccess(status); got != want {
			t.Fatalf("IsSuccess(%d) = %v, want %v", status, got, want)
		}
	}
}
