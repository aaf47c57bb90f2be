package contact_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryanraj/portfolio-contact/internal/contact"
	"github.com/aryanraj/portfolio-contact/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, sender *stubSender, origins ...string) http.Handler {
	t.Helper()
	svc := contact.NewService(contact.Options{
		Limiter:      ledger.NewLimiter(ledger.NewMemoryLedger(), 5, time.Hour, nil),
		Sender:       sender,
		Provider:     "stub",
		Envelope:     contact.EnvelopeConfig{From: "from@example.com", To: "owner@example.com"},
		MaxBodyBytes: 4 * 1024,
	})
	return contact.NewHandler(svc, origins)
}

func postContact(h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp contact.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Message
}

func TestHandleContactSuccess(t *testing.T) {
	sender := &stubSender{id: "msg_1"}
	h := newTestHandler(t, sender)

	rec := postContact(h, validPayload, map[string]string{"X-Forwarded-For": "203.0.113.7"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Message sent successfully! I will get back to you soon.", decodeMessage(t, rec))
	assert.Equal(t, 1, sender.count())
}

func TestHandleContactStatuses(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"malformed", `not json`, http.StatusInternalServerError, "An error occurred. Please try again."},
		{"null", `null`, http.StatusInternalServerError, "An error occurred. Please try again."},
		{"missing", `{"name":"Alice"}`, http.StatusBadRequest, "Missing required fields"},
		{"type", `{"name":["A"],"email":"x@y.com","message":"Hello there, friend."}`, http.StatusBadRequest, "Invalid field types"},
		{"email", `{"name":"Alice","email":"nope","message":"Hello there, friend."}`, http.StatusBadRequest, "Invalid email address"},
		{"length", `{"name":"Al","email":"x@y.com","message":"short"}`, http.StatusBadRequest, "Message must be between 10 and 5000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubSender{id: "x"})
			rec := postContact(h, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeMessage(t, rec))
		})
	}
}

func TestHandleContactDeliveryFailure(t *testing.T) {
	sender := &stubSender{err: assert.AnError}
	h := newTestHandler(t, sender)

	rec := postContact(h, validPayload, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg := decodeMessage(t, rec)
	assert.Equal(t, "Failed to send email. Please try again.", msg)
	assert.NotContains(t, msg, assert.AnError.Error())
}

func TestHandleContactRateLimited(t *testing.T) {
	sender := &stubSender{id: "ok"}
	h := newTestHandler(t, sender)
	headers := map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"}

	for i := 0; i < 5; i++ {
		rec := postContact(h, validPayload, headers)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := postContact(h, validPayload, headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests. Please try again later.", decodeMessage(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 5, sender.count())

	// another client is unaffected
	rec = postContact(h, validPayload, map[string]string{"X-Real-IP": "192.0.2.44"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleContactPayloadTooLarge(t *testing.T) {
	sender := &stubSender{id: "ok"}
	h := newTestHandler(t, sender)

	body := `{"name":"Alice","email":"x@y.com","message":"` + strings.Repeat("a", 5000) + `"}`
	rec := postContact(h, body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, sender.count())
}

func TestHandleContactOversizedBodiesConsumeQuota(t *testing.T) {
	sender := &stubSender{id: "ok"}
	h := newTestHandler(t, sender)
	headers := map[string]string{"X-Forwarded-For": "1.2.3.4"}
	body := strings.Repeat("x", 5*1024)

	for i := 0; i < 5; i++ {
		rec := postContact(h, body, headers)
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, "request %d", i+1)
		assert.Equal(t, "Request body too large", decodeMessage(t, rec))
	}

	rec := postContact(h, body, headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = postContact(h, validPayload, headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 0, sender.count())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	contact.WriteError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An error occurred. Please try again.", decodeMessage(t, rec))
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestHandleContactMethods(t *testing.T) {
	h := newTestHandler(t, &stubSender{id: "ok"}, "https://portfolio.example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Allow"))

	req = httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://portfolio.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portfolio.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestHandleContactCORS(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		h := newTestHandler(t, &stubSender{id: "ok"}, "https://portfolio.example.com")
		rec := postContact(h, validPayload, map[string]string{"Origin": "https://portfolio.example.com"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://portfolio.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("other origin", func(t *testing.T) {
		h := newTestHandler(t, &stubSender{id: "ok"}, "https://portfolio.example.com")
		rec := postContact(h, validPayload, map[string]string{"Origin": "https://blocked.example.com"})
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		h := newTestHandler(t, &stubSender{id: "ok"}, "*")
		rec := postContact(h, validPayload, map[string]string{"Origin": "https://any.example.com"})
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "203.0.113.7"},
		{"forwarded wins", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "192.0.2.1"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "192.0.2.1"}, "192.0.2.1"},
		{"not validated", map[string]string{"X-Real-IP": "definitely-not-an-ip"}, "definitely-not-an-ip"},
		{"none", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, contact.ClientID(req))
		})
	}
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	contact.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
