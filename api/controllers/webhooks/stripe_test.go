package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

const testSigningSecret = "whsec_test_secret"

type fakeWebhookService struct {
	events []*stripe.Event
	err    error
}

func (f *fakeWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeGuard struct {
	duplicate bool
	err       error
	calls     int
}

func (f *fakeGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	f.calls++
	return f.duplicate, f.err
}

type fakeStripeClient struct{}

func (f *fakeStripeClient) SigningSecret() string { return testSigningSecret }

func eventPayload(t *testing.T) []byte {
	t.Helper()
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": %q,
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123"}}
	}`, stripe.APIVersion))
}

func signHeader(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, handler http.HandlerFunc, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeAck(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	var body struct {
		Data struct {
			Received bool `json:"received"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data.Received
}

func TestStripeWebhook_ValidSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	guard := &fakeGuard{}
	handler := StripeWebhook(svc, &fakeStripeClient{}, guard, nil)

	payload := eventPayload(t)
	rec := postWebhook(t, handler, payload, signHeader(payload, testSigningSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeAck(t, rec))
	require.Len(t, svc.events, 1)
	assert.Equal(t, "evt_test_1", svc.events[0].ID)
	assert.Equal(t, 1, guard.calls)
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	handler := StripeWebhook(svc, &fakeStripeClient{}, &fakeGuard{}, nil)

	rec := postWebhook(t, handler, eventPayload(t), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.events)
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	svc := &fakeWebhookService{}
	handler := StripeWebhook(svc, &fakeStripeClient{}, &fakeGuard{}, nil)

	payload := eventPayload(t)
	rec := postWebhook(t, handler, payload, signHeader(payload, "whsec_wrong_secret", time.Now()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.events)
}

func TestStripeWebhook_StaleTimestampRejected(t *testing.T) {
	svc := &fakeWebhookService{}
	handler := StripeWebhook(svc, &fakeStripeClient{}, &fakeGuard{}, nil)

	payload := eventPayload(t)
	rec := postWebhook(t, handler, payload, signHeader(payload, testSigningSecret, time.Now().Add(-time.Hour)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.events)
}

func TestStripeWebhook_TamperedPayloadRejected(t *testing.T) {
	svc := &fakeWebhookService{}
	handler := StripeWebhook(svc, &fakeStripeClient{}, &fakeGuard{}, nil)

	payload := eventPayload(t)
	signature := signHeader(payload, testSigningSecret, time.Now())
	tampered := bytes.Replace(payload, []byte("pi_123"), []byte("pi_999"), 1)
	rec := postWebhook(t, handler, tampered, signature)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.events)
}

func TestStripeWebhook_DuplicateEventShortCircuits(t *testing.T) {
	svc := &fakeWebhookService{}
	guard := &fakeGuard{duplicate: true}
	handler := StripeWebhook(svc, &fakeStripeClient{}, guard, nil)

	payload := eventPayload(t)
	rec := postWebhook(t, handler, payload, signHeader(payload, testSigningSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeAck(t, rec))
	assert.Empty(t, svc.events, "duplicate deliveries must not reach the service")
}

func TestStripeWebhook_GuardFailureStillProcesses(t *testing.T) {
	svc := &fakeWebhookService{}
	guard := &fakeGuard{err: errors.New("redis down")}
	handler := StripeWebhook(svc, &fakeStripeClient{}, guard, nil)

	payload := eventPayload(t)
	rec := postWebhook(t, handler, payload, signHeader(payload, testSigningSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.events, 1)
}

func TestStripeWebhook_ServiceFailureStillAcks(t *testing.T) {
	svc := &fakeWebhookService{err: errors.New("database unavailable")}
	handler := StripeWebhook(svc, &fakeStripeClient{}, &fakeGuard{}, nil)

	payload := eventPayload(t)
	rec := postWebhook(t, handler, payload, signHeader(payload, testSigningSecret, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeAck(t, rec))
}
