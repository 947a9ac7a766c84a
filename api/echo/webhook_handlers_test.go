package echo

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookLiveness(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/webhook", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Webhook endpoint is active"}`, rec.Body.String())
}

func TestWebhook_EndToEndExampleScenario(t *testing.T) {
	env := newAPIEnv(t)

	body := `{"messageType":"example","data":{"id":"123","name":"Test"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"message": "Example webhook processed successfully",
		"data": {"processedId": "123", "processedName": "Test"}
	}`, rec.Body.String())
}

func TestWebhook_UnregisteredTag(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{"messageType":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"No handler registered for messageType: nope"}`, rec.Body.String())
}

func TestWebhook_MissingTagIs400(t *testing.T) {
	env := newAPIEnv(t)

	for _, body := range []string{`{}`, `{"data":{"id":"1"}}`, `{"messageType":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	}
}

func TestWebhook_MalformedJSONIs400(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
