package endpoint_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/endpoint"
	"github.com/nathasitm/portfolio-backend/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContactRouter(t *testing.T, notifier *util.Notifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, util.InitGeoIP(""))

	// Keep the notifier's IP lookup off the network.
	lookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(lookup.Close)
	util.SetIPLookupURL(lookup.URL + "/%s/json/")

	r := gin.New()
	r.POST("/contact", endpoint.NewContactHandler(notifier).SubmitContact)
	return r
}

func postContact(r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/contact", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validContact() map[string]interface{} {
	return map[string]interface{}{
		"name":    "Bob",
		"email":   "bob@example.com",
		"subject": "Commission inquiry",
		"message": "Hello there",
	}
}

func TestSubmitContactSucceedsWithoutWebhook(t *testing.T) {
	// No webhook configured: the submission must still resolve successfully.
	r := newContactRouter(t, util.NewNotifier("", "UTC"))

	w := postContact(r, validContact())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp util.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestSubmitContactValidation(t *testing.T) {
	r := newContactRouter(t, util.NewNotifier("", "UTC"))

	tests := []struct {
		name  string
		mutty func(m map[string]interface{})
	}{
		{"missing name", func(m map[string]interface{}) { delete(m, "name") }},
		{"missing email", func(m map[string]interface{}) { delete(m, "email") }},
		{"invalid email", func(m map[string]interface{}) { m["email"] = "not-an-email" }},
		{"missing subject", func(m map[string]interface{}) { delete(m, "subject") }},
		{"missing message", func(m map[string]interface{}) { delete(m, "message") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := validContact()
			tc.mutty(body)
			w := postContact(r, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSubmitContactDeliversWebhook(t *testing.T) {
	received := make(chan util.WebhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload util.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			received <- payload
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	r := newContactRouter(t, util.NewNotifier(srv.URL, "UTC"))

	w := postContact(r, validContact())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	select {
	case payload := <-received:
		require.Len(t, payload.Embeds, 1)
		assert.Equal(t, "📩 New Contact Message", payload.Embeds[0].Title)
	case <-time.After(5 * time.Second):
		t.Fatalf("webhook never received the contact report")
	}
}

func TestSubmitContactSurvivesWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	notifier := util.NewNotifier(srv.URL, "UTC")
	srv.Close()

	r := newContactRouter(t, notifier)

	w := postContact(r, validContact())
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
