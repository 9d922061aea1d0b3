package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-crm/internal/config"
	"realty-crm/internal/outcome"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.VoiceConfig{BaseURL: srv.URL + "/", APIKey: "key-1", OrgID: "org-1", Voice: "maya"}, srv.Client())
}

func TestClient_StartCall(t *testing.T) {
	var got StartCallRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/calls", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("authorization"))
		assert.Equal(t, "org-1", r.Header.Get("X-Org-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","call_id":"call-123"}`))
	})

	id, err := c.StartCall(context.Background(), StartCallRequest{PhoneNumber: "+15551234567", Task: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "call-123", id)
	assert.Equal(t, StartCallRequest{PhoneNumber: "+15551234567", Task: "hello", Voice: "maya"}, got)
}

func TestClient_StartCallMissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})
	_, err := c.StartCall(context.Background(), StartCallRequest{PhoneNumber: "+1", Task: "x"})
	assert.ErrorIs(t, err, ErrMissingCallID)
}

func TestClient_StartCallNon2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid phone number"}`))
	})
	_, err := c.StartCall(context.Background(), StartCallRequest{PhoneNumber: "bad", Task: "x"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid phone number")
}

func TestClient_Transcript(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/calls/call-123", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("authorization"))
		_, _ = w.Write([]byte(`{
			"call_id": "call-123",
			"status": "completed",
			"summary": "Booked a viewing.",
			"transcripts": [
				{"user": "assistant", "text": "Would you like to see it?"},
				{"user": "user", "text": "Yes, tomorrow at 3pm works for the viewing"}
			]
		}`))
	})

	tr, err := c.Transcript(context.Background(), "call-123")
	require.NoError(t, err)
	assert.Equal(t, "Booked a viewing.", tr.Summary)
	require.Len(t, tr.Utterances, 2)
	assert.Equal(t, []string{"Yes, tomorrow at 3pm works for the viewing"}, tr.FromContact())
	assert.Equal(t, outcome.Utterance{Speaker: "assistant", Text: "Would you like to see it?"}, tr.Utterances[0])
}

func TestClient_GetCallRequiresID(t *testing.T) {
	c := NewClient(config.VoiceConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := c.GetCall(context.Background(), " ")
	assert.ErrorIs(t, err, ErrMissingCallID)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(config.VoiceConfig{}, nil)
	_, err := c.StartCall(context.Background(), StartCallRequest{PhoneNumber: "+1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
