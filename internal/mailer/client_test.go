package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiac/backend/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.Config{
		MailAPIURL: serverURL,
		MailAPIKey: "test-key",
	})
}

func TestProvisionDomain(t *testing.T) {
	var gotAuth, gotDomain string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/domains", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotDomain = body["domain"]

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.ProvisionDomain(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "example.com", gotDomain)
}

func TestProvisionDomainConflictIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	// A redelivered message hits an already-created domain
	err := newTestClient(server.URL).ProvisionDomain(context.Background(), "example.com")
	require.NoError(t, err)
}

func TestProvisionDomainServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "upstream mail cluster unavailable",
		})
	}))
	defer server.Close()

	err := newTestClient(server.URL).ProvisionDomain(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream mail cluster unavailable")
}

func TestProvisionDomainUnreachable(t *testing.T) {
	err := newTestClient("http://127.0.0.1:1").ProvisionDomain(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail API unreachable")
}
