package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotel-booking-client/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayOAuthDisabled(t *testing.T) {
	o := NewGatewayOAuth("", "", "", nil, logger.NewNopLogger())
	assert.False(t, o.Enabled())

	client := o.HTTPClient(context.Background(), 3*time.Second)
	assert.Equal(t, 3*time.Second, client.Timeout)
}

func TestGatewayOAuthAddsBearerToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token-123","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	o := NewGatewayOAuth("booking-client", "secret", tokenServer.URL, nil, logger.NewNopLogger())
	require.True(t, o.Enabled())

	client := o.HTTPClient(context.Background(), 5*time.Second)
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer token-123", gotAuth)
}
