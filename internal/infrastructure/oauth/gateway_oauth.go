package oauth

import (
	"context"
	"net/http"
	"time"

	"hotel-booking-client/pkg/logger"

	"golang.org/x/oauth2/clientcredentials"
)

// GatewayOAuth authenticates gateway calls with the client credentials grant
type GatewayOAuth struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewGatewayOAuth creates an OAuth handler. With an empty client id or token
// url the gateway is called without credentials.
func NewGatewayOAuth(clientID, clientSecret, tokenURL string, scopes []string, logger logger.Logger) *GatewayOAuth {
	if clientID == "" || tokenURL == "" {
		return &GatewayOAuth{logger: logger}
	}

	return &GatewayOAuth{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
		logger: logger,
	}
}

// Enabled reports whether credentials are configured
func (o *GatewayOAuth) Enabled() bool {
	return o.config != nil
}

// HTTPClient returns the client used for gateway requests
func (o *GatewayOAuth) HTTPClient(ctx context.Context, timeout time.Duration) *http.Client {
	if !o.Enabled() {
		return &http.Client{Timeout: timeout}
	}

	o.logger.Info("Using OAuth2 client credentials for gateway", "tokenUrl", o.config.TokenURL, "clientId", o.config.ClientID)
	client := o.config.Client(ctx)
	client.Timeout = timeout
	return client
}
