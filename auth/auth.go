// Package auth obtains service tokens through the OAuth2 client-credentials
// flow for the institutional APIs the connectors talk to.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred caches a client-credentials token and refreshes it on expiry.
// It is safe for concurrent use.
type ClientCred struct {
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCred builds a credential source from the connector configuration.
func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// Token returns a valid access token, requesting a fresh one when the cached
// token is missing or expired.
func (c *ClientCred) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(ctx, false); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// ForceRefresh discards the cached token and requests a new one, e.g. after
// the remote end rejected a token it considers revoked.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(ctx, true); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// SetAuthHeader stamps the request with a bearer token, fetching or
// refreshing one first when needed. The request's context bounds the fetch.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(r.Context(), false); err != nil {
		return err
	}
	c.token.SetAuthHeader(r)
	return nil
}

func (c *ClientCred) refreshLocked(ctx context.Context, force bool) error {
	if !force && c.token != nil && c.token.Valid() {
		return nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetch token: %w", err)
	}
	c.token = tok
	return nil
}
