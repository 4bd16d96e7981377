package skycalc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/peakobs/nightq/auth"
	"github.com/peakobs/nightq/connectors"
)

// WithTimeout bounds every request to the service.
func WithTimeout(d time.Duration) connectors.Option {
	return func(c connectors.EphemService) error {
		if s, ok := c.(*Client); ok {
			s.http.Timeout = d
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "WithTimeout", "skycalc")
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) connectors.Option {
	return func(c connectors.EphemService) error {
		if s, ok := c.(*Client); ok {
			s.http = hc
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "WithHTTPClient", "skycalc")
	}
}

// WithAuth authenticates every request through the OAuth2 client-credentials
// flow, for deployments where the service sits behind an identity provider.
func WithAuth(cred *auth.ClientCred) connectors.Option {
	return func(c connectors.EphemService) error {
		if s, ok := c.(*Client); ok {
			s.cred = cred
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "WithAuth", "skycalc")
	}
}
