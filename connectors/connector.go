// Package connectors hosts clients for the external services the queue
// depends on. Today that is the remote ephemeris provider; each client
// lives under clients/ and is constructed through the factory package.
package connectors

import (
	"context"

	"github.com/peakobs/nightq/core/visibility"
)

// EphemService is a remote visibility provider. It answers the core oracle
// contract and exposes a health probe run at service startup.
type EphemService interface {
	visibility.Oracle
	Health(ctx context.Context) error
}

// Option configures a client at construction time.
type Option func(EphemService) error

// ErrIncompatibleOption is the format used when an option is applied to a
// client type it does not know.
const ErrIncompatibleOption = "option %s does not apply to client %s"
