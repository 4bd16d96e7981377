package factory

import (
	"fmt"

	"github.com/peakobs/nightq/connectors"
	"github.com/peakobs/nightq/connectors/clients/skycalc"
)

const (
	IDSkycalc = "skycalc"
)

var (
	errUnknownClient = "unknown connector id: %s"
)

// NewEphemService builds the remote ephemeris client identified by id.
func NewEphemService(id, baseURL string, opts ...connectors.Option) (connectors.EphemService, error) {
	switch id {
	case IDSkycalc:
		return skycalc.New(baseURL, opts...)
	default:
		return nil, fmt.Errorf(errUnknownClient, id)
	}
}
