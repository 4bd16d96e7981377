package plugins

import (
	"time"

	"github.com/peakobs/nightq/auth"
	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/connectors"
	"github.com/peakobs/nightq/connectors/clients/skycalc"
	connfactory "github.com/peakobs/nightq/connectors/factory"
	"github.com/peakobs/nightq/core/factory"
	"github.com/peakobs/nightq/core/sched/passlog"
	"github.com/peakobs/nightq/core/visibility"
	"github.com/peakobs/nightq/infra/ephem"
)

func init() {
	RegisterOracle("horizon", func(name string, conf map[string]any) (visibility.Oracle, error) {
		var ec ephem.Config
		if err := factory.Decode(conf, &ec); err != nil {
			return nil, err
		}
		return ephem.New(ec), nil
	})
	RegisterOracle("skycalc", func(name string, conf map[string]any) (visibility.Oracle, error) {
		var sc struct {
			BaseURL        string     `json:"base_url"`
			TimeoutSeconds int        `json:"timeout_seconds"`
			Auth           *auth.Conf `json:"auth"`
		}
		if err := factory.Decode(conf, &sc); err != nil {
			return nil, err
		}
		var opts []connectors.Option
		if sc.TimeoutSeconds > 0 {
			opts = append(opts, skycalc.WithTimeout(time.Duration(sc.TimeoutSeconds)*time.Second))
		}
		if sc.Auth != nil {
			opts = append(opts, skycalc.WithAuth(auth.NewClientCred(*sc.Auth)))
		}
		return connfactory.NewEphemService(connfactory.IDSkycalc, sc.BaseURL, opts...)
	})
	RegisterOracle("mock", func(name string, _ map[string]any) (visibility.Oracle, error) {
		return &visibility.MockOracle{Default: visibility.Result{OK: true}}, nil
	})

	RegisterLogStore("jsonl", func(name string, lc config.PassLogConfig) (passlog.Store, error) {
		if lc.MaxSizeMB > 0 {
			return passlog.NewRotatingJSONLStore(lc.Path, lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays)
		}
		return passlog.NewJSONLStore(lc.Path)
	})
	RegisterLogStore("sqlite", func(name string, lc config.PassLogConfig) (passlog.Store, error) {
		return passlog.NewSQLiteStore(lc.Path)
	})
}
