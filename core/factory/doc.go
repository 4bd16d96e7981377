// Package factory provides a small generic registry used to instantiate
// pluggable modules from configuration. A module is named by a type string
// and carries a map of raw settings; factories decode the settings into typed
// structs and return the concrete implementation. The service uses one
// registry per extension point: visibility oracles, schedule notifiers,
// metric sinks and pass log stores.
//
// Example usage:
//
//	reg := factory.NewRegistry[visibility.Oracle]()
//	reg.Register("horizon", func(conf map[string]any) (visibility.Oracle, error) {
//	    var c struct {
//	        Latitude  float64 `json:"latitude_deg"`
//	        Longitude float64 `json:"longitude_deg"`
//	    }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return ephem.NewHorizonOracle(c.Latitude, c.Longitude), nil
//	})
//	o, err := reg.Create(factory.ModuleConfig{
//	    Type: "horizon",
//	    Conf: map[string]any{"latitude_deg": 19.8, "longitude_deg": -155.5},
//	})
package factory
