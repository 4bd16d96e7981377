package config

// APIConfig exposes the operator HTTP surface: weight edits, the latest
// schedule export and pass log queries.
type APIConfig struct {
	// Enabled turns the HTTP server on.
	Enabled bool `json:"enabled"`
	// Addr is the listen address, host optional.
	Addr string `json:"addr"`
	// Token, when non-empty, is required as "Bearer <token>" on every
	// request.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
