package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf configures the client-credentials flow: the client identity and the
// token endpoint. It is decoded from a connector's auth section.
type Conf struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURL      string `json:"auth_url"`
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
	}
}
