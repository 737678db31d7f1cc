package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SMARTConfiguration is served at /.well-known/smart-configuration.
type SMARTConfiguration struct {
	AuthorizationEndpoint    string   `json:"authorization_endpoint"`
	TokenEndpoint            string   `json:"token_endpoint"`
	RevocationEndpoint       string   `json:"revocation_endpoint,omitempty"`
	IntrospectionEndpoint    string   `json:"introspection_endpoint,omitempty"`
	TokenEndpointAuthMethods []string `json:"token_endpoint_auth_methods_supported"`
	GrantTypes               []string `json:"grant_types_supported"`
	Scopes                   []string `json:"scopes_supported"`
	ResponseTypes            []string `json:"response_types_supported"`
	Capabilities             []string `json:"capabilities"`
}

type SMARTEndpoints struct {
	Authorize  string
	Token      string
	Revoke     string
	Introspect string
}

func NewSMARTConfiguration(ep SMARTEndpoints) SMARTConfiguration {
	return SMARTConfiguration{
		AuthorizationEndpoint:    ep.Authorize,
		TokenEndpoint:            ep.Token,
		RevocationEndpoint:       ep.Revoke,
		IntrospectionEndpoint:    ep.Introspect,
		TokenEndpointAuthMethods: []string{"client_secret_basic", "client_secret_post", "private_key_jwt"},
		GrantTypes:               []string{"authorization_code", "client_credentials"},
		Scopes:                   Vocabulary(),
		ResponseTypes:            []string{"code"},
		Capabilities:             []string{"launch-standalone", "client-confidential-symmetric", "permission-user", "permission-offline"},
	}
}

func SMARTConfigurationHandler(cfg SMARTConfiguration) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, cfg)
	}
}
