package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Endpoints is the subset of an OIDC discovery document this module
// needs to drive an authorization-code flow (spec §4.4e).
type Endpoints struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// Discover fetches an issuer's well-known OIDC configuration document
// (spec §5 "external HTTP call: OIDC discovery").
func Discover(ctx context.Context, httpClient *http.Client, issuer string) (*Endpoints, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Second}
	}
	discoveryURL := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch oidc discovery document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch oidc discovery document: unexpected status %d", resp.StatusCode)
	}

	var ep Endpoints
	if err := json.NewDecoder(resp.Body).Decode(&ep); err != nil {
		return nil, fmt.Errorf("decode oidc discovery document: %w", err)
	}
	return &ep, nil
}
