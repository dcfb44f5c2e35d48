package oidc

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/dataharvester/dataharvester/backend/go-services/pkg/middleware"
)

// Verifier validates Keycloak-issued ID tokens for the admin API.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// IssuerURL builds the Keycloak issuer for realm. With an empty realm the
// base URL is assumed to already point at the realm.
func IssuerURL(base, realm string) string {
	base = strings.TrimRight(base, "/")
	if realm == "" {
		return base
	}
	return base + "/realms/" + realm
}

// NewVerifier discovers the provider at issuer and returns a verifier for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	if issuer == "" || clientID == "" {
		return nil, fmt.Errorf("oidc: issuer and client id are required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
