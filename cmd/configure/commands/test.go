package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/benvon/quizmify/internal/services/oidc"
	"github.com/spf13/cobra"
)

const googleDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var discoveryURL string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test Google sign-in endpoints",
		Long:  "Check that Google's discovery document matches the endpoints the server uses and that its signing keys can be fetched",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := &http.Client{Timeout: 10 * time.Second}

			fmt.Printf("Testing discovery endpoint: %s\n", discoveryURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
			if err != nil {
				return fmt.Errorf("failed to build discovery request: %w", err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to reach discovery endpoint: %w", err)
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
				}
			}()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("discovery endpoint returned status: %d", resp.StatusCode)
			}

			var doc discoveryDocument
			if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
				return fmt.Errorf("failed to decode discovery document: %w", err)
			}
			fmt.Println("✓ Discovery endpoint is accessible")

			if !slices.Contains(oidc.GoogleIssuers, doc.Issuer) {
				return fmt.Errorf("issuer %q is not one of the accepted issuers %v", doc.Issuer, oidc.GoogleIssuers)
			}
			fmt.Printf("✓ Issuer %s is accepted\n", doc.Issuer)

			if doc.JWKSURI != oidc.GoogleJWKSURL {
				fmt.Printf("! JWKS URL %s differs from the configured %s\n", doc.JWKSURI, oidc.GoogleJWKSURL)
			}

			fmt.Printf("\nTesting JWKS endpoint: %s\n", doc.JWKSURI)
			keys, err := oidc.NewJWKSManager(client).GetJWKS(ctx, doc.JWKSURI)
			if err != nil {
				return fmt.Errorf("failed to fetch signing keys: %w", err)
			}
			if keys.Len() == 0 {
				return fmt.Errorf("JWKS endpoint returned no keys")
			}
			fmt.Printf("✓ JWKS endpoint returned %d keys\n", keys.Len())

			fmt.Println("\n✓ Google sign-in endpoints test passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&discoveryURL, "discovery-url", googleDiscoveryURL, "OpenID discovery document to check")

	return cmd
}
