// Package main provides a CLI for generating wallet-bound bearer tokens for
// local development. Tokens are signed with JWT_SIGNING_KEY, or the dev
// default when it is unset, and will not validate against a production key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"dhruva/internal/platform/config"
	"dhruva/internal/platform/jwt"
	"dhruva/pkg/domain"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	walletCmd := flag.NewFlagSet("wallet", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)

	subject := walletCmd.String("subject", "", "Token subject (account ID). Generated if empty.")
	wallet := walletCmd.String("wallet", "", "Wallet address the token is bound to (required)")
	role := walletCmd.String("role", "", "Role claim: individual, organization or admin")
	ttl := walletCmd.Duration("ttl", 15*time.Minute, "Token time-to-live")
	walletJSON := walletCmd.Bool("json", false, "Output as JSON")

	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "wallet":
		_ = walletCmd.Parse(os.Args[2:])
		generateWalletToken(cfg.JWTSigningKey, *subject, *wallet, *role, *ttl, *walletJSON)
	case "admin":
		_ = adminCmd.Parse(os.Args[2:])
		showAdminToken(cfg.AdminToken, *adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate development tokens for dhruva

Usage:
  tokengen <command> [flags]

Commands:
  wallet    Generate a bearer token bound to a wallet address
  admin     Show the admin API token

Examples:
  tokengen wallet -wallet 0x00000000000000000000000000000000000000aa -role organization
  tokengen wallet -wallet 0x...aa -ttl 1h -json
  tokengen admin`)
}

func generateWalletToken(signingKey, subject, wallet, role string, ttl time.Duration, jsonOutput bool) {
	if wallet == "" {
		fmt.Fprintln(os.Stderr, "-wallet is required")
		os.Exit(1)
	}
	if subject == "" {
		subject = uuid.NewString()
	}

	token, err := jwt.NewService(signingKey, ttl).Issue(context.Background(), subject, wallet, role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "bearer",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub":    subject,
				"wallet": domain.CanonicalAddress(wallet),
				"role":   role,
			},
			Usage: map[string]string{"header": "Authorization: Bearer <token>"},
		})
		return
	}
	fmt.Println("Bearer Token")
	fmt.Println("============")
	fmt.Printf("Subject:    %s\n", subject)
	fmt.Printf("Wallet:     %s\n", domain.CanonicalAddress(wallet))
	if role != "" {
		fmt.Printf("Role:       %s\n", role)
	}
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println(token)
}

func showAdminToken(token string, jsonOutput bool) {
	if jsonOutput {
		printJSON(tokenOutput{
			Token: token,
			Type:  "admin_token",
			Usage: map[string]string{"header": "X-Admin-Token: " + token},
		})
		return
	}
	fmt.Println("Admin API Token")
	fmt.Println("===============")
	fmt.Printf("Token: %s\n", token)
	fmt.Println()
	fmt.Println("  curl -H \"X-Admin-Token: " + token + "\" http://localhost:8080/admin/org-requests")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
