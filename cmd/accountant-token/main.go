package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC signing secret (default: $JWT_SECRET)")
	userID := flag.String("user", "", "Accountant account ID the token is issued for")
	username := flag.String("username", "accountant", "Username for the token")
	issuer := flag.String("issuer", envOr("JWT_ISSUER", "lending.forgo.software"), "JWT issuer")
	expMins := flag.Int("exp", 60, "Token expiration in minutes")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		flag.Usage()
		os.Exit(2)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         *secret,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nSet JWT_SECRET (at least %d bytes) or pass -secret\n", jwt.MinSecretLength)
		os.Exit(1)
	}

	token, err := jwtService.Sign(jwt.Claims{
		UserID:   *userID,
		Username: *username,
		Role:     string(model.RoleAccountant),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
			"role":         model.RoleAccountant,
		})
		return
	}

	fmt.Println("Accountant Token Generated")
	fmt.Println("==========================")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Username: %s\n", *username)
	fmt.Printf("Expires:  %s\n", time.Now().Add(time.Duration(*expMins)*time.Minute).Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Printf("  curl -H 'Authorization: Bearer %s...' http://localhost:8080/v1/accounts\n", token[:min(len(token), 40)])
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
