package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"familytree/internal/auth"
	"familytree/internal/config"
)

// token mints a bearer token signed with JWT_SECRET for local testing
func main() {
	user := flag.String("user", "", "User id to put in the token subject (required)")
	ttl := flag.Duration("ttl", 0, "Token lifetime (default: TOKEN_TTL)")
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user flag is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	if *ttl == 0 {
		*ttl = cfg.TokenTTL
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	token, err := tokens.Issue(*user, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
	log.Printf("Token for %s expires at %s", *user, time.Now().Add(*ttl).Format(time.RFC3339))
}
