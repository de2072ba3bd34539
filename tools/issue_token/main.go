package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"marketplace-admin/internal/auth"
)

func main() {
	subject := flag.String("subject", "admin@localhost", "token subject")
	role := flag.String("role", string(auth.RoleViewer), "viewer, operator or admin")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	normalized, ok := auth.NormalizeRole(*role)
	if !ok {
		log.Fatalf("invalid role %q", *role)
	}

	token, err := auth.IssueJWT([]byte(secret), *subject, normalized, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
