// Command issuetoken prints a bearer token for a person, for local testing
// and service-to-service calls.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"staffcalendar/config"
	"staffcalendar/internal/adapters/auth"
)

func main() {
	personID := flag.String("person", "", "person ID to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logger := config.NewLogger()
	if *personID == "" {
		fmt.Fprintln(os.Stderr, "usage: issuetoken -person <id> [-ttl 24h]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}

	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*personID, *ttl)
	if err != nil {
		logger.Error("issue token", "err", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
