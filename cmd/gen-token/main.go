// Command gen-token prints a session token for local testing of the
// household pages without the external auth service.
//
//	go run ./cmd/gen-token -sub 6f1c... -ttl 2h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-household-go/internal/session"
)

func main() {
	_ = godotenv.Load()

	var (
		sub   = flag.String("sub", "", "user id (uuid); a random one is generated when empty")
		email = flag.String("email", "", "email claim")
		ttl   = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	cfg := session.ConfigFromEnv()
	if cfg.Secret == "" {
		log.Fatal(session.ErrMissingSecret)
	}

	userID := *sub
	if userID == "" {
		userID = uuid.NewString()
	} else if _, err := uuid.Parse(userID); err != nil {
		log.Fatalf("sub must be a uuid: %v", err)
	}

	now := time.Now()
	claims := session.Claims{
		Email: *email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}
	tok, err := session.Sign(cfg.Secret, claims)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "sub=%s\n", userID)
	fmt.Print(tok)
}
