// Command seedadmin creates an administrator account in the configured
// database. It uses the server's configuration sources.
package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/csvbrowser/internal/seedadmin"
	"github.com/dmitrijs2005/csvbrowser/internal/server"
	"github.com/dmitrijs2005/csvbrowser/internal/server/auth"
	"github.com/dmitrijs2005/csvbrowser/internal/server/config"
	"github.com/dmitrijs2005/csvbrowser/internal/server/services"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := server.NewLogger(cfg)

	db, rm, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	tokens, err := auth.NewTokenService([]byte(cfg.SecretKey), cfg.JWTAlgorithm, cfg.AccessTokenValidityDuration)
	if err != nil {
		log.Fatalf("%v", err)
	}

	svc, err := services.NewAuthService(db, rm, auth.NewPasswordHasher(cfg.BcryptCost), tokens, logger.With("module", "seedadmin"))
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := seedadmin.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		log.Printf("%v", err)
		db.Close()
		os.Exit(1)
	}
}
