package main

import (
	"context"
	"log"

	"github.com/ecomkit/g2apay-gateway/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	// Local runs keep the credential in .env, deployments use real
	// environment variables.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
