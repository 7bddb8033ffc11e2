package main

import (
	"context"
	"log"

	server "github.com/ddanilenko/famledger/internal/server"
	"github.com/ddanilenko/famledger/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	app.Run(context.Background())
}
