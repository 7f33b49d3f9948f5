package main

import (
	"log"

	"github.com/rideal/bike-catalog/internal/config"
	"github.com/rideal/bike-catalog/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv := web.NewServer(cfg)
	log.Printf("Server starting on port %s (upstream %s)...", cfg.Server.Port, cfg.Upstream.BaseURL)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
