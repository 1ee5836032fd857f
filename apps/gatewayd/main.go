package main

import (
	"log"
	"net/http"
	"time"

	"github.com/mahaj/chatify/internal/config"
	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/auth"
)

// gatewayd pushes live collection snapshots to browser clients over
// websockets: the room directory, one room's messages, or the status
// feed, depending on the topic the client subscribes to. Mutations go
// through the HTTP API; this service is read-path only.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gw, err := gateway.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect gateway: %v", err)
	}

	expiry, err := time.ParseDuration(cfg.Auth.TokenExpiry)
	if err != nil {
		expiry = 24 * time.Hour
	}
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, expiry)

	hub := NewHub(gw, cfg.Redis.Addr)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, tokens, w, r)
	})

	log.Printf("Gateway Service Starting on %s...", cfg.Gateway.Addr)
	if err := http.ListenAndServe(cfg.Gateway.Addr, nil); err != nil {
		log.Fatal(err)
	}
}
