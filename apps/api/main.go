package main

import (
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/internal/config"
	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/auth"
	"github.com/mahaj/chatify/pkg/db"
)

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow all for dev, or specific origin
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	session, err := db.NewSession(cfg.Scylla.Hosts, cfg.Scylla.Keyspace)
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	pub := gateway.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	expiry, err := time.ParseDuration(cfg.Auth.TokenExpiry)
	if err != nil {
		expiry = 24 * time.Hour
	}
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, expiry)

	// One session and one redis client for the whole process; the gateway
	// shares them with the raw handlers.
	gw := gateway.New(session, rdb, pub, tokens, cfg.API.BaseURL)

	// Public endpoints
	http.Handle("/signup", CORSMiddleware(SignupHandler(gw.Identity, tokens)))
	http.Handle("/login", CORSMiddleware(LoginHandler(gw.Identity, tokens)))
	http.Handle("/files", CORSMiddleware(FilesHandler(session)))

	// Protected endpoints
	authed := func(h http.Handler) http.Handler { return CORSMiddleware(AuthMiddleware(tokens, h)) }

	http.Handle("/rooms", authed(RoomsHandler(session, gw.Rooms)))
	// Route: /rooms/{id}, /rooms/{id}/messages, /rooms/{id}/users
	http.Handle("/rooms/", authed(RoomHandler(session, rdb, gw.Rooms)))
	http.Handle("/messages", authed(MessagesHandler(gw.Messages)))
	http.Handle("/status", authed(StatusHandler(session, gw.Statuses)))
	http.Handle("/upload", authed(UploadHandler(gw.Blobs)))

	log.Printf("API Service Starting on %s...", cfg.API.Addr)
	if err := http.ListenAndServe(cfg.API.Addr, nil); err != nil {
		log.Fatal(err)
	}
}
