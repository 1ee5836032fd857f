package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/db"
	"github.com/mahaj/chatify/pkg/model"
	"github.com/mahaj/chatify/pkg/snowflake"
)

type CreateStatusRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

// StatusHandler serves the ephemeral status feed. GET returns the posts
// still inside the visibility window, newest first. POST enqueues a new
// post; the sync worker stamps the authoritative timestamps.
func StatusHandler(session *db.Session, statuses gateway.StatusStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := callerClaims(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			lowest := snowflake.Lowest(time.Now().Add(-model.StatusWindow))
			iter := session.Query(`SELECT id, user_id, user_name, user_avatar, text_content, image_url, created_at, expires_at
				FROM status_posts WHERE bucket = ? AND id >= ?`, "status", lowest).
				WithContext(r.Context()).Iter()

			var posts []model.StatusPost
			var p model.StatusPost
			for iter.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserAvatar,
				&p.Text, &p.ImageURL, &p.CreatedAt, &p.ExpiresAt) {
				posts = append(posts, p)
			}
			if err := iter.Close(); err != nil {
				log.Printf("Failed to iterate status posts: %v", err)
				http.Error(w, "Failed to retrieve statuses", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(posts)

		case http.MethodPost:
			var req CreateStatusRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if err := model.ValidateStatus(req.Text, req.ImageURL); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			post := model.StatusPost{
				UserID:     claims.UserID,
				UserName:   claims.DisplayName,
				UserAvatar: "https://i.pravatar.cc/150?u=" + claims.UserID,
				Text:       req.Text,
				ImageURL:   req.ImageURL,
			}
			if err := statuses.Create(r.Context(), post); err != nil {
				log.Printf("Failed to enqueue status post: %v", err)
				http.Error(w, "Failed to post status", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusAccepted)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
