package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/db"
	"github.com/mahaj/chatify/pkg/model"
)

type CreateRoomRequest struct {
	Name string `json:"name"`
}

// RoomsHandler serves the room directory. GET returns a point-in-time
// listing in name order; live updates come from the websocket service.
// POST enqueues a create through the mutation log and returns 202.
func RoomsHandler(session *db.Session, rooms gateway.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			iter := session.Query(`SELECT id, name, creator_id FROM rooms WHERE bucket = ?`, "rooms").
				WithContext(r.Context()).Iter()

			var listing []model.Room
			var room model.Room
			for iter.Scan(&room.ID, &room.Name, &room.CreatorID) {
				listing = append(listing, room)
			}
			if err := iter.Close(); err != nil {
				log.Printf("Failed to list rooms: %v", err)
				http.Error(w, "Failed to list rooms", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(listing)

		case http.MethodPost:
			claims, ok := callerClaims(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var req CreateRoomRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if err := model.ValidateRoomName(req.Name); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			room := model.Room{Name: strings.TrimSpace(req.Name), CreatorID: claims.UserID}
			if err := rooms.Create(r.Context(), room); err != nil {
				log.Printf("Failed to enqueue room create: %v", err)
				http.Error(w, "Failed to create room", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusAccepted)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// RoomHandler routes the sub-resources of one room:
//
//	DELETE /rooms/{id}           cascade delete, creator only
//	GET    /rooms/{id}/messages  message history in send order
//	GET    /rooms/{id}/users     user IDs currently viewing the room
func RoomHandler(session *db.Session, rdb *redis.Client, rooms gateway.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 2 || parts[0] != "rooms" || parts[1] == "" {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		roomID := parts[1]

		switch {
		case len(parts) == 2 && r.Method == http.MethodDelete:
			deleteRoom(w, r, rooms, roomID)
		case len(parts) == 3 && parts[2] == "messages" && r.Method == http.MethodGet:
			roomMessages(w, r, session, roomID)
		case len(parts) == 3 && parts[2] == "users" && r.Method == http.MethodGet:
			roomUsers(w, r, rdb, roomID)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	}
}

func deleteRoom(w http.ResponseWriter, r *http.Request, rooms gateway.RoomStore, roomID string) {
	claims, ok := callerClaims(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := rooms.DeleteCascade(r.Context(), roomID, claims.UserID)
	if err != nil {
		var authErr *gateway.AuthorizationError
		var notFound *gateway.NotFoundError
		switch {
		case errors.As(err, &authErr):
			http.Error(w, "Only the creator can delete a room", http.StatusForbidden)
		case errors.As(err, &notFound):
			http.Error(w, "Room not found", http.StatusNotFound)
		default:
			log.Printf("Failed to delete room %s: %v", roomID, err)
			http.Error(w, "Failed to delete room", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func roomMessages(w http.ResponseWriter, r *http.Request, session *db.Session, roomID string) {
	iter := session.Query(`SELECT id, room_id, sender_id, user_name, user_avatar, content, file_url, file_name, file_type, timestamp
		FROM messages WHERE room_id = ?`, roomID).WithContext(r.Context()).Iter()

	var messages []model.Message
	var m model.Message
	var ts time.Time
	for iter.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.UserName, &m.UserAvatar,
		&m.Content, &m.FileURL, &m.FileName, &m.FileType, &ts) {
		m.Timestamp = ts
		messages = append(messages, m)
	}
	if err := iter.Close(); err != nil {
		log.Printf("Failed to iterate messages for room %s: %v", roomID, err)
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func roomUsers(w http.ResponseWriter, r *http.Request, rdb *redis.Client, roomID string) {
	users, err := rdb.SMembers(context.Background(), "room:"+roomID+":users").Result()
	if err != nil {
		log.Printf("Failed to fetch presence for room %s: %v", roomID, err)
		http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
