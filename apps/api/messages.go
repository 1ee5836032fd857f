package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

type SendMessageRequest struct {
	RoomID   string `json:"room_id"`
	Content  string `json:"content"`
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

// MessagesHandler accepts sends and deletes. Both are fire-and-forget:
// the mutation is enqueued, the sync worker applies it, and the change
// shows up through the room's live subscription. POST and DELETE return
// 202 on enqueue (DELETE pre-checks ownership synchronously).
func MessagesHandler(messages gateway.MessageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := callerClaims(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if req.RoomID == "" {
				http.Error(w, "room_id is required", http.StatusBadRequest)
				return
			}

			var att *model.Attachment
			if req.FileURL != "" {
				att = &model.Attachment{URL: req.FileURL, Name: req.FileName, Type: req.FileType}
			}
			if err := model.ValidateMessage(req.Content, att); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			msg := model.Message{
				RoomID:     req.RoomID,
				Content:    req.Content,
				SenderID:   claims.UserID,
				UserName:   claims.DisplayName,
				UserAvatar: "https://i.pravatar.cc/150?u=" + claims.UserID,
				FileURL:    req.FileURL,
				FileName:   req.FileName,
				FileType:   req.FileType,
			}
			if err := messages.Send(r.Context(), msg); err != nil {
				log.Printf("Failed to enqueue message: %v", err)
				http.Error(w, "Failed to send message", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusAccepted)

		case http.MethodDelete:
			roomID := r.URL.Query().Get("room_id")
			idStr := r.URL.Query().Get("id")
			id, err := strconv.ParseInt(idStr, 10, 64)
			if roomID == "" || err != nil {
				http.Error(w, "room_id and id are required", http.StatusBadRequest)
				return
			}

			err = messages.Delete(r.Context(), roomID, id, claims.UserID)
			if err != nil {
				var authErr *gateway.AuthorizationError
				var notFound *gateway.NotFoundError
				switch {
				case errors.As(err, &authErr):
					http.Error(w, "Only the sender can delete a message", http.StatusForbidden)
				case errors.As(err, &notFound):
					http.Error(w, "Message not found", http.StatusNotFound)
				default:
					log.Printf("Failed to delete message %d: %v", id, err)
					http.Error(w, "Failed to delete message", http.StatusInternalServerError)
				}
				return
			}
			w.WriteHeader(http.StatusAccepted)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
