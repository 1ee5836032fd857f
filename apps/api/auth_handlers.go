package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/auth"
	"github.com/mahaj/chatify/pkg/model"
)

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func SignupHandler(identity gateway.Identity, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" || req.DisplayName == "" {
			http.Error(w, "email, password and display_name are required", http.StatusBadRequest)
			return
		}

		user, err := identity.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			if errors.Is(err, gateway.ErrEmailTaken) {
				http.Error(w, "Email already registered", http.StatusConflict)
				return
			}
			log.Printf("Signup failed for %s: %v", req.Email, err)
			http.Error(w, "Signup failed", http.StatusInternalServerError)
			return
		}

		writeSession(w, tokens, user)
	}
}

func LoginHandler(identity gateway.Identity, tokens *auth.Tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, err := identity.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, gateway.ErrInvalidCredentials) {
				http.Error(w, "Invalid email or password", http.StatusUnauthorized)
				return
			}
			log.Printf("Login failed for %s: %v", req.Email, err)
			http.Error(w, "Login failed", http.StatusInternalServerError)
			return
		}

		writeSession(w, tokens, user)
	}
}

func writeSession(w http.ResponseWriter, tokens *auth.Tokens, user *model.User) {
	token, err := tokens.Generate(user.ID, user.Name)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SessionResponse{Token: token, User: user})
}

func AuthMiddleware(tokens *auth.Tokens, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), auth.UserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerClaims pulls the authenticated claims set by AuthMiddleware.
func callerClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(auth.UserKey).(*auth.Claims)
	return claims, ok
}
