package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/gocql/gocql"

	"github.com/mahaj/chatify/pkg/auth"
	"github.com/mahaj/chatify/pkg/db"
	"github.com/mahaj/chatify/pkg/model"
)

// IdentityService stores users in Scylla and keeps the signed-in user for
// this gateway instance. Tokens are issued so the websocket and HTTP
// surfaces can authenticate the same session.
type IdentityService struct {
	db     *db.Session
	tokens *auth.Tokens

	mu      sync.RWMutex
	current *model.User
	token   string
}

func NewIdentityService(session *db.Session, tokens *auth.Tokens) *IdentityService {
	return &IdentityService{db: session, tokens: tokens}
}

func (s *IdentityService) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// Token returns the session token for the signed-in user, or "".
func (s *IdentityService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	var userID string
	err := s.db.Query(`SELECT id FROM users_by_email WHERE email = ?`, email).
		WithContext(ctx).Scan(&userID)
	if err == gocql.ErrNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, &RemoteError{Op: "sign in", Err: err}
	}

	var u model.User
	var hash string
	err = s.db.Query(`SELECT id, name, avatar_url, email, password_hash FROM users WHERE id = ?`, userID).
		WithContext(ctx).Scan(&u.ID, &u.Name, &u.AvatarURL, &u.Email, &hash)
	if err != nil {
		return nil, &RemoteError{Op: "sign in", Err: err}
	}

	if !auth.CheckPassword(hash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.establish(&u)
}

func (s *IdentityService) SignUp(ctx context.Context, email, password, displayName string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, &RemoteError{Op: "sign up", Err: err}
	}

	userID := gocql.TimeUUID().String()

	// Claim the email first; LWT keeps two concurrent signups from
	// sharing an address.
	var prevEmail, prevID string
	applied, err := s.db.Query(`INSERT INTO users_by_email (email, id) VALUES (?, ?) IF NOT EXISTS`, email, userID).
		WithContext(ctx).ScanCAS(&prevEmail, &prevID)
	if err != nil {
		return nil, &RemoteError{Op: "sign up", Err: err}
	}
	if !applied {
		return nil, fmt.Errorf("sign up %s: %w", email, ErrEmailTaken)
	}

	u := model.User{
		ID:        userID,
		Name:      displayName,
		AvatarURL: "https://i.pravatar.cc/150?u=" + userID,
		Email:     email,
	}
	err = s.db.Query(`INSERT INTO users (id, name, avatar_url, email, password_hash) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.AvatarURL, u.Email, hash).WithContext(ctx).Exec()
	if err != nil {
		return nil, &RemoteError{Op: "sign up", Err: err}
	}

	return s.establish(&u)
}

func (s *IdentityService) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.token = ""
}

func (s *IdentityService) establish(u *model.User) (*model.User, error) {
	token, err := s.tokens.Generate(u.ID, u.Name)
	if err != nil {
		return nil, &RemoteError{Op: "issue token", Err: err}
	}

	s.mu.Lock()
	s.current = u
	s.token = token
	s.mu.Unlock()

	out := *u
	return &out, nil
}
