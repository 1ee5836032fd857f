// Package gateway is the boundary to the remote data plane: identity,
// per-collection document stores with live snapshot subscriptions, and the
// blob store. View models depend only on the interfaces here; the concrete
// implementation runs on ScyllaDB for documents, Kafka for the
// fire-and-forget mutation log and Redis pub/sub for change notification.
package gateway

import (
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/internal/config"
	"github.com/mahaj/chatify/pkg/auth"
	"github.com/mahaj/chatify/pkg/db"
	"github.com/mahaj/chatify/pkg/model"
)

// Identity is the authenticated-user surface. CurrentUser returns nil when
// nobody is signed in.
type Identity interface {
	CurrentUser() *model.User
	SignIn(ctx context.Context, email, password string) (*model.User, error)
	SignUp(ctx context.Context, email, password, displayName string) (*model.User, error)
	SignOut()
}

// RoomStore serves the room directory. Create is fire-and-forget through
// the mutation log; the new room becomes visible through the Rooms
// subscription. DeleteCascade is synchronous and atomic: the room and all
// its messages go in one batch or not at all.
type RoomStore interface {
	Rooms(ctx context.Context) (*Subscription[[]model.Room], error)
	Room(ctx context.Context, roomID string) (*Subscription[*model.Room], error)
	Create(ctx context.Context, room model.Room) error
	DeleteCascade(ctx context.Context, roomID, actorID string) error
}

// MessageStore serves one room's message sequence, ascending by
// server-assigned send order. Send and Delete are fire-and-forget.
type MessageStore interface {
	Messages(ctx context.Context, roomID string) (*Subscription[[]model.Message], error)
	Send(ctx context.Context, msg model.Message) error
	Delete(ctx context.Context, roomID string, messageID int64, actorID string) error
}

// StatusStore serves the ephemeral status feed. Active filters on the
// cutoff passed by the caller; the caller decides when the trailing window
// boundary is computed.
type StatusStore interface {
	Active(ctx context.Context, since time.Time) (*Subscription[[]model.StatusPost], error)
	Create(ctx context.Context, post model.StatusPost) error
}

// BlobStore holds uploaded attachments. Upload streams r in chunks,
// reporting progress as a percentage in [0,100], and returns the durable
// download URL only once every byte landed.
type BlobStore interface {
	Upload(ctx context.Context, path, name, contentType string, r io.Reader, size int64, progress func(pct float64)) (string, error)
	DownloadURL(path string) string
}

// Gateway bundles the capability set handed to view models at
// construction. There is no ambient global; whoever builds the views
// threads this through explicitly.
type Gateway struct {
	Identity Identity
	Rooms    RoomStore
	Messages MessageStore
	Statuses StatusStore
	Blobs    BlobStore
}

// New wires a Gateway over backend handles the caller already owns. A
// process that also needs the session or redis client for its own queries
// builds them once and passes them here instead of connecting twice.
func New(session *db.Session, rdb *redis.Client, pub *Publisher, tokens *auth.Tokens, baseURL string) *Gateway {
	core := &stores{db: session, rdb: rdb, pub: pub, baseURL: baseURL}

	return &Gateway{
		Identity: NewIdentityService(session, tokens),
		Rooms:    &roomStore{core},
		Messages: &messageStore{core},
		Statuses: &statusStore{core},
		Blobs:    &blobStore{core},
	}
}

// Connect builds the backends named in cfg and wires a Gateway over them.
func Connect(cfg *config.Config) (*Gateway, error) {
	session, err := db.NewSession(cfg.Scylla.Hosts, cfg.Scylla.Keyspace)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	pub := NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	expiry, err := time.ParseDuration(cfg.Auth.TokenExpiry)
	if err != nil {
		expiry = 24 * time.Hour
	}
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, expiry)

	return New(session, rdb, pub, tokens, cfg.API.BaseURL), nil
}
