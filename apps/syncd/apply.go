package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/db"
	"github.com/mahaj/chatify/pkg/model"
	"github.com/mahaj/chatify/pkg/snowflake"
)

const (
	roomBucket   = "rooms"
	statusBucket = "status"
)

// Applier turns log mutations into Scylla writes. IDs and timestamps are
// assigned here, at apply time: that is what makes message order
// server-assigned and monotonic per room regardless of sender clocks.
type Applier struct {
	db  *db.Session
	rdb *redis.Client
	ids *snowflake.Node
}

func (a *Applier) Apply(ctx context.Context, mut *gateway.Mutation) error {
	switch mut.Kind {
	case gateway.MutCreateRoom:
		return a.createRoom(ctx, mut)
	case gateway.MutSendMessage:
		return a.sendMessage(ctx, mut)
	case gateway.MutDeleteMessage:
		return a.deleteMessage(ctx, mut)
	case gateway.MutCreateStatus:
		return a.createStatus(ctx, mut)
	default:
		return fmt.Errorf("unknown mutation kind %q", mut.Kind)
	}
}

func (a *Applier) createRoom(ctx context.Context, mut *gateway.Mutation) error {
	room := mut.Room
	if room == nil {
		return fmt.Errorf("create_room without a room")
	}
	if err := model.ValidateRoomName(room.Name); err != nil {
		return err
	}

	id := gocql.TimeUUID().String()
	if err := a.db.Query(`INSERT INTO rooms (bucket, name, id, creator_id) VALUES (?, ?, ?, ?)`,
		roomBucket, room.Name, id, room.CreatorID).WithContext(ctx).Exec(); err != nil {
		return err
	}
	if err := a.db.Query(`INSERT INTO rooms_by_id (id, name, creator_id) VALUES (?, ?, ?)`,
		id, room.Name, room.CreatorID).WithContext(ctx).Exec(); err != nil {
		return err
	}

	a.invalidate(ctx, gateway.InvRooms, gateway.InvRoom(id))
	return nil
}

func (a *Applier) sendMessage(ctx context.Context, mut *gateway.Mutation) error {
	msg := mut.Message
	if msg == nil {
		return fmt.Errorf("send_message without a message")
	}
	att := &model.Attachment{URL: msg.FileURL, Name: msg.FileName, Type: msg.FileType}
	if err := model.ValidateMessage(msg.Content, att); err != nil {
		return err
	}

	// Room must still exist; a message racing a cascade delete is dropped.
	var creatorID string
	err := a.db.Query(`SELECT creator_id FROM rooms_by_id WHERE id = ?`, msg.RoomID).
		WithContext(ctx).Scan(&creatorID)
	if err == gocql.ErrNotFound {
		log.Printf("Dropping message for deleted room %s", msg.RoomID)
		return nil
	}
	if err != nil {
		return err
	}

	id := a.ids.Generate()
	ts := snowflake.Time(id)

	err = a.db.Query(`INSERT INTO messages (room_id, id, sender_id, user_name, user_avatar,
		content, file_url, file_name, file_type, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.RoomID, id, msg.SenderID, msg.UserName, msg.UserAvatar,
		msg.Content, msg.FileURL, msg.FileName, msg.FileType, ts).WithContext(ctx).Exec()
	if err != nil {
		return err
	}

	a.invalidate(ctx, gateway.InvMessages(msg.RoomID))
	return nil
}

func (a *Applier) deleteMessage(ctx context.Context, mut *gateway.Mutation) error {
	// The store pre-checked ownership, but the log is replayable and the
	// applier is the authority: re-check before destroying anything.
	var senderID string
	err := a.db.Query(`SELECT sender_id FROM messages WHERE room_id = ? AND id = ?`,
		mut.RoomID, mut.MessageID).WithContext(ctx).Scan(&senderID)
	if err == gocql.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if senderID != mut.Actor {
		return &gateway.AuthorizationError{Op: "delete message", Actor: mut.Actor}
	}

	err = a.db.Query(`DELETE FROM messages WHERE room_id = ? AND id = ?`,
		mut.RoomID, mut.MessageID).WithContext(ctx).Exec()
	if err != nil {
		return err
	}

	a.invalidate(ctx, gateway.InvMessages(mut.RoomID))
	return nil
}

func (a *Applier) createStatus(ctx context.Context, mut *gateway.Mutation) error {
	post := mut.Status
	if post == nil {
		return fmt.Errorf("create_status without a post")
	}
	if err := model.ValidateStatus(post.Text, post.ImageURL); err != nil {
		return err
	}

	id := a.ids.Generate()
	createdAt := snowflake.Time(id)
	expiresAt := createdAt.Add(model.StatusWindow)

	err := a.db.Query(`INSERT INTO status_posts (bucket, id, user_id, user_name, user_avatar,
		text_content, image_url, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		statusBucket, id, post.UserID, post.UserName, post.UserAvatar,
		post.Text, post.ImageURL, createdAt, expiresAt).WithContext(ctx).Exec()
	if err != nil {
		return err
	}

	a.invalidate(ctx, gateway.InvStatus)
	return nil
}

func (a *Applier) invalidate(ctx context.Context, channels ...string) {
	for _, ch := range channels {
		if err := a.rdb.Publish(ctx, ch, "1").Err(); err != nil {
			log.Printf("Failed to publish invalidation %s: %v", ch, err)
		}
	}
}
