package gateway

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/mahaj/chatify/pkg/model"
)

func (s *messageStore) Messages(ctx context.Context, roomID string) (*Subscription[[]model.Message], error) {
	return subscribe(ctx, s.rdb, InvMessages(roomID), func(ctx context.Context) ([]model.Message, error) {
		iter := s.db.Query(`SELECT id, room_id, sender_id, user_name, user_avatar, content,
			file_url, file_name, file_type, timestamp FROM messages WHERE room_id = ?`, roomID).
			WithContext(ctx).Iter()

		var messages []model.Message
		var m model.Message
		for iter.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.UserName, &m.UserAvatar, &m.Content,
			&m.FileURL, &m.FileName, &m.FileType, &m.Timestamp) {
			messages = append(messages, m)
		}
		if err := iter.Close(); err != nil {
			return nil, &RemoteError{Op: "list messages", Err: err}
		}
		return messages, nil
	})
}

// Send appends the message to the mutation log and returns. The ID and
// timestamp fields of msg are ignored; syncd assigns both when it applies
// the write, so ordering is decided server side.
func (s *messageStore) Send(ctx context.Context, msg model.Message) error {
	err := s.pub.Publish(ctx, &Mutation{
		Kind:    MutSendMessage,
		Actor:   msg.SenderID,
		Message: &msg,
	})
	if err != nil {
		return &RemoteError{Op: "send message", Err: err}
	}
	return nil
}

func (s *messageStore) Delete(ctx context.Context, roomID string, messageID int64, actorID string) error {
	var senderID string
	err := s.db.Query(`SELECT sender_id FROM messages WHERE room_id = ? AND id = ?`, roomID, messageID).
		WithContext(ctx).Scan(&senderID)
	if err == gocql.ErrNotFound {
		return &NotFoundError{Path: fmt.Sprintf("rooms/%s/messages/%d", roomID, messageID)}
	}
	if err != nil {
		return &RemoteError{Op: "delete message", Err: err}
	}
	if senderID != actorID {
		return &AuthorizationError{Op: "delete message", Actor: actorID}
	}

	err = s.pub.Publish(ctx, &Mutation{
		Kind:      MutDeleteMessage,
		Actor:     actorID,
		RoomID:    roomID,
		MessageID: messageID,
	})
	if err != nil {
		return &RemoteError{Op: "delete message", Err: err}
	}
	return nil
}
