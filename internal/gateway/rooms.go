package gateway

import (
	"context"

	"github.com/gocql/gocql"

	"github.com/mahaj/chatify/pkg/db"
	"github.com/mahaj/chatify/pkg/model"
)

// All rooms share one partition so the clustering order (name ascending)
// is the directory order; no client-side sort happens anywhere.
const roomBucket = "rooms"

func (s *roomStore) Rooms(ctx context.Context) (*Subscription[[]model.Room], error) {
	return subscribe(ctx, s.rdb, InvRooms, func(ctx context.Context) ([]model.Room, error) {
		iter := s.db.Query(`SELECT id, name, creator_id FROM rooms WHERE bucket = ?`, roomBucket).
			WithContext(ctx).Iter()

		var rooms []model.Room
		var r model.Room
		for iter.Scan(&r.ID, &r.Name, &r.CreatorID) {
			rooms = append(rooms, r)
		}
		if err := iter.Close(); err != nil {
			return nil, &RemoteError{Op: "list rooms", Err: err}
		}
		return rooms, nil
	})
}

func (s *roomStore) Room(ctx context.Context, roomID string) (*Subscription[*model.Room], error) {
	return subscribe(ctx, s.rdb, InvRoom(roomID), func(ctx context.Context) (*model.Room, error) {
		var r model.Room
		err := s.db.Query(`SELECT id, name, creator_id FROM rooms_by_id WHERE id = ?`, roomID).
			WithContext(ctx).Scan(&r.ID, &r.Name, &r.CreatorID)
		if err == gocql.ErrNotFound {
			// Absence is a snapshot value, not a subscription error:
			// the room may vanish mid-session and the view reacts.
			return nil, nil
		}
		if err != nil {
			return nil, &RemoteError{Op: "load room", Err: err}
		}
		return &r, nil
	})
}

func (s *roomStore) Create(ctx context.Context, room model.Room) error {
	err := s.pub.Publish(ctx, &Mutation{
		Kind:  MutCreateRoom,
		Actor: room.CreatorID,
		Room:  &room,
	})
	if err != nil {
		return &RemoteError{Op: "create room", Err: err}
	}
	return nil
}

// DeleteCascade removes the room and every message under it in a single
// logged batch. Unlike creates this is synchronous: a partial cascade is
// the defect this guards against, so the caller must learn about failure.
func (s *roomStore) DeleteCascade(ctx context.Context, roomID, actorID string) error {
	var name, creatorID string
	err := s.db.Query(`SELECT name, creator_id FROM rooms_by_id WHERE id = ?`, roomID).
		WithContext(ctx).Scan(&name, &creatorID)
	if err == gocql.ErrNotFound {
		return &NotFoundError{Path: "rooms/" + roomID}
	}
	if err != nil {
		return &RemoteError{Op: "delete room", Err: err}
	}
	if creatorID != actorID {
		return &AuthorizationError{Op: "delete room", Actor: actorID}
	}

	stmts := []db.BatchStmt{
		{Query: `DELETE FROM messages WHERE room_id = ?`, Args: []interface{}{roomID}},
		{Query: `DELETE FROM rooms WHERE bucket = ? AND name = ? AND id = ?`, Args: []interface{}{roomBucket, name, roomID}},
		{Query: `DELETE FROM rooms_by_id WHERE id = ?`, Args: []interface{}{roomID}},
	}
	if err := s.db.ExecuteAtomic(ctx, stmts); err != nil {
		return &RemoteError{Op: "delete room", Err: err}
	}

	s.invalidate(ctx, InvRooms, InvRoom(roomID), InvMessages(roomID))
	return nil
}
