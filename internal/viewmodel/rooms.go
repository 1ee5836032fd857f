package viewmodel

import (
	"context"
	"errors"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

// RoomDirectory exposes the live, name-ordered room list plus create and
// delete. Creation is fire-and-forget: the new room shows up through the
// subscription, not through the call's return.
type RoomDirectory struct {
	identity gateway.Identity
	rooms    gateway.RoomStore
	notify   Notifier
}

func NewRoomDirectory(identity gateway.Identity, rooms gateway.RoomStore, notify Notifier) *RoomDirectory {
	return &RoomDirectory{identity: identity, rooms: rooms, notify: notify}
}

// Rooms returns the live directory subscription. The caller owns teardown:
// cancel ctx or call Unsubscribe when the view goes away.
func (d *RoomDirectory) Rooms(ctx context.Context) (*gateway.Subscription[[]model.Room], error) {
	return d.rooms.Rooms(ctx)
}

// CreateRoom validates locally and submits the creation tagged with the
// acting user. An empty name never reaches the store.
func (d *RoomDirectory) CreateRoom(ctx context.Context, name string) error {
	if err := model.ValidateRoomName(name); err != nil {
		return err
	}
	user := d.identity.CurrentUser()
	if user == nil {
		return errors.New("not signed in")
	}

	err := d.rooms.Create(ctx, model.Room{Name: name, CreatorID: user.ID})
	if err != nil {
		d.notify.Notify(Notice{Error: true, Title: "Could not create room", Body: err.Error()})
		return err
	}
	d.notify.Notify(Notice{Title: "Room created!"})
	return nil
}

// CanDelete mirrors the store's authority check for the UI: only the
// creator sees a delete affordance. The store re-checks regardless.
func (d *RoomDirectory) CanDelete(room model.Room) bool {
	user := d.identity.CurrentUser()
	return user != nil && user.ID == room.CreatorID
}

// DeleteRoom removes the room and every message in it as one atomic
// batch. Unlike creation this waits for the result: a partial cascade must
// surface as an error, never be presented as success.
func (d *RoomDirectory) DeleteRoom(ctx context.Context, room model.Room) error {
	user := d.identity.CurrentUser()
	if user == nil || user.ID != room.CreatorID {
		return &gateway.AuthorizationError{Op: "delete room", Actor: actorID(user)}
	}

	if err := d.rooms.DeleteCascade(ctx, room.ID, user.ID); err != nil {
		d.notify.Notify(Notice{Error: true, Title: "Could not delete room", Body: err.Error()})
		return err
	}
	d.notify.Notify(Notice{
		Title: "Room deleted",
		Body:  `Room "` + room.Name + `" and all its messages have been deleted.`,
	})
	return nil
}

func actorID(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
