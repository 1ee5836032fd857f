package viewmodel

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

// StreamState is the message view's lifecycle. Sending and Deleting are
// transient detours from Ready; StateError is terminal for the open room
// and returns the view to Unselected once the caller navigates away.
type StreamState int

const (
	StateUnselected StreamState = iota
	StateLoading
	StateReady
	StateSending
	StateDeleting
	StateError
)

// MessageStream is the view model for one open room: the room's metadata
// subscription, its ascending message subscription, and the send/delete
// operations. Displayed order is exactly the snapshot order from the
// store; no client-side resort happens here.
type MessageStream struct {
	identity gateway.Identity
	rooms    gateway.RoomStore
	messages gateway.MessageStore
	notify   Notifier

	mu        sync.Mutex
	state     StreamState
	roomID    string
	room      *model.Room
	msgs      []model.Message
	roomSeen  bool
	msgsSeen  bool
	cancel    context.CancelFunc

	// OnChange fires after every state or data change. OnRoomGone fires
	// once when the open room turns out to be missing; the owner is
	// expected to navigate away, this is not retried.
	OnChange   func()
	OnRoomGone func()
}

func NewMessageStream(identity gateway.Identity, rooms gateway.RoomStore, messages gateway.MessageStore, notify Notifier) *MessageStream {
	return &MessageStream{
		identity: identity,
		rooms:    rooms,
		messages: messages,
		notify:   notify,
		state:    StateUnselected,
	}
}

// Open establishes the room and message subscriptions. Any previously
// open room is closed first; its subscriptions must not deliver into the
// new view.
func (s *MessageStream) Open(ctx context.Context, roomID string) error {
	s.Close()

	ctx, cancel := context.WithCancel(ctx)

	roomSub, err := s.rooms.Room(ctx, roomID)
	if err != nil {
		cancel()
		return err
	}
	msgSub, err := s.messages.Messages(ctx, roomID)
	if err != nil {
		roomSub.Unsubscribe()
		cancel()
		return err
	}

	s.mu.Lock()
	s.state = StateLoading
	s.roomID = roomID
	s.room = nil
	s.msgs = nil
	s.roomSeen = false
	s.msgsSeen = false
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer roomSub.Unsubscribe()
		defer msgSub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case room, ok := <-roomSub.Updates():
				if !ok {
					return
				}
				if !s.applyRoom(room) {
					return
				}
			case msgs, ok := <-msgSub.Updates():
				if !ok {
					return
				}
				s.applyMessages(msgs)
			}
		}
	}()

	return nil
}

// Close tears down the subscriptions and returns the view to Unselected.
func (s *MessageStream) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.state = StateUnselected
	s.roomID = ""
	s.room = nil
	s.msgs = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.changed()
}

func (s *MessageStream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *MessageStream) Room() *model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return nil
	}
	r := *s.room
	return &r
}

// Messages returns the current snapshot in store order.
func (s *MessageStream) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Send submits a message with the sender's name and avatar captured now.
// A later profile change must not rewrite what was sent. The call returns
// as soon as the write is on the log; the message itself arrives through
// the subscription.
func (s *MessageStream) Send(ctx context.Context, text string, att *model.Attachment) error {
	if err := model.ValidateMessage(text, att); err != nil {
		return err
	}
	user := s.identity.CurrentUser()
	if user == nil {
		return errors.New("not signed in")
	}

	s.mu.Lock()
	if s.state != StateReady && s.state != StateSending {
		s.mu.Unlock()
		return errors.New("no room open")
	}
	s.state = StateSending
	roomID := s.roomID
	s.mu.Unlock()
	s.changed()

	msg := model.Message{
		RoomID:     roomID,
		Content:    strings.TrimSpace(text),
		SenderID:   user.ID,
		UserName:   user.Name,
		UserAvatar: user.AvatarURL,
	}
	if att != nil {
		msg.FileURL = att.URL
		msg.FileName = att.Name
		msg.FileType = att.Type
	}

	err := s.messages.Send(ctx, msg)

	s.mu.Lock()
	if s.state == StateSending {
		s.state = StateReady
	}
	s.mu.Unlock()
	s.changed()

	if err != nil {
		s.notify.Notify(Notice{Error: true, Title: "Message not sent", Body: err.Error()})
		return err
	}
	return nil
}

// Delete removes one of the acting user's own messages. Failure goes to
// the notifier; it never throws into the caller's flow.
func (s *MessageStream) Delete(ctx context.Context, msg model.Message) error {
	user := s.identity.CurrentUser()
	if user == nil || user.ID != msg.SenderID {
		return &gateway.AuthorizationError{Op: "delete message", Actor: actorID(user)}
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return errors.New("no room open")
	}
	s.state = StateDeleting
	roomID := s.roomID
	s.mu.Unlock()
	s.changed()

	err := s.messages.Delete(ctx, roomID, msg.ID, user.ID)

	s.mu.Lock()
	if s.state == StateDeleting {
		s.state = StateReady
	}
	s.mu.Unlock()
	s.changed()

	if err != nil {
		s.notify.Notify(Notice{Error: true, Title: "Could not delete message", Body: err.Error()})
	}
	return nil
}

// applyRoom folds a room snapshot in. A nil snapshot means the room no
// longer exists: terminal, the subscription loop stops. Returns false to
// stop the loop.
func (s *MessageStream) applyRoom(room *model.Room) bool {
	if room == nil {
		s.mu.Lock()
		s.state = StateError
		cancel := s.cancel
		s.cancel = nil
		gone := s.OnRoomGone
		s.mu.Unlock()

		s.notify.Notify(Notice{Error: true, Title: "Room not found", Body: "This room no longer exists."})
		if cancel != nil {
			cancel()
		}
		s.changed()
		if gone != nil {
			gone()
		}
		return false
	}

	s.mu.Lock()
	s.room = room
	s.roomSeen = true
	if s.state == StateLoading && s.msgsSeen {
		s.state = StateReady
	}
	s.mu.Unlock()
	s.changed()
	return true
}

func (s *MessageStream) applyMessages(msgs []model.Message) {
	s.mu.Lock()
	s.msgs = msgs
	s.msgsSeen = true
	if s.state == StateLoading && s.roomSeen {
		s.state = StateReady
	}
	s.mu.Unlock()
	s.changed()
}

func (s *MessageStream) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}
