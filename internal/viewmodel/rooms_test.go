package viewmodel

import (
	"context"
	"errors"
	"testing"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

func TestCreateRoomRejectsEmptyNames(t *testing.T) {
	store := &fakeRoomStore{}
	dir := NewRoomDirectory(&fakeIdentity{user: testUser()}, store, &fakeNotifier{})

	for _, name := range []string{"", "   ", "\t\n"} {
		err := dir.CreateRoom(context.Background(), name)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("CreateRoom(%q) = %v, want ValidationError", name, err)
		}
	}
	if store.createCount() != 0 {
		t.Fatalf("store contacted %d times for invalid names, want 0", store.createCount())
	}
}

func TestCreateRoomTagsCreator(t *testing.T) {
	store := &fakeRoomStore{}
	dir := NewRoomDirectory(&fakeIdentity{user: testUser()}, store, &fakeNotifier{})

	if err := dir.CreateRoom(context.Background(), "general"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if got := store.created[0]; got.Name != "general" || got.CreatorID != "user-1" {
		t.Fatalf("created room = %+v, want name general, creator user-1", got)
	}
}

func TestCreateRoomRequiresUser(t *testing.T) {
	store := &fakeRoomStore{}
	dir := NewRoomDirectory(&fakeIdentity{}, store, &fakeNotifier{})

	if err := dir.CreateRoom(context.Background(), "general"); err == nil {
		t.Fatal("CreateRoom without a signed-in user should fail")
	}
	if store.createCount() != 0 {
		t.Fatal("store should not be contacted without a user")
	}
}

func TestDeleteRoomOnlyForCreator(t *testing.T) {
	store := &fakeRoomStore{}
	dir := NewRoomDirectory(&fakeIdentity{user: testUser()}, store, &fakeNotifier{})

	room := model.Room{ID: "r1", Name: "theirs", CreatorID: "someone-else"}
	err := dir.DeleteRoom(context.Background(), room)
	var aerr *gateway.AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("DeleteRoom by non-creator = %v, want AuthorizationError", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("non-creator delete must not reach the store")
	}
	if dir.CanDelete(room) {
		t.Fatal("CanDelete should be false for someone else's room")
	}
}

func TestDeleteRoomSurfacesPartialFailure(t *testing.T) {
	// A cascade that failed after the messages went must be reported as
	// an error, never as success.
	store := &fakeRoomStore{deleteErr: errors.New("batch aborted: room delete failed")}
	notify := &fakeNotifier{}
	dir := NewRoomDirectory(&fakeIdentity{user: testUser()}, store, notify)

	room := model.Room{ID: "r1", Name: "mine", CreatorID: "user-1"}
	if err := dir.DeleteRoom(context.Background(), room); err == nil {
		t.Fatal("DeleteRoom should surface the cascade failure")
	}
	if notify.errorCount() != 1 {
		t.Fatalf("got %d error notices, want 1", notify.errorCount())
	}
	for _, n := range notify.notices {
		if !n.Error {
			t.Fatalf("success notice %q after failed delete", n.Title)
		}
	}
}

func TestDeleteRoomSuccess(t *testing.T) {
	store := &fakeRoomStore{}
	notify := &fakeNotifier{}
	dir := NewRoomDirectory(&fakeIdentity{user: testUser()}, store, notify)

	room := model.Room{ID: "r1", Name: "mine", CreatorID: "user-1"}
	if err := dir.DeleteRoom(context.Background(), room); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "r1" {
		t.Fatalf("deleted = %v, want [r1]", store.deleted)
	}
}
