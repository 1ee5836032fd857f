package gateway

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/pkg/auth"
	"github.com/mahaj/chatify/pkg/db"
)

func TestNewSharesCallerHandles(t *testing.T) {
	session := &db.Session{}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	pub := NewPublisher([]string{"127.0.0.1:1"}, "test")
	tokens := auth.NewTokens("secret", time.Hour)

	gw := New(session, rdb, pub, tokens, "http://localhost:8081")

	if gw.Identity == nil || gw.Rooms == nil || gw.Messages == nil || gw.Statuses == nil || gw.Blobs == nil {
		t.Fatalf("capability missing: %+v", gw)
	}

	// The stores run on the handles the caller passed, not on connections
	// of their own.
	rs, ok := gw.Rooms.(*roomStore)
	if !ok {
		t.Fatalf("Rooms is %T", gw.Rooms)
	}
	if rs.db != session || rs.rdb != rdb || rs.pub != pub {
		t.Fatal("room store not wired to the caller's handles")
	}
	bs, ok := gw.Blobs.(*blobStore)
	if !ok {
		t.Fatalf("Blobs is %T", gw.Blobs)
	}
	if got := bs.DownloadURL("p"); got != "http://localhost:8081/files?path=p" {
		t.Fatalf("DownloadURL = %q", got)
	}
}
