package viewmodel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mahaj/chatify/pkg/model"
)

func post(id int64, userID string, at time.Time) model.StatusPost {
	return model.StatusPost{
		ID:        id,
		UserID:    userID,
		UserName:  "name-" + userID,
		CreatedAt: at,
	}
}

func TestGroupStatuses(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// Subscription snapshots arrive newest first; grouping must not care.
	posts := []model.StatusPost{
		post(3, "A", base.Add(30*time.Second)),
		post(2, "B", base.Add(20*time.Second)),
		post(1, "A", base.Add(10*time.Second)),
	}

	mine, others := GroupStatuses(posts, "")
	if mine != nil {
		t.Fatalf("mine = %+v, want nil without an acting user match", mine)
	}
	if len(others) != 2 {
		t.Fatalf("got %d groups, want 2", len(others))
	}

	// Feed order is descending by last update: A(30) before B(20).
	if others[0].UserID != "A" || others[1].UserID != "B" {
		t.Fatalf("feed order = [%s, %s], want [A, B]", others[0].UserID, others[1].UserID)
	}
	if !others[0].LastUpdate.Equal(base.Add(30 * time.Second)) {
		t.Errorf("A.LastUpdate = %v, want t+30s", others[0].LastUpdate)
	}
	if !others[1].LastUpdate.Equal(base.Add(20 * time.Second)) {
		t.Errorf("B.LastUpdate = %v, want t+20s", others[1].LastUpdate)
	}

	// Posts within a group run oldest to newest, viewing order.
	a := others[0]
	if len(a.Posts) != 2 || a.Posts[0].ID != 1 || a.Posts[1].ID != 3 {
		t.Fatalf("A posts = %+v, want [1, 3]", a.Posts)
	}
}

func TestGroupStatusesSplitsMyGroup(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	posts := []model.StatusPost{
		post(2, "me", base.Add(time.Minute)),
		post(1, "other", base),
	}

	mine, others := GroupStatuses(posts, "me")
	if mine == nil || mine.UserID != "me" {
		t.Fatalf("mine = %+v, want group for me", mine)
	}
	if len(others) != 1 || others[0].UserID != "other" {
		t.Fatalf("others = %+v, want only the other author", others)
	}
}

func TestStatusWindowComputedOnceAtOpen(t *testing.T) {
	store := &fakeStatusStore{}
	feed := NewStatusFeed(&fakeIdentity{user: testUser()}, store, &fakeBlobStore{}, &fakeNotifier{})

	opened := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return opened }

	if err := feed.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer feed.Close()

	want := opened.Add(-24 * time.Hour)
	if !store.sinceUsed.Equal(want) {
		t.Fatalf("window cutoff = %v, want %v", store.sinceUsed, want)
	}
}

func TestSlideshowAutoAdvancesToClosed(t *testing.T) {
	sched := &fakeScheduler{}
	base := time.Now()
	group := model.StatusGroup{
		UserID: "A",
		Posts: []model.StatusPost{
			post(1, "A", base),
			post(2, "A", base.Add(time.Second)),
			post(3, "A", base.Add(2*time.Second)),
		},
	}

	feed := NewStatusFeed(&fakeIdentity{user: testUser()}, &fakeStatusStore{}, &fakeBlobStore{}, &fakeNotifier{})
	feed.after = sched.after
	show := feed.OpenGroup(group)

	if show.Index() != 0 || show.Closed() {
		t.Fatalf("opened at index %d closed=%v, want 0/false", show.Index(), show.Closed())
	}

	sched.fire()
	if show.Index() != 1 {
		t.Fatalf("after 1 dwell index = %d, want 1", show.Index())
	}
	sched.fire()
	if show.Index() != 2 {
		t.Fatalf("after 2 dwells index = %d, want 2", show.Index())
	}
	sched.fire()
	if !show.Closed() {
		t.Fatal("advancing past the last post should close the slideshow")
	}
}

func TestSlideshowManualCloseCancelsTimer(t *testing.T) {
	sched := &fakeScheduler{}
	base := time.Now()
	group := model.StatusGroup{
		UserID: "A",
		Posts: []model.StatusPost{
			post(1, "A", base),
			post(2, "A", base.Add(time.Second)),
			post(3, "A", base.Add(2*time.Second)),
		},
	}

	feed := NewStatusFeed(&fakeIdentity{user: testUser()}, &fakeStatusStore{}, &fakeBlobStore{}, &fakeNotifier{})
	feed.after = sched.after
	show := feed.OpenGroup(group)

	sched.fire()
	if show.Index() != 1 {
		t.Fatalf("index = %d, want 1", show.Index())
	}

	show.Close()
	if !show.Closed() {
		t.Fatal("Close should close")
	}

	// The pending timer was stopped: firing the schedule slot must not
	// advance a dismissed view.
	sched.fire()
	if show.Index() != 1 {
		t.Fatalf("index changed to %d after close", show.Index())
	}
}

func TestCreateStatusValidation(t *testing.T) {
	store := &fakeStatusStore{}
	feed := NewStatusFeed(&fakeIdentity{user: testUser()}, store, &fakeBlobStore{}, &fakeNotifier{})

	err := feed.CreateStatus(context.Background(), "   ", nil)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("CreateStatus with nothing = %v, want ValidationError", err)
	}
	if len(store.created) != 0 {
		t.Fatal("invalid status must not reach the store")
	}
}

func TestCreateStatusWithImageUploadsFirst(t *testing.T) {
	store := &fakeStatusStore{}
	blobs := &fakeBlobStore{}
	feed := NewStatusFeed(&fakeIdentity{user: testUser()}, store, blobs, &fakeNotifier{})

	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	feed.now = func() time.Time { return now }

	img := selectedFile("sunset.png")
	if err := feed.CreateStatus(context.Background(), "look at this", &img); err != nil {
		t.Fatalf("CreateStatus: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("got %d posts, want 1", len(store.created))
	}
	p := store.created[0]
	if p.ImageURL == "" {
		t.Fatal("post missing the resolved image URL")
	}
	if blobs.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", blobs.uploads)
	}
	if !p.ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("ExpiresAt = %v, want creation + 24h", p.ExpiresAt)
	}
}

func TestCreateStatusFailedUploadCreatesNoPost(t *testing.T) {
	store := &fakeStatusStore{}
	blobs := &fakeBlobStore{steps: []float64{30, 100}, fail: true, failAt: 30}
	notify := &fakeNotifier{}
	feed := NewStatusFeed(&fakeIdentity{user: testUser()}, store, blobs, notify)

	img := selectedFile("sunset.png")
	if err := feed.CreateStatus(context.Background(), "", &img); err == nil {
		t.Fatal("expected upload failure to surface")
	}
	if len(store.created) != 0 {
		t.Fatal("no post should be created after a failed upload")
	}
	if notify.errorCount() != 1 {
		t.Fatalf("got %d error notices, want 1", notify.errorCount())
	}
}

func TestFeedGroupsSnapshots(t *testing.T) {
	store := &fakeStatusStore{}
	feed := NewStatusFeed(&fakeIdentity{user: testUser()}, store, &fakeBlobStore{}, &fakeNotifier{})

	if err := feed.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer feed.Close()

	base := time.Now()
	store.push([]model.StatusPost{
		post(2, "user-1", base.Add(time.Minute)),
		post(1, "B", base),
	})

	waitFor(t, "grouped snapshot", func() bool { return feed.MyGroup() != nil })
	if got := feed.Others(); len(got) != 1 || got[0].UserID != "B" {
		t.Fatalf("others = %+v, want [B]", got)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "Just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-48 * time.Hour), "8/26/2026"},
	}
	for _, c := range cases {
		if got := RelativeTime(c.at, now); got != c.want {
			t.Errorf("RelativeTime(%v) = %q, want %q", c.at, got, c.want)
		}
	}
}
