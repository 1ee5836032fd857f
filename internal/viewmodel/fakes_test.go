package viewmodel

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

type fakeIdentity struct {
	mu   sync.Mutex
	user *model.User
}

func (f *fakeIdentity) CurrentUser() *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil
	}
	u := *f.user
	return &u
}

func (f *fakeIdentity) setName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.Name = name
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	return f.user, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password, displayName string) (*model.User, error) {
	return f.user, nil
}

func (f *fakeIdentity) SignOut() {}

type fakeRoomStore struct {
	mu        sync.Mutex
	created   []model.Room
	deleted   []string
	deleteErr error
	pushRooms func([]model.Room)
	pushRoom  func(*model.Room)
}

func (f *fakeRoomStore) Rooms(ctx context.Context) (*gateway.Subscription[[]model.Room], error) {
	sub, push := gateway.NewLocalSubscription[[]model.Room]()
	f.mu.Lock()
	f.pushRooms = push
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeRoomStore) Room(ctx context.Context, roomID string) (*gateway.Subscription[*model.Room], error) {
	sub, push := gateway.NewLocalSubscription[*model.Room]()
	f.mu.Lock()
	f.pushRoom = push
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeRoomStore) Create(ctx context.Context, room model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, room)
	return nil
}

func (f *fakeRoomStore) DeleteCascade(ctx context.Context, roomID, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, roomID)
	return nil
}

func (f *fakeRoomStore) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeMessageStore struct {
	mu       sync.Mutex
	sent     []model.Message
	deleted  []int64
	sendErr  error
	pushMsgs func([]model.Message)
}

func (f *fakeMessageStore) Messages(ctx context.Context, roomID string) (*gateway.Subscription[[]model.Message], error) {
	sub, push := gateway.NewLocalSubscription[[]model.Message]()
	f.mu.Lock()
	f.pushMsgs = push
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeMessageStore) Send(ctx context.Context, msg model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMessageStore) Delete(ctx context.Context, roomID string, messageID int64, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessageStore) sentMessages() []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeStatusStore struct {
	mu        sync.Mutex
	created   []model.StatusPost
	sinceUsed time.Time
	push      func([]model.StatusPost)
}

func (f *fakeStatusStore) Active(ctx context.Context, since time.Time) (*gateway.Subscription[[]model.StatusPost], error) {
	sub, push := gateway.NewLocalSubscription[[]model.StatusPost]()
	f.mu.Lock()
	f.sinceUsed = since
	f.push = push
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeStatusStore) Create(ctx context.Context, post model.StatusPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, post)
	return nil
}

// fakeBlobStore scripts the transfer: progress steps fire in order and
// failAt aborts mid-stream the way a dropped connection would.
type fakeBlobStore struct {
	mu       sync.Mutex
	steps    []float64
	failAt   float64
	fail     bool
	uploads  int
	lastPath string
	block    chan struct{} // when set, Upload parks here after the first step
}

func (f *fakeBlobStore) Upload(ctx context.Context, path, name, contentType string, r io.Reader, size int64, progress func(pct float64)) (string, error) {
	f.mu.Lock()
	f.uploads++
	f.lastPath = path
	steps := f.steps
	block := f.block
	f.mu.Unlock()

	if progress == nil {
		progress = func(float64) {}
	}
	if len(steps) == 0 {
		steps = []float64{100}
	}

	for i, pct := range steps {
		if i == 1 && block != nil {
			select {
			case <-block:
			case <-ctx.Done():
				return "", &gateway.TransferError{Path: path, Err: ctx.Err()}
			}
		}
		if err := ctx.Err(); err != nil {
			return "", &gateway.TransferError{Path: path, Err: err}
		}
		progress(pct)
		if f.fail && pct >= f.failAt {
			return "", &gateway.TransferError{Path: path, Err: errors.New("connection reset")}
		}
	}
	return "https://files.example/" + path, nil
}

func (f *fakeBlobStore) DownloadURL(path string) string {
	return "https://files.example/" + path
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (f *fakeNotifier) Notify(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
}

func (f *fakeNotifier) errorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, notice := range f.notices {
		if notice.Error {
			n++
		}
	}
	return n
}

// fakeScheduler is the simulated clock for slideshow timers: arm records
// the callback, fire runs the oldest pending one.
type fakeTimer struct {
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return true
}

type fakeScheduler struct {
	mu      sync.Mutex
	pending []func()
	timers  []*fakeTimer
}

func (s *fakeScheduler) after(d time.Duration, fn func()) timerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{}
	s.pending = append(s.pending, fn)
	s.timers = append(s.timers, t)
	return t
}

// fire runs the oldest armed callback unless its timer was stopped.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	fn := s.pending[0]
	t := s.timers[0]
	s.pending = s.pending[1:]
	s.timers = s.timers[1:]
	s.mu.Unlock()

	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		fn()
	}
}

func (s *fakeScheduler) armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func testUser() *model.User {
	return &model.User{
		ID:        "user-1",
		Name:      "Ada",
		AvatarURL: "https://i.pravatar.cc/150?u=user-1",
		Email:     "ada@example.com",
	}
}
