package viewmodel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

// StatusFeed is the view model for the ephemeral status screen: the live
// window of recent posts folded into per-author groups, the acting user's
// own group split out, and the slideshow for viewing one group.
type StatusFeed struct {
	identity gateway.Identity
	statuses gateway.StatusStore
	blobs    gateway.BlobStore
	notify   Notifier

	now   func() time.Time
	after afterFunc

	mu     sync.Mutex
	mine   *model.StatusGroup
	others []model.StatusGroup
	loaded bool
	cancel context.CancelFunc

	OnChange func()
}

func NewStatusFeed(identity gateway.Identity, statuses gateway.StatusStore, blobs gateway.BlobStore, notify Notifier) *StatusFeed {
	return &StatusFeed{
		identity: identity,
		statuses: statuses,
		blobs:    blobs,
		notify:   notify,
		now:      time.Now,
		after:    realAfter,
	}
}

// Open subscribes to the trailing 24-hour window of posts. The window
// boundary is computed once, here: a post aging past it stays visible
// until the feed is reopened.
func (f *StatusFeed) Open(ctx context.Context) error {
	f.Close()

	cutoff := f.now().Add(-model.StatusWindow)

	ctx, cancel := context.WithCancel(ctx)
	sub, err := f.statuses.Active(ctx, cutoff)
	if err != nil {
		cancel()
		return err
	}

	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case posts, ok := <-sub.Updates():
				if !ok {
					return
				}
				f.apply(posts)
			}
		}
	}()

	return nil
}

func (f *StatusFeed) Close() {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.mine = nil
	f.others = nil
	f.loaded = false
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// MyGroup returns the acting user's own group, or nil if they have no
// live posts.
func (f *StatusFeed) MyGroup() *model.StatusGroup {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mine == nil {
		return nil
	}
	g := *f.mine
	return &g
}

// Others returns everyone else's groups, most recently updated first.
func (f *StatusFeed) Others() []model.StatusGroup {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.StatusGroup, len(f.others))
	copy(out, f.others)
	return out
}

// OpenGroup starts the timed slideshow over one author's posts.
func (f *StatusFeed) OpenGroup(group model.StatusGroup) *Slideshow {
	return newSlideshow(group, f.after)
}

// CreateStatus posts a new update. If an image is given it is uploaded
// first and the post carries the resolved URL; the post is never created
// with a dangling reference. Expiry is stored at creation even though the
// read path filters by creation time.
func (f *StatusFeed) CreateStatus(ctx context.Context, text string, image *File) error {
	text = strings.TrimSpace(text)
	if text == "" && image == nil {
		return &model.ValidationError{Field: "status", Reason: "status needs text or an image"}
	}
	user := f.identity.CurrentUser()
	if user == nil {
		return &gateway.AuthorizationError{Op: "create status", Actor: ""}
	}

	var imageURL string
	if image != nil {
		path := fmt.Sprintf("status_files/%s/%d_%s", user.ID, f.now().UnixMilli(), image.Name)
		url, err := f.blobs.Upload(ctx, path, image.Name, image.ContentType, image.Content, image.Size, nil)
		if err != nil {
			f.notify.Notify(Notice{Error: true, Title: "Could not post your status", Body: err.Error()})
			return err
		}
		imageURL = url
	}

	now := f.now()
	post := model.StatusPost{
		UserID:     user.ID,
		UserName:   user.Name,
		UserAvatar: user.AvatarURL,
		Text:       text,
		ImageURL:   imageURL,
		CreatedAt:  now,
		ExpiresAt:  now.Add(model.StatusWindow),
	}
	if err := f.statuses.Create(ctx, post); err != nil {
		f.notify.Notify(Notice{Error: true, Title: "Could not post your status", Body: err.Error()})
		return err
	}

	f.notify.Notify(Notice{Title: "Status Posted!"})
	return nil
}

func (f *StatusFeed) apply(posts []model.StatusPost) {
	user := f.identity.CurrentUser()
	me := ""
	if user != nil {
		me = user.ID
	}
	mine, others := GroupStatuses(posts, me)

	f.mu.Lock()
	f.mine = mine
	f.others = others
	f.loaded = true
	cb := f.OnChange
	f.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// GroupStatuses folds a flat post snapshot into per-author groups. Posts
// inside a group run oldest to newest (the order a viewer watches them);
// groups are ordered newest update first. The acting user's group is
// returned separately as "My Status".
func GroupStatuses(posts []model.StatusPost, meID string) (mine *model.StatusGroup, others []model.StatusGroup) {
	byUser := make(map[string]*model.StatusGroup)
	var order []string

	for _, p := range posts {
		g, ok := byUser[p.UserID]
		if !ok {
			g = &model.StatusGroup{
				UserID:     p.UserID,
				UserName:   p.UserName,
				UserAvatar: p.UserAvatar,
			}
			byUser[p.UserID] = g
			order = append(order, p.UserID)
		}
		g.Posts = append(g.Posts, p)
		if p.CreatedAt.After(g.LastUpdate) {
			g.LastUpdate = p.CreatedAt
		}
	}

	groups := make([]model.StatusGroup, 0, len(order))
	for _, id := range order {
		g := byUser[id]
		sort.SliceStable(g.Posts, func(i, j int) bool {
			return g.Posts[i].CreatedAt.Before(g.Posts[j].CreatedAt)
		})
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LastUpdate.After(groups[j].LastUpdate)
	})

	for _, g := range groups {
		if meID != "" && g.UserID == meID {
			mg := g
			mine = &mg
			continue
		}
		others = append(others, g)
	}
	return mine, others
}

// RelativeTime renders a post age the way the feed shows it.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	hours := int(diff.Hours())

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return t.Format("1/2/2006")
	}
}
