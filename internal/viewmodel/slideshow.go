package viewmodel

import (
	"sync"
	"time"

	"github.com/mahaj/chatify/pkg/model"
)

// slideDwell is how long each post stays on screen before the slideshow
// advances on its own.
const slideDwell = 5 * time.Second

// Slideshow steps through one author's posts: Viewing(0), auto-advance
// every dwell period, Closed past the last post. Manual Close is always
// available and cancels the pending timer, so a dismissed view is never
// advanced afterwards.
type Slideshow struct {
	group model.StatusGroup
	after afterFunc

	mu     sync.Mutex
	index  int
	closed bool
	timer  timerHandle

	OnChange func()
}

func newSlideshow(group model.StatusGroup, after afterFunc) *Slideshow {
	s := &Slideshow{group: group, after: after}
	if len(s.group.Posts) == 0 {
		s.closed = true
		return s
	}
	s.timer = s.after(slideDwell, s.advance)
	return s
}

func (s *Slideshow) Group() model.StatusGroup { return s.group }

func (s *Slideshow) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Slideshow) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Current returns the post on screen. Only meaningful while not Closed.
func (s *Slideshow) Current() model.StatusPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group.Posts[s.index]
}

// Close stops the slideshow. Safe to call repeatedly; once closed the
// state never changes again.
func (s *Slideshow) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Slideshow) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Slideshow) advance() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.index < len(s.group.Posts)-1 {
		s.index++
		s.timer = s.after(slideDwell, s.advance)
	} else {
		s.closeLocked()
	}
	cb := s.OnChange
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}
