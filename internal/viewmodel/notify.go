// Package viewmodel holds the client-side state machines: the room
// directory, the per-room message stream, the attachment upload controller
// and the status feed with its slideshow. View models talk to the world
// only through the gateway capabilities handed to them at construction;
// there is no ambient user or store.
package viewmodel

import "log"

// Notice is a non-blocking user notification, the equivalent of a toast.
// Remote failures end up here instead of propagating into the caller's
// flow.
type Notice struct {
	Error bool
	Title string
	Body  string
}

type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to the process log. The terminal client uses
// it directly; a UI would swap in its own sink.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	if n.Error {
		log.Printf("ERROR: %s: %s", n.Title, n.Body)
		return
	}
	log.Printf("%s: %s", n.Title, n.Body)
}
