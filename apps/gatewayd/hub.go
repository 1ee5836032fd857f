package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

// Topic names a client can subscribe to: "rooms", "status", or
// "messages:<roomID>".
const (
	topicRooms  = "rooms"
	topicStatus = "status"
	msgPrefix   = "messages:"
)

type snapshot struct {
	topic string
	data  []byte
}

// feed is one live upstream subscription shared by every client on the
// same topic. It is torn down when the last client leaves.
type feed struct {
	clients map[*Client]bool
	cancel  context.CancelFunc
	last    []byte // most recent snapshot, replayed to late joiners
}

type Hub struct {
	gw    *gateway.Gateway
	redis *redis.Client

	feeds      map[string]*feed
	broadcast  chan snapshot
	register   chan *Client
	unregister chan *Client
}

func NewHub(gw *gateway.Gateway, redisAddr string) *Hub {
	return &Hub{
		gw:         gw,
		redis:      redis.NewClient(&redis.Options{Addr: redisAddr}),
		feeds:      make(map[string]*feed),
		broadcast:  make(chan snapshot),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	defer h.redis.Close()

	for {
		select {
		case client := <-h.register:
			f := h.feeds[client.Topic]
			if f == nil {
				cancel, err := h.startFeed(client.Topic)
				if err != nil {
					log.Printf("Failed to open feed %s: %v", client.Topic, err)
					close(client.send)
					continue
				}
				f = &feed{clients: make(map[*Client]bool), cancel: cancel}
				h.feeds[client.Topic] = f
			}
			f.clients[client] = true
			if f.last != nil {
				client.send <- f.last
			}

			// Presence: who has a room's messages open.
			if roomID, ok := strings.CutPrefix(client.Topic, msgPrefix); ok {
				err := h.redis.SAdd(context.Background(), "room:"+roomID+":users", client.ID).Err()
				if err != nil {
					log.Printf("Failed to set presence for %s: %v", client.ID, err)
				}
			}
			log.Printf("Client registered: %s on %s", client.ID, client.Topic)

		case client := <-h.unregister:
			if h.removeClient(client.Topic, client) {
				log.Printf("Client unregistered: %s from %s", client.ID, client.Topic)
			}

		case snap := <-h.broadcast:
			h.deliver(snap)
		}
	}
}

// deliver fans a snapshot out to every client on its topic. A client whose
// buffer is full is a dead or hopelessly slow consumer and is evicted
// through the same teardown as a normal unregister.
func (h *Hub) deliver(snap snapshot) {
	f := h.feeds[snap.topic]
	if f == nil {
		return
	}
	f.last = snap.data
	for client := range f.clients {
		select {
		case client.send <- snap.data:
		default:
			h.removeClient(snap.topic, client)
		}
	}
}

// removeClient is the single teardown path for a client: closes its send
// channel, clears presence, and cancels the upstream feed when the last
// client left. Safe to call for a client already removed; reports whether
// anything was removed.
func (h *Hub) removeClient(topic string, client *Client) bool {
	f := h.feeds[topic]
	if f == nil {
		return false
	}
	if _, ok := f.clients[client]; !ok {
		return false
	}
	delete(f.clients, client)
	close(client.send)

	if roomID, ok := strings.CutPrefix(topic, msgPrefix); ok {
		err := h.redis.SRem(context.Background(), "room:"+roomID+":users", client.ID).Err()
		if err != nil {
			log.Printf("Failed to delete presence for %s: %v", client.ID, err)
		}
	}

	if len(f.clients) == 0 {
		f.cancel()
		delete(h.feeds, topic)
	}
	return true
}

// startFeed opens the upstream subscription for a topic and pumps its
// snapshots into the hub loop as JSON.
func (h *Hub) startFeed(topic string) (context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	switch {
	case topic == topicRooms:
		sub, err := h.gw.Rooms.Rooms(ctx)
		if err != nil {
			cancel()
			return nil, err
		}
		go pumpFeed(ctx, h, topic, sub)

	case topic == topicStatus:
		sub, err := h.gw.Statuses.Active(ctx, time.Now().Add(-model.StatusWindow))
		if err != nil {
			cancel()
			return nil, err
		}
		go pumpFeed(ctx, h, topic, sub)

	case strings.HasPrefix(topic, msgPrefix):
		sub, err := h.gw.Messages.Messages(ctx, strings.TrimPrefix(topic, msgPrefix))
		if err != nil {
			cancel()
			return nil, err
		}
		go pumpFeed(ctx, h, topic, sub)

	default:
		cancel()
		return nil, fmt.Errorf("unknown topic %q", topic)
	}

	return cancel, nil
}

func pumpFeed[T any](ctx context.Context, h *Hub, topic string, sub *gateway.Subscription[T]) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-sub.Updates():
			if !ok {
				return
			}
			data, err := json.Marshal(v)
			if err != nil {
				log.Printf("Failed to marshal %s snapshot: %v", topic, err)
				continue
			}
			select {
			case h.broadcast <- snapshot{topic: topic, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}
}
