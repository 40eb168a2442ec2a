package anchor

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Channel carries watch states between the clients of one session. A
// publisher receives its own states back.
type Channel interface {
	Publish(ctx context.Context, s State) error
	Subscribe(ctx context.Context) (<-chan State, error)
}

// Hub is an in-process Channel provider, one channel per session.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan State]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan State]struct{})}
}

// Channel returns the channel of a session.
func (h *Hub) Channel(session string) Channel {
	return &hubChannel{hub: h, session: session}
}

type hubChannel struct {
	hub     *Hub
	session string
}

func (c *hubChannel) Publish(ctx context.Context, s State) error {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()

	for ch := range c.hub.subs[c.session] {
		select {
		case ch <- s:
		default:
			log.WithField("session", c.session).Warn("Anchor subscriber lagging, dropping state")
		}
	}
	return nil
}

func (c *hubChannel) Subscribe(ctx context.Context) (<-chan State, error) {
	ch := make(chan State, 16)

	c.hub.mu.Lock()
	if c.hub.subs[c.session] == nil {
		c.hub.subs[c.session] = make(map[chan State]struct{})
	}
	c.hub.subs[c.session][ch] = struct{}{}
	c.hub.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.hub.mu.Lock()
		delete(c.hub.subs[c.session], ch)
		c.hub.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
