// Package notify carries short UI messages from the cart to a single
// transient notification surface. Delivery is best effort.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 1800 * time.Millisecond

// Channel is a fire-and-forget message channel with exactly one consumer.
// Notify never blocks; messages sent while the buffer is full are dropped.
type Channel struct {
	ch chan string
}

// NewChannel creates a Channel buffering up to size messages.
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{ch: make(chan string, size)}
}

// Notify enqueues msg unless the buffer is full.
func (c *Channel) Notify(msg string) {
	select {
	case c.ch <- msg:
	default:
	}
}

// C returns the receive side. Only one goroutine should read from it.
func (c *Channel) C() <-chan string {
	return c.ch
}

// Message is the currently visible toast.
type Message struct {
	Text      string
	ExpiresAt time.Time
}

// Toast shows the latest message from a Channel and hides it after a TTL.
// A new message replaces the visible one and restarts the timer.
type Toast struct {
	src <-chan string
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	current *Message
}

// NewToast creates a Toast consuming src.
func NewToast(src *Channel, ttl time.Duration) *Toast {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Toast{src: src.C(), ttl: ttl, now: time.Now}
}

// Current returns the visible message, if any.
func (t *Toast) Current() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Message{}, false
	}
	return *t.current, true
}

// Run consumes messages until ctx is done.
func (t *Toast) Run(ctx context.Context) error {
	lg := zctx.From(ctx)
	timer := time.NewTimer(t.ttl)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-t.src:
			t.show(msg)
			timer.Reset(t.ttl)
			lg.Debug("Toast shown", zap.String("text", msg))
		case <-timer.C:
			t.dismiss()
		}
	}
}

func (t *Toast) show(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &Message{Text: msg, ExpiresAt: t.now().Add(t.ttl)}
}

func (t *Toast) dismiss() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
}
