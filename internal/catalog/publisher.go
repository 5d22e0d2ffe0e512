package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/promo-storefront/internal/domain/product"
)

// Result is a published filter outcome. Seq identifies the Submit call that
// produced it. When the catalog could not be read, Err is set and Products
// is empty.
type Result struct {
	Seq      uint64
	Criteria Criteria
	Products []product.Product
	Err      error
}

// Publisher runs the filter pipeline after a fixed delay and publishes only
// the outcome of the most recent submission. A computation overtaken by a
// newer Submit is discarded, so a stale result never replaces a newer one.
type Publisher struct {
	repo  product.Repository
	delay time.Duration

	mu       sync.Mutex
	seq      uint64
	latest   Result
	listener func(Result)

	// deliverMu orders listener calls; delivered is the last seq handed out.
	deliverMu sync.Mutex
	delivered uint64
}

// NewPublisher creates a Publisher over repo. delay models the latency budget
// of the loading state.
func NewPublisher(repo product.Repository, delay time.Duration) *Publisher {
	return &Publisher{repo: repo, delay: delay}
}

// OnPublish registers the single consumer of published results, replacing any
// previous one. fn runs on the publishing goroutine and must not block.
func (p *Publisher) OnPublish(fn func(Result)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = fn
}

// Submit schedules a filter run for c and returns its sequence number. The
// run is abandoned when ctx is done.
func (p *Publisher) Submit(ctx context.Context, c Criteria) uint64 {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	go p.run(ctx, seq, c)
	return seq
}

// Latest returns the newest published result and whether a newer submission
// is still in flight.
func (p *Publisher) Latest() (res Result, loading bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.latest.Seq != p.seq
}

func (p *Publisher) current(seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return seq == p.seq
}

func (p *Publisher) run(ctx context.Context, seq uint64, c Criteria) {
	lg := zctx.From(ctx).With(zap.Uint64("seq", seq))

	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if !p.current(seq) {
		lg.Debug("Filter superseded before run")
		return
	}

	res := Result{Seq: seq, Criteria: c}
	if all, err := p.repo.List(ctx); err != nil {
		lg.Error("List catalog", zap.Error(err))
		res.Err = err
		res.Products = []product.Product{}
	} else {
		res.Products = Filter(all, c)
	}

	p.mu.Lock()
	if seq != p.seq {
		p.mu.Unlock()
		lg.Debug("Stale filter result dropped")
		return
	}
	p.latest = res
	listener := p.listener
	p.mu.Unlock()

	if listener != nil {
		p.deliver(listener, res)
	}
}

func (p *Publisher) deliver(listener func(Result), res Result) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if res.Seq <= p.delivered {
		return
	}
	p.delivered = res.Seq
	listener(res)
}
