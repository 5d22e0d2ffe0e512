package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/pricing"
)

// DefaultAddedMessage is broadcast after a successful addition.
const DefaultAddedMessage = "Agregado al carrito"

// Store is the cart. It is created once at startup and shared by handle.
type Store struct {
	storage  Storage
	key      string
	notifier Notifier
	addedMsg string

	mu    sync.Mutex
	lines []Line
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the consumer of addition notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithKey overrides the storage key, Namespace by default.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithAddedMessage overrides DefaultAddedMessage.
func WithAddedMessage(msg string) Option {
	return func(s *Store) { s.addedMsg = msg }
}

// Open loads the cart from storage. A missing or malformed record yields an
// empty cart; only storage I/O failures are returned.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage:  storage,
		key:      Namespace,
		addedMsg: DefaultAddedMessage,
		lines:    []Line{},
	}
	for _, o := range opts {
		o(s)
	}

	lg := zctx.From(ctx).With(zap.String("key", s.key))
	data, err := storage.Load(ctx, s.key)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		lg.Debug("No stored cart, starting empty")
		return s, nil
	case err != nil:
		return nil, errors.Wrap(err, "load cart")
	}

	lines, err := DecodeRecord(data)
	if err != nil {
		lg.Warn("Malformed cart record, starting empty", zap.Error(err))
		return s, nil
	}
	s.lines = lines
	lg.Debug("Cart loaded", zap.Int("lines", len(lines)))
	return s, nil
}

// Add merges qty units of ref into the cart. An existing line keeps its
// position, name and price; only its quantity grows. qty below 1 counts as 1.
func (s *Store) Add(ctx context.Context, ref ProductRef, qty int) error {
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	next := slices.Clone(s.lines)
	if i := indexOf(next, ref.ID); i >= 0 {
		next[i].Qty += qty
	} else {
		next = append(next, Line{
			ProductID: ref.ID,
			Name:      ref.Name,
			Price:     ref.Price,
			Qty:       qty,
		})
	}
	err := s.commit(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "add")
	}

	zctx.From(ctx).Debug("Added to cart",
		zap.Int64("product_id", ref.ID),
		zap.Int("qty", qty),
	)
	if s.notifier != nil {
		s.notifier.Notify(s.addedMsg)
	}
	return nil
}

// AddProduct adds p at qty clamped to the product's allowed range, freezing
// the best unit price for that quantity on the line. Inactive or out of stock
// products are rejected with product.ErrNotPurchasable.
func (s *Store) AddProduct(ctx context.Context, p product.Product, qty int) error {
	if err := p.CheckPurchasable(); err != nil {
		return err
	}
	qty = pricing.ClampQuantity(p, qty)
	return s.Add(ctx, ProductRef{
		ID:    p.ID,
		Name:  p.Name,
		Price: pricing.BestUnitPrice(p, qty),
	}, qty)
}

// Remove drops the line for id. It is a no-op if no such line exists.
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.lines), i, i+1)
	if err := s.commit(ctx, next); err != nil {
		return errors.Wrap(err, "remove")
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commit(ctx, []Line{}); err != nil {
		return errors.Wrap(err, "clear")
	}
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Count is the sum of all line quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, l := range s.lines {
		n += l.Qty
	}
	return n
}

// Subtotal sums Price * Qty over lines using the price captured at add time.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Total())
	}
	return total
}

// commit persists next and installs it. Must be called with mu held.
func (s *Store) commit(ctx context.Context, next []Line) error {
	if err := s.storage.Save(ctx, s.key, EncodeRecord(next)); err != nil {
		return errors.Wrap(err, "save")
	}
	s.lines = next
	return nil
}

func indexOf(lines []Line, id int64) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ProductID == id })
}
