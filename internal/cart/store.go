package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shashankesi/Threadly/internal/money"
	"github.com/Shashankesi/Threadly/internal/store"
)

// Store owns the cart persisted under store.KeyCart. Every mutation goes
// through it so (ID, Size) stays unique and no line is kept with a quantity
// below one.
//
// The mutex only orders callers inside this process. The persisted key is
// read, modified and written back without any lock on the backend, so a
// second process writing the same key wins over this one.
type Store struct {
	kv     store.KV
	logger *zap.Logger

	mu        sync.Mutex
	observers []func(count int)
}

func NewStore(kv store.KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// Subscribe registers fn to receive the total item count after every
// mutation.
func (s *Store) Subscribe(fn func(count int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Add increments the quantity of the (product.ID, size) line, or appends a
// new line with quantity 1.
func (s *Store) Add(ctx context.Context, p Product, size string) (Item, error) {
	if strings.TrimSpace(size) == "" {
		size = DefaultSize
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
		s.logger.Warn("product added without id, assigned one", zap.String("id", p.ID), zap.String("name", p.Name))
	}
	price, err := money.Parse(p.Price)
	if err != nil {
		return Item{}, fmt.Errorf("add %s: %w", p.ID, err)
	}

	var added Item
	count, err := s.mutate(ctx, func(items []Item) []Item {
		for i := range items {
			if items[i].matches(p.ID, size) {
				items[i].Quantity++
				added = items[i]
				return items
			}
		}
		added = Item{
			ID:        p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Size:      size,
			Quantity:  1,
			unitPrice: price,
		}
		return append(items, added)
	})
	if err != nil {
		return Item{}, err
	}

	s.notify(count)
	return added, nil
}

// SetQuantity updates a line in place. A quantity below one removes the line.
// Setting the quantity of a line that is not in the cart does nothing.
func (s *Store) SetQuantity(ctx context.Context, id, size string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, id, size)
	}

	count, err := s.mutate(ctx, func(items []Item) []Item {
		for i := range items {
			if items[i].matches(id, size) {
				items[i].Quantity = quantity
				break
			}
		}
		return items
	})
	if err != nil {
		return err
	}

	s.notify(count)
	return nil
}

// Remove deletes the (id, size) line. Removing an absent line is not an error.
func (s *Store) Remove(ctx context.Context, id, size string) error {
	count, err := s.mutate(ctx, func(items []Item) []Item {
		kept := items[:0]
		for _, it := range items {
			if !it.matches(id, size) {
				kept = append(kept, it)
			}
		}
		return kept
	})
	if err != nil {
		return err
	}

	s.notify(count)
	return nil
}

// Clear empties the cart. The key is removed, which reads back as empty.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.kv.Delete(ctx, store.KeyCart)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	s.notify(0)
	return nil
}

// Items returns the current lines in insertion order.
func (s *Store) Items(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) TotalItemCount(ctx context.Context) (int, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	return CountOf(items), nil
}

func (s *Store) Subtotal(ctx context.Context) (money.Amount, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return money.Zero, err
	}
	return SubtotalOf(items), nil
}

// CountOf sums the quantities of items.
func CountOf(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// SubtotalOf sums price × quantity over items.
func SubtotalOf(items []Item) money.Amount {
	total := money.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (s *Store) mutate(ctx context.Context, fn func([]Item) []Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	items = fn(items)
	if err := s.save(ctx, items); err != nil {
		return 0, err
	}
	return CountOf(items), nil
}

// load reads the persisted cart. Malformed JSON is treated as an empty cart
// and lines that break the cart invariants are dropped.
func (s *Store) load(ctx context.Context) ([]Item, error) {
	raw, ok, err := s.kv.Get(ctx, store.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []Item{}, nil
	}

	var stored []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("stored cart is malformed, treating as empty", zap.Error(err))
		return []Item{}, nil
	}

	items := make([]Item, 0, len(stored))
	for i, entry := range stored {
		var it Item
		if err := json.Unmarshal(entry, &it); err != nil {
			s.logger.Warn("dropping unreadable cart line", zap.Int("index", i), zap.Error(err))
			continue
		}
		if it.Quantity < 1 {
			s.logger.Warn("dropping cart line with quantity below one", zap.String("id", it.ID), zap.String("size", it.Size))
			continue
		}
		if idx := indexOf(items, it.ID, it.Size); idx >= 0 {
			items[idx].Quantity += it.Quantity
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyCart, string(raw)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) notify(count int) {
	s.mu.Lock()
	observers := append([]func(int){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(count)
	}
}

func indexOf(items []Item, id, size string) int {
	for i := range items {
		if items[i].matches(id, size) {
			return i
		}
	}
	return -1
}
