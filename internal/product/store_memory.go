package product

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu     sync.RWMutex
	m      map[int]Product
	nextID int
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[int]Product{}, nextID: 1}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Create(ctx context.Context, p Product) (Product, error) {
	if !validCount(p.Count) {
		return Product{}, ErrInvalidCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.m[p.ID] = p
	return p, nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) Update(ctx context.Context, p Product) (Product, error) {
	if !validCount(p.Count) {
		return Product{}, ErrInvalidCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[p.ID]; !ok {
		return Product{}, ErrNotFound
	}
	s.m[p.ID] = p
	return p, nil
}

func (s *MemStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, id)
	return nil
}

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	return s.filter(func(Product) bool { return true }), nil
}

func (s *MemStore) FindBy(ctx context.Context, f Field, value string) ([]Product, error) {
	if _, err := ParseField(string(f)); err != nil {
		return nil, err
	}
	return s.filter(func(p Product) bool { return f.Value(p) == value }), nil
}

func (s *MemStore) ListAvailable(ctx context.Context) ([]Product, error) {
	return s.filter(Product.Available), nil
}

func (s *MemStore) AddUnit(ctx context.Context, id int) (Product, error) {
	return s.adjust(id, func(p *Product) error {
		if p.Count >= MaxCount {
			return ErrInvalidCount
		}
		p.Count++
		return nil
	})
}

// SellUnit never drives count below zero; selling from an empty product is a
// no-op.
func (s *MemStore) SellUnit(ctx context.Context, id int) (Product, error) {
	return s.adjust(id, func(p *Product) error {
		if p.Count > 0 {
			p.Count--
		}
		return nil
	})
}

func (s *MemStore) RemoveAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m = map[int]Product{}
	s.nextID = 1
	return nil
}

func (s *MemStore) adjust(id int, fn func(*Product) error) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if err := fn(&p); err != nil {
		return Product{}, err
	}
	s.m[id] = p
	return p, nil
}

func (s *MemStore) filter(keep func(Product) bool) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		if keep(p) {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
