package sales

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a sale with the given ID is not found.
var ErrNotFound = errors.New("sale not found")

// ErrMissingID is returned when trying to update a sale without an ID.
var ErrMissingID = errors.New("missing sale ID")

// Storage is the main interface for our sales storage layer.
type Storage interface {
	// Create persists a new sale and assigns its ID.
	Create(ctx context.Context, sale *Sale) error
	Read(ctx context.Context, id int64) (*Sale, error)
	GetAll(ctx context.Context) ([]*Sale, error)
	Update(ctx context.Context, sale *Sale) error
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, filter Filter) ([]*Sale, error)
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu     sync.RWMutex
	m      map[int64]*Sale
	nextID int64
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[int64]*Sale{},
	}
}

func (l *LocalStorage) Create(_ context.Context, sale *Sale) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	sale.ID = l.nextID
	stored := *sale
	l.m[sale.ID] = &stored
	return nil
}

// Read retrieves a copy of a sale by ID.
// Returns ErrNotFound if the sale is not found.
func (l *LocalStorage) Read(_ context.Context, id int64) (*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}

// GetAll retrieves all sales ordered by ID.
func (l *LocalStorage) GetAll(ctx context.Context) ([]*Sale, error) {
	return l.Find(ctx, Filter{})
}

// Update replaces a stored sale.
// Returns ErrMissingID if the sale has no ID and ErrNotFound if it was never stored.
func (l *LocalStorage) Update(_ context.Context, sale *Sale) error {
	if sale.ID == 0 {
		return ErrMissingID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.m[sale.ID]; !ok {
		return ErrNotFound
	}
	stored := *sale
	l.m[sale.ID] = &stored
	return nil
}

func (l *LocalStorage) Delete(_ context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.m[id]; !ok {
		return ErrNotFound
	}
	delete(l.m, id)
	return nil
}

func (l *LocalStorage) Find(_ context.Context, filter Filter) ([]*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sales := make([]*Sale, 0, len(l.m))
	for _, s := range l.m {
		if !filter.Matches(s) {
			continue
		}
		out := *s
		sales = append(sales, &out)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID < sales[j].ID })
	return sales, nil
}
