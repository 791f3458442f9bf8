// Package medicine is the medicine inventory resource: plain create, read,
// update and delete by id.
package medicine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("medicine not found")

type Medicine struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Category    string    `json:"category"`
	Price       float64   `json:"price" validate:"gte=0"`
	Stock       int       `json:"stock" validate:"gte=0"`
	Description string    `json:"description"`
	Dosage      string    `json:"dosage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Repository interface {
	List(ctx context.Context) ([]Medicine, error)
	Get(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Create(ctx context.Context, m Medicine) (*Medicine, error)
	Update(ctx context.Context, m Medicine) (*Medicine, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Medicine
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]Medicine)}
}

func (r *MemoryRepository) List(ctx context.Context) ([]Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Medicine, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *MemoryRepository) Create(ctx context.Context, m Medicine) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	r.items[m.ID] = m
	return &m, nil
}

func (r *MemoryRepository) Update(ctx context.Context, m Medicine) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.items[m.ID]
	if !ok {
		return nil, ErrNotFound
	}
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = time.Now().UTC()
	r.items[m.ID] = m
	return &m, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
