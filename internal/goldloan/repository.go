package goldloan

import (
	"context"
	"sort"
	"sync"
)

// Repository persists loans. Service only depends on this port.
type Repository interface {
	Create(ctx context.Context, loan Loan) error
	Get(ctx context.Context, id string) (Loan, error)
	// Apply runs fn against the stored loan and persists the result. No other
	// Apply on the same loan interleaves with it.
	Apply(ctx context.Context, id string, fn func(*Loan) error) (Loan, error)
	List(ctx context.Context, filter ListFilter) ([]Loan, error)
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Status Status
	Limit  int
}

// MemoryRepository keeps loans in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	loans map[string]Loan
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{loans: make(map[string]Loan)}
}

func (r *MemoryRepository) Create(ctx context.Context, loan Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[loan.ID] = cloneLoan(loan)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loan, ok := r.loans[id]
	if !ok {
		return Loan{}, ErrNotFound
	}
	return cloneLoan(loan), nil
}

func (r *MemoryRepository) Apply(ctx context.Context, id string, fn func(*Loan) error) (Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.loans[id]
	if !ok {
		return Loan{}, ErrNotFound
	}
	loan := cloneLoan(stored)
	if err := fn(&loan); err != nil {
		return Loan{}, err
	}
	r.loans[id] = cloneLoan(loan)
	return loan, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Loan, 0, len(r.loans))
	for _, loan := range r.loans {
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		out = append(out, cloneLoan(loan))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenedAt.After(out[j].OpenedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func cloneLoan(l Loan) Loan {
	l.Items = append([]ValuedItem(nil), l.Items...)
	l.Payments = append([]Payment(nil), l.Payments...)
	if l.ClosedAt != nil {
		closed := *l.ClosedAt
		l.ClosedAt = &closed
	}
	return l
}
