package patients

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Patient
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Patient)}
}

// Create stores a patient.
func (r *MemoryRepo) Create(ctx context.Context, pat Patient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[pat.ID] = pat
	return nil
}

// GetByID returns a patient by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, patientID string) (Patient, error) {
	if err := ctx.Err(); err != nil {
		return Patient{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pat, ok := r.data[patientID]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return pat, nil
}
