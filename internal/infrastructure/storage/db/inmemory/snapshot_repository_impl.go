package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/fedbook/internal/core/domain"
)

// SnapshotRepositoryImpl represents an in memory storage
type SnapshotRepositoryImpl struct {
	snapshot *domain.Snapshot
	lock     *sync.RWMutex
}

// NewSnapshotRepositoryImpl returns a new empty SnapshotRepositoryImpl
func NewSnapshotRepositoryImpl() domain.SnapshotRepository {
	return &SnapshotRepositoryImpl{
		lock: &sync.RWMutex{},
	}
}

func (r *SnapshotRepositoryImpl) GetLatestSnapshot(
	_ context.Context,
) (*domain.Snapshot, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.snapshot == nil {
		return nil, nil
	}
	snapshot := *r.snapshot
	return &snapshot, nil
}

func (r *SnapshotRepositoryImpl) SaveSnapshot(
	_ context.Context, snapshot domain.Snapshot,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	book := make(map[string]domain.PublicOrder, len(snapshot.Book))
	for k, v := range snapshot.Book {
		book[k] = v
	}
	snapshot.Book = book
	r.snapshot = &snapshot
	return nil
}
