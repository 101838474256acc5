package dbbadger

import (
	"context"

	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const latestSnapshotKey = "latest"

type snapshotRepositoryImpl struct {
	store *badgerhold.Store
}

// NewSnapshotRepositoryImpl initialize a badger implementation of the
// domain.SnapshotRepository
func NewSnapshotRepositoryImpl(store *badgerhold.Store) domain.SnapshotRepository {
	return snapshotRepositoryImpl{store}
}

func (r snapshotRepositoryImpl) GetLatestSnapshot(
	_ context.Context,
) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := r.store.Get(latestSnapshotKey, &snapshot); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r snapshotRepositoryImpl) SaveSnapshot(
	_ context.Context, snapshot domain.Snapshot,
) error {
	return r.store.Upsert(latestSnapshotKey, &snapshot)
}
