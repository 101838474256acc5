package dbbadger

import (
	"context"
	"time"

	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

// limitsRecord is the stored estimate of one coordinator's limits.
type limitsRecord struct {
	Coordinator string
	Limits      domain.LimitList
	UpdatedAt   int64
}

type limitRepositoryImpl struct {
	store *badgerhold.Store
}

// NewLimitRepositoryImpl initialize a badger implementation of the
// domain.LimitRepository
func NewLimitRepositoryImpl(store *badgerhold.Store) domain.LimitRepository {
	return limitRepositoryImpl{store}
}

func (r limitRepositoryImpl) GetLimits(
	_ context.Context, coordinator string,
) (domain.LimitList, error) {
	var record limitsRecord
	if err := r.store.Get(coordinator, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return record.Limits, nil
}

func (r limitRepositoryImpl) UpdateLimits(
	_ context.Context, coordinator string, limits domain.LimitList,
) error {
	record := limitsRecord{
		Coordinator: coordinator,
		Limits:      limits,
		UpdatedAt:   time.Now().Unix(),
	}
	return r.store.Upsert(coordinator, &record)
}
