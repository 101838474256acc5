package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/fedbook/internal/core/domain"
)

// LimitRepositoryImpl represents an in memory storage
type LimitRepositoryImpl struct {
	limits map[string]domain.LimitList
	lock   *sync.RWMutex
}

// NewLimitRepositoryImpl returns a new empty LimitRepositoryImpl
func NewLimitRepositoryImpl() domain.LimitRepository {
	return &LimitRepositoryImpl{
		limits: make(map[string]domain.LimitList),
		lock:   &sync.RWMutex{},
	}
}

func (r *LimitRepositoryImpl) GetLimits(
	_ context.Context, coordinator string,
) (domain.LimitList, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.limits[coordinator].Copy(), nil
}

func (r *LimitRepositoryImpl) UpdateLimits(
	_ context.Context, coordinator string, limits domain.LimitList,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.limits[coordinator] = limits.Copy()
	return nil
}
