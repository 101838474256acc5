package inmemory

import (
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
)

type RepoManager struct {
	limitRepository    domain.LimitRepository
	snapshotRepository domain.SnapshotRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		limitRepository:    NewLimitRepositoryImpl(),
		snapshotRepository: NewSnapshotRepositoryImpl(),
	}
}

func (d *RepoManager) LimitRepository() domain.LimitRepository {
	return d.limitRepository
}

func (d *RepoManager) SnapshotRepository() domain.SnapshotRepository {
	return d.snapshotRepository
}

func (d *RepoManager) Close() {}
