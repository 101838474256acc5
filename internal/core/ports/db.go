package ports

import "github.com/tdex-network/fedbook/internal/core/domain"

// RepoManager interface defines the methods to access the repositories.
type RepoManager interface {
	LimitRepository() domain.LimitRepository
	SnapshotRepository() domain.SnapshotRepository

	Close()
}
