package domain

import "context"

// LimitRepository persists the running limit estimate of every coordinator
// so that it survives restarts.
type LimitRepository interface {
	// GetLimits returns the last estimate stored for the given coordinator,
	// nil if none is found.
	GetLimits(ctx context.Context, coordinator string) (LimitList, error)
	// UpdateLimits overwrites the estimate stored for the given coordinator.
	UpdateLimits(ctx context.Context, coordinator string, limits LimitList) error
}

// SnapshotRepository persists the latest federation snapshot.
type SnapshotRepository interface {
	// GetLatestSnapshot returns the snapshot last saved, nil if none is found.
	GetLatestSnapshot(ctx context.Context) (*Snapshot, error)
	// SaveSnapshot overwrites the stored snapshot.
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
}
