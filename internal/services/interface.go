package services

import (
	"context"

	"dancelog/internal/core"
)

// SnapshotStore persists the full record collection as a single snapshot.
// Load and Save absorb their own failures: a broken store degrades to an
// empty collection or a dropped write, never an error to the caller.
// The service layer depends on this interface, not on a concrete
// implementation.
//
//go:generate mockgen -destination=mocks/mock_snapshot_store.go -source=interface.go SnapshotStore
type SnapshotStore interface {
	Load(ctx context.Context) []core.Record
	Save(ctx context.Context, records []core.Record)
}
