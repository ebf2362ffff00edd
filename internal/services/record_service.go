package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dancelog/internal/core"
)

// ErrRecordNotFound signals an update for an id that is not in the
// collection. The collection is left untouched and not re-saved; the caller
// decides whether that is fatal.
var ErrRecordNotFound = errors.New("record not found")

// RecordService owns the canonical in-memory record collection. It is the
// only component that mutates it, and it writes the full collection to the
// snapshot store after every mutation, so no action is ever lost between
// saves.
type RecordService struct {
	mu          sync.Mutex
	store       SnapshotStore
	records     []core.Record
	initialized bool
}

func NewRecordService(store SnapshotStore) *RecordService {
	return &RecordService{store: store}
}

// Initialize loads the persisted collection and returns it. The first call
// wins; repeat calls return the current snapshot without touching the
// store, so a stale empty state can never overwrite saved data.
func (s *RecordService) Initialize(ctx context.Context) []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		s.records = s.store.Load(ctx)
		s.initialized = true
		slog.InfoContext(ctx, "Record collection loaded", "count", len(s.records))
	}
	return s.snapshot()
}

// Records returns a copy of the current collection, newest-created first.
func (s *RecordService) Records() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Add builds a record from the given fields, prepends it to the collection
// and persists. The id and timestamp are generated here.
func (s *RecordService) Add(ctx context.Context, fields core.RecordFields) (core.Record, error) {
	if err := fields.Validate(); err != nil {
		return core.Record{}, err
	}
	inst, err := core.ResolveInstitution(fields.Institution, fields.CustomName)
	if err != nil {
		return core.Record{}, err
	}

	rec := core.Record{
		ID:          newRecordID(),
		Date:        fields.Date,
		Institution: inst,
		Amount:      fields.Amount,
		Timestamp:   time.Now().UnixMilli(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.Record{rec}, s.records...)
	s.store.Save(ctx, s.snapshot())

	slog.InfoContext(ctx, "Record added",
		"id", rec.ID,
		"date", rec.Date,
		"institution", inst.Label(),
		"amount", rec.Amount.String())
	return rec, nil
}

// Update replaces every field but the id of the record with the given id
// and refreshes its timestamp. The resolved institution drops any custom
// label the caller supplied for a non-其他 institution.
func (s *RecordService) Update(ctx context.Context, id string, fields core.RecordFields) (core.Record, error) {
	if err := fields.Validate(); err != nil {
		return core.Record{}, err
	}
	inst, err := core.ResolveInstitution(fields.Institution, fields.CustomName)
	if err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		s.records[i].Date = fields.Date
		s.records[i].Institution = inst
		s.records[i].Amount = fields.Amount
		s.records[i].Timestamp = time.Now().UnixMilli()
		s.store.Save(ctx, s.snapshot())

		slog.InfoContext(ctx, "Record updated",
			"id", id,
			"date", fields.Date,
			"institution", inst.Label(),
			"amount", fields.Amount.String())
		return s.records[i], nil
	}
	return core.Record{}, fmt.Errorf("update %s: %w", id, ErrRecordNotFound)
}

// Remove deletes the record with the given id if present and reports
// whether a deletion happened. A no-op removal still syncs to storage,
// matching the save-on-every-change policy.
func (s *RecordService) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID == id {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	s.store.Save(ctx, s.snapshot())

	if removed {
		slog.InfoContext(ctx, "Record removed", "id", id)
	} else {
		slog.DebugContext(ctx, "Remove of unknown id", "id", id)
	}
	return removed
}

// snapshot copies the collection. Callers hold the lock.
func (s *RecordService) snapshot() []core.Record {
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out
}
