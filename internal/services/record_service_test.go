package services_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dancelog/internal/core"
	"dancelog/internal/services"
	mock_services "dancelog/internal/services/mocks"
)

func fields(date string, inst core.InstitutionName, custom, amount string) core.RecordFields {
	return core.RecordFields{
		Date:        date,
		Institution: inst,
		CustomName:  custom,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestRecordService_Initialize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	stored := []core.Record{
		{ID: "r1", Date: "2024-05-01", Amount: decimal.NewFromInt(100), Timestamp: 1},
	}

	store := mock_services.NewMockSnapshotStore(ctrl)
	// Exactly one load regardless of how often Initialize is called.
	store.EXPECT().Load(gomock.Any()).Return(stored).Times(1)

	svc := services.NewRecordService(store)
	first := svc.Initialize(ctx)
	second := svc.Initialize(ctx)

	assert.Len(t, first, 1)
	assert.Equal(t, "r1", first[0].ID)
	assert.Equal(t, first, second)
}

func TestRecordService_Add(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)

	var saved []core.Record
	store.EXPECT().Save(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, records []core.Record) { saved = records }).
		Times(2)

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	first, err := svc.Add(ctx, fields("2024-05-01", core.DiLeBeiBei, "", "100"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "2024-05-01", first.Date)
	assert.Equal(t, "迪乐贝贝", first.Institution.Label())
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(100)))
	assert.Greater(t, first.Timestamp, int64(0))

	second, err := svc.Add(ctx, fields("2024-05-02", core.Other, "私教课", "50.5"))
	require.NoError(t, err)

	// Newest-created first, and the saved snapshot matches the collection.
	records := svc.Records()
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
	assert.Equal(t, records, saved)
}

func TestRecordService_AddRejectsInvalidFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	// No Save calls: invalid fields never reach the collection.

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	cases := []core.RecordFields{
		fields("bad-date", core.DiLeBeiBei, "", "100"),
		fields("2024-05-01", "unknown", "", "100"),
		{Date: "2024-05-01", Institution: core.Other, Amount: decimal.NewFromInt(1)},
		{Date: "2024-05-01", Institution: core.DiLeBeiBei, Amount: decimal.NewFromInt(-1)},
	}
	for i, f := range cases {
		_, err := svc.Add(ctx, f)
		assert.Error(t, err, "case %d", i)
	}
	assert.Empty(t, svc.Records())
}

func TestRecordService_AddGeneratesUniqueIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).AnyTimes()

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	const n = 10000
	seen := make(map[string]struct{}, n)
	f := fields("2024-05-01", core.DiLeBeiBei, "", "1")
	for i := 0; i < n; i++ {
		rec, err := svc.Add(ctx, f)
		require.NoError(t, err)
		if _, dup := seen[rec.ID]; dup {
			t.Fatalf("duplicate id after %d adds: %s", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestRecordService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(2) // add + update

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	rec, err := svc.Add(ctx, fields("2024-05-01", core.Other, "私教课", "50"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, rec.ID, fields("2024-05-02", core.ImportExportBank, "", "75"))
	require.NoError(t, err)

	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, "2024-05-02", updated.Date)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(75)))
	assert.GreaterOrEqual(t, updated.Timestamp, rec.Timestamp)
}

func TestRecordService_UpdateClearsCustomInstitution(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(2)

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	rec, err := svc.Add(ctx, fields("2024-05-01", core.Other, "私教课", "50"))
	require.NoError(t, err)

	// The caller still supplies a custom name; the store must drop it.
	updated, err := svc.Update(ctx, rec.ID, fields("2024-05-01", core.DiLeBeiBei, "私教课", "50"))
	require.NoError(t, err)

	_, hasCustom := updated.Institution.CustomName()
	assert.False(t, hasCustom)
	assert.False(t, updated.Institution.IsOther())
}

func TestRecordService_UpdateUnknownID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(1) // only the add

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	rec, err := svc.Add(ctx, fields("2024-05-01", core.DiLeBeiBei, "", "100"))
	require.NoError(t, err)
	before := svc.Records()

	// Not found: no save, collection untouched.
	_, err = svc.Update(ctx, "missing", fields("2024-06-01", core.ImportExportBank, "", "1"))
	require.ErrorIs(t, err, services.ErrRecordNotFound)
	assert.Equal(t, before, svc.Records())
	assert.Equal(t, rec.ID, svc.Records()[0].ID)
}

func TestRecordService_Remove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(3) // two adds + remove

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	first, err := svc.Add(ctx, fields("2024-05-01", core.DiLeBeiBei, "", "100"))
	require.NoError(t, err)
	second, err := svc.Add(ctx, fields("2024-05-02", core.Other, "私教课", "50"))
	require.NoError(t, err)

	assert.True(t, svc.Remove(ctx, first.ID))

	records := svc.Records()
	require.Len(t, records, 1)
	assert.Equal(t, second.ID, records[0].ID)
}

func TestRecordService_RemoveUnknownIDStillSaves(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	// The no-op removal must still sync to storage: add + remove = 2 saves.
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Times(2)

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	_, err := svc.Add(ctx, fields("2024-05-01", core.DiLeBeiBei, "", "100"))
	require.NoError(t, err)
	before := svc.Records()

	assert.False(t, svc.Remove(ctx, "missing"))
	assert.Equal(t, before, svc.Records())
}

func TestRecordService_RecordsReturnsCopy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := mock_services.NewMockSnapshotStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).AnyTimes()

	svc := services.NewRecordService(store)
	svc.Initialize(ctx)

	_, err := svc.Add(ctx, fields("2024-05-01", core.DiLeBeiBei, "", "100"))
	require.NoError(t, err)

	snapshot := svc.Records()
	snapshot[0].Date = "1999-01-01"
	assert.Equal(t, "2024-05-01", svc.Records()[0].Date)
}
