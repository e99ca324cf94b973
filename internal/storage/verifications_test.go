package storage

import (
	"context"
	"testing"
	"time"

	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBatch(t *testing.T, store *SQLiteStorage, batchID string, count int) []model.ReviewItem {
	t.Helper()
	items := createTestItems("tray.jpg", count)
	batch := &service.Batch{ID: batchID, Name: "tray"}
	require.NoError(t, store.SaveBatch(context.Background(), batch, items))
	return items
}

func TestSaveAndLoadVerifications(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	items := seedBatch(t, store, "b1", 3)

	records := []model.VerificationRecord{
		{
			ItemID:               items[0].ID,
			Operator:             "op@example.com",
			IsCorrect:            true,
			CorrectedOrientation: model.OrientationTable,
			CorrectedType:        model.TypeRound,
			VerifiedAt:           time.Now(),
		},
		{
			ItemID:               items[2].ID,
			Operator:             "op@example.com",
			IsCorrect:            false,
			CorrectedOrientation: model.OrientationTilted,
			CorrectedType:        model.TypeEmerald,
			Note:                 "reflection confused the detector",
			VerifiedAt:           time.Now(),
		},
	}
	for i := range records {
		require.NoError(t, store.SaveVerification(ctx, "b1", &records[i]))
	}

	loaded, err := store.GetVerifications(ctx, "b1", "op@example.com")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Review order, not insertion order by timestamp.
	assert.Equal(t, items[0].ID, loaded[0].ItemID)
	assert.Equal(t, items[2].ID, loaded[1].ItemID)
	assert.True(t, loaded[0].IsCorrect)
	assert.Equal(t, model.TypeEmerald, loaded[1].CorrectedType)
	assert.Equal(t, "reflection confused the detector", loaded[1].Note)
}

func TestVerifiedItemIDsPerOperator(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	items := seedBatch(t, store, "b1", 4)

	first := model.VerificationRecord{
		ItemID: items[0].ID, Operator: "alice@example.com", IsCorrect: true,
		CorrectedOrientation: model.OrientationTable, CorrectedType: model.TypeRound,
	}
	second := model.VerificationRecord{
		ItemID: items[1].ID, Operator: "bob@example.com", IsCorrect: true,
		CorrectedOrientation: model.OrientationTilted, CorrectedType: model.TypeRound,
	}
	require.NoError(t, store.SaveVerification(ctx, "b1", &first))
	require.NoError(t, store.SaveVerification(ctx, "b1", &second))

	verified, err := store.VerifiedItemIDs(ctx, "b1", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{items[0].ID: true}, verified)
}

func TestSaveVerificationReplacesSameKey(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	items := seedBatch(t, store, "b1", 1)

	record := model.VerificationRecord{
		ItemID: items[0].ID, Operator: "op@example.com", IsCorrect: true,
		CorrectedOrientation: model.OrientationTable, CorrectedType: model.TypeRound,
	}
	require.NoError(t, store.SaveVerification(ctx, "b1", &record))

	record.IsCorrect = false
	record.CorrectedOrientation = model.OrientationTilted
	require.NoError(t, store.SaveVerification(ctx, "b1", &record))

	loaded, err := store.GetVerifications(ctx, "b1", "op@example.com")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.False(t, loaded[0].IsCorrect)
	assert.Equal(t, model.OrientationTilted, loaded[0].CorrectedOrientation)
}

func TestSubmissionQueue(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	items := seedBatch(t, store, "b1", 2)

	for _, item := range items {
		record := model.VerificationRecord{
			ItemID: item.ID, Operator: "op@example.com", IsCorrect: true,
			CorrectedOrientation: item.Orientation, CorrectedType: item.Type,
		}
		require.NoError(t, store.SaveVerification(ctx, "b1", &record))
	}

	pending, err := store.UnsubmittedVerifications(ctx, "b1", "op@example.com")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, store.MarkVerificationSubmitted(ctx, "b1", items[0].ID, "op@example.com"))

	pending, err = store.UnsubmittedVerifications(ctx, "b1", "op@example.com")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, items[1].ID, pending[0].ItemID)
}

func TestSaveVerificationValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	err := store.SaveVerification(ctx, "b1", nil)
	assert.Error(t, err)

	err = store.SaveVerification(ctx, "b1", &model.VerificationRecord{Operator: "op@example.com"})
	assert.ErrorIs(t, err, ErrInvalidVerification)

	err = store.SaveVerification(ctx, "b1", &model.VerificationRecord{
		ItemID: "x", Operator: "op@example.com", CorrectedOrientation: "sideways",
	})
	assert.ErrorIs(t, err, ErrInvalidVerification)
}
