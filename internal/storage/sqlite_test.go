package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gemlens/facet/internal/common"
	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()), "failed to migrate")
	return store
}

// Helper function to create test review items.
func createTestItems(image string, count int) []model.ReviewItem {
	items := make([]model.ReviewItem, count)
	for i := 0; i < count; i++ {
		orientation := model.OrientationTable
		if i%2 == 1 {
			orientation = model.OrientationTilted
		}
		items[i] = model.ReviewItem{
			ID:          fmt.Sprintf("%s#%d", image, i+1),
			Orientation: orientation,
			Type:        model.TypeRound,
			Confidence:  0.8 + float64(i)*0.01,
			Source: model.SourceRef{
				Image:       image,
				ROIID:       i + 1,
				BoundingBox: [4]int{i * 10, i * 10, 32, 32},
			},
		}
	}
	return items
}

func TestSaveAndLoadBatch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	items := createTestItems("tray_001.jpg", 5)
	batch := &service.Batch{ID: "batch-1", Name: "tray_001", JobID: "job-42"}

	require.NoError(t, store.SaveBatch(ctx, batch, items))
	assert.Equal(t, 5, batch.ItemCount)

	loaded, err := store.GetBatch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, "tray_001", loaded.Name)
	assert.Equal(t, "job-42", loaded.JobID)
	assert.Equal(t, 5, loaded.ItemCount)

	loadedItems, err := store.GetBatchItems(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, loadedItems, 5)
	// Order must survive the round trip: the session depends on it.
	for i, item := range loadedItems {
		assert.Equal(t, items[i].ID, item.ID)
		assert.Equal(t, items[i].Orientation, item.Orientation)
		assert.Equal(t, items[i].Source.BoundingBox, item.Source.BoundingBox)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetBatch(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLatestBatch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	older := &service.Batch{ID: "b1", Name: "first", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &service.Batch{ID: "b2", Name: "second", CreatedAt: time.Now()}
	require.NoError(t, store.SaveBatch(ctx, older, createTestItems("a.jpg", 1)))
	require.NoError(t, store.SaveBatch(ctx, newer, createTestItems("b.jpg", 1)))

	latest, err := store.LatestBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b2", latest.ID)

	batches, err := store.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "b2", batches[0].ID)
}

func TestSaveBatchValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	err := store.SaveBatch(ctx, nil, nil)
	assert.Error(t, err)

	err = store.SaveBatch(ctx, &service.Batch{ID: "x"}, nil)
	assert.ErrorIs(t, err, ErrInvalidBatch)
}
