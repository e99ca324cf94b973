package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gemlens/facet/internal/common"
	"github.com/gemlens/facet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResult(t *testing.T, dir, name string, result model.ImageResult) {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0600))
}

func TestFileSourceSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "tray_001.json", model.ImageResult{
		Image: "tray_001.jpg",
		Classifications: []model.ROIClassification{
			{ROIID: 1, DiamondType: "round", Orientation: "table", Confidence: 0.9},
			{ROIID: 2, DiamondType: "emerald", Orientation: "tilted", Confidence: 0.7},
		},
	})

	src := NewFileSource(filepath.Join(dir, "tray_001.json"))
	items, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "tray_001.jpg#1", items[0].ID)
	assert.Equal(t, "tray_001.jpg#2", items[1].ID)
}

func TestFileSourceDirectoryOrderIsStable(t *testing.T) {
	dir := t.TempDir()
	// Written out of name order on purpose.
	writeResult(t, dir, "tray_002.json", model.ImageResult{
		Image: "tray_002.jpg",
		Classifications: []model.ROIClassification{
			{ROIID: 1, DiamondType: "round", Orientation: "tilted", Confidence: 0.6},
		},
	})
	writeResult(t, dir, "tray_001.json", model.ImageResult{
		Image: "tray_001.jpg",
		Classifications: []model.ROIClassification{
			{ROIID: 1, DiamondType: "round", Orientation: "table", Confidence: 0.9},
		},
	})

	src := NewFileSource(dir)
	items, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "tray_001.jpg#1", items[0].ID)
	assert.Equal(t, "tray_002.jpg#1", items[1].ID)
}

func TestFileSourceMissingPath(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	_, err := src.Items(context.Background())
	assert.ErrorIs(t, err, common.ErrItemSourceUnavailable)
}

func TestFileSourceEmptyDirectory(t *testing.T) {
	src := NewFileSource(t.TempDir())
	_, err := src.Items(context.Background())
	assert.ErrorIs(t, err, common.ErrItemSourceUnavailable)
}

type fakeFetcher struct {
	results map[string]*model.ImageResult
}

func (f *fakeFetcher) GetJobResult(_ context.Context, jobID string) (*model.ImageResult, error) {
	result, ok := f.results[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", common.ErrItemSourceUnavailable, jobID)
	}
	return result, nil
}

func TestJobSourceFlattensInJobOrder(t *testing.T) {
	fetcher := &fakeFetcher{results: map[string]*model.ImageResult{
		"job-a": {
			Image: "a.jpg",
			Classifications: []model.ROIClassification{
				{ROIID: 1, DiamondType: "round", Orientation: "table", Confidence: 0.8},
			},
		},
		"job-b": {
			Image: "b.jpg",
			Classifications: []model.ROIClassification{
				{ROIID: 1, DiamondType: "other", Orientation: "tilted", Confidence: 0.5},
				{ROIID: 2, DiamondType: "round", Orientation: "table", Confidence: 0.9},
			},
		},
	}}

	src := NewJobSource(fetcher, []string{"job-b", "job-a"})
	items, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "b.jpg#1", items[0].ID)
	assert.Equal(t, "b.jpg#2", items[1].ID)
	assert.Equal(t, "a.jpg#1", items[2].ID)
}

func TestJobSourcePropagatesFetchError(t *testing.T) {
	src := NewJobSource(&fakeFetcher{results: map[string]*model.ImageResult{}}, []string{"job-x"})
	_, err := src.Items(context.Background())
	assert.ErrorIs(t, err, common.ErrItemSourceUnavailable)
}
