// Package source provides the item sources a verification session can be
// built from. Every variant produces the same ordered ReviewItem list, so the
// review loop never branches on where items came from.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gemlens/facet/internal/common"
	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
)

// FileSource reads precomputed classification results from disk: either a
// single result JSON or a directory of per-image result files.
type FileSource struct {
	path string
}

// NewFileSource creates a source over the given file or directory.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs and exports.
func (f *FileSource) Name() string {
	return filepath.Base(f.path)
}

// Items loads every classification result under the source path and flattens
// the detections into one ordered item list. Directory entries are walked in
// sorted name order so the sequence is stable across runs.
func (f *FileSource) Items(_ context.Context) ([]model.ReviewItem, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(f.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			files = append(files, filepath.Join(f.path, entry.Name()))
		}
		sort.Strings(files)
	} else {
		files = []string{f.path}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no result files in %s", common.ErrItemSourceUnavailable, f.path)
	}

	var items []model.ReviewItem
	for _, file := range files {
		result, err := readResult(file)
		if err != nil {
			return nil, err
		}
		resultItems, err := result.ReviewItems()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		items = append(items, resultItems...)
	}
	return items, nil
}

func readResult(path string) (*model.ImageResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
	}

	var result model.ImageResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrItemSourceUnavailable, filepath.Base(path), err)
	}
	if result.Image == "" {
		result.Image = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return &result, nil
}

// ResultFetcher is the slice of the classification client the job source
// needs.
type ResultFetcher interface {
	GetJobResult(ctx context.Context, jobID string) (*model.ImageResult, error)
}

// JobSource builds the item list from finished remote classification jobs.
type JobSource struct {
	fetcher ResultFetcher
	jobIDs  []string
}

// NewJobSource creates a source over the given job IDs. The order of jobIDs
// fixes the review order.
func NewJobSource(fetcher ResultFetcher, jobIDs []string) *JobSource {
	return &JobSource{fetcher: fetcher, jobIDs: jobIDs}
}

// Name identifies the source in logs and exports.
func (j *JobSource) Name() string {
	return fmt.Sprintf("jobs(%s)", strings.Join(j.jobIDs, ","))
}

// Items fetches every job's result and flattens the detections in job order.
func (j *JobSource) Items(ctx context.Context) ([]model.ReviewItem, error) {
	var items []model.ReviewItem
	for _, jobID := range j.jobIDs {
		result, err := j.fetcher.GetJobResult(ctx, jobID)
		if err != nil {
			return nil, err
		}
		resultItems, err := result.ReviewItems()
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", jobID, err)
		}
		items = append(items, resultItems...)
	}
	return items, nil
}

// BatchSource replays a batch already imported into local storage.
type BatchSource struct {
	storage service.Storage
	batchID string
	name    string
}

// NewBatchSource creates a source over a stored batch.
func NewBatchSource(storage service.Storage, batchID, name string) *BatchSource {
	return &BatchSource{storage: storage, batchID: batchID, name: name}
}

// Name identifies the source in logs and exports.
func (b *BatchSource) Name() string {
	return b.name
}

// Items loads the batch's review items in their original order.
func (b *BatchSource) Items(ctx context.Context) ([]model.ReviewItem, error) {
	items, err := b.storage.GetBatchItems(ctx, b.batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrItemSourceUnavailable, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: batch %s has no items", common.ErrItemSourceUnavailable, b.batchID)
	}
	return items, nil
}

// Compile-time interface checks.
var (
	_ service.ItemSource = (*FileSource)(nil)
	_ service.ItemSource = (*JobSource)(nil)
	_ service.ItemSource = (*BatchSource)(nil)
)
