// Package inmemory provides process-local implementations of the job store
// and work queue. They are used by tests and by standalone single-process
// deployments where Redis or Cassandra would be overkill.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/biaslens/biaslens"
)

type jobStore struct {
	mu      sync.Mutex
	records map[string]biaslens.JobRecord
}

// NewJobStore returns an in-memory biaslens.JobStore. Safe for concurrent use.
func NewJobStore() biaslens.JobStore {
	return &jobStore{
		records: make(map[string]biaslens.JobRecord),
	}
}

func (s *jobStore) TryCreatePending(ctx context.Context, key string, sourceText string, sourceURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = biaslens.JobRecord{
		Key:        key,
		Status:     biaslens.JobPending,
		SourceText: sourceText,
		SourceURL:  sourceURL,
	}
	return true, nil
}

func (s *jobStore) Get(ctx context.Context, key string) (biaslens.JobRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.records[key]
	return rec, found, nil
}

func (s *jobStore) Complete(ctx context.Context, key string, bias biaslens.Bias, extent biaslens.Extent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, found := s.records[key]
	if found && cur.Status == biaslens.JobCompleted {
		if cur.Bias == bias && cur.Extent == extent {
			return nil
		}
		return biaslens.NewError(biaslens.AlreadyCompleted,
			fmt.Errorf("job %s already completed as (%s, %s), refusing (%s, %s)", key, cur.Bias, cur.Extent, bias, extent))
	}
	// Source inputs are only retained while Pending.
	s.records[key] = biaslens.JobRecord{
		Key:    key,
		Status: biaslens.JobCompleted,
		Bias:   bias,
		Extent: extent,
	}
	return nil
}
