package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/encoding"
)

const jobKeyPrefix = "biaslens:job:"

type jobStore struct {
	conn *Connection
}

// NewJobStore returns a Redis-backed biaslens.JobStore. Records are stored as
// JSON documents under a biaslens:job: prefixed key. SETNX provides the
// linearizable create-if-absent that keeps a thundering herd of identical
// submissions down to one dispatch.
func NewJobStore(conn *Connection) biaslens.JobStore {
	return &jobStore{conn: conn}
}

func (s *jobStore) storageKey(key string) string {
	return jobKeyPrefix + key
}

func (s *jobStore) TryCreatePending(ctx context.Context, key string, sourceText string, sourceURL string) (bool, error) {
	rec := biaslens.JobRecord{
		Key:        key,
		Status:     biaslens.JobPending,
		SourceText: sourceText,
		SourceURL:  sourceURL,
	}
	ba, err := encoding.DefaultMarshaler.Marshal(rec)
	if err != nil {
		return false, err
	}
	created, err := s.conn.Client.SetNX(ctx, s.storageKey(key), ba, 0).Result()
	if err != nil {
		return false, biaslens.NewError(biaslens.StorageUnavailable, err)
	}
	return created, nil
}

func (s *jobStore) Get(ctx context.Context, key string) (biaslens.JobRecord, bool, error) {
	ba, err := s.conn.Client.Get(ctx, s.storageKey(key)).Bytes()
	if err == redis.Nil {
		return biaslens.JobRecord{}, false, nil
	}
	if err != nil {
		return biaslens.JobRecord{}, false, biaslens.NewError(biaslens.StorageUnavailable, err)
	}
	var rec biaslens.JobRecord
	if err := encoding.DefaultMarshaler.Unmarshal(ba, &rec); err != nil {
		return biaslens.JobRecord{}, false, err
	}
	return rec, true, nil
}

func (s *jobStore) Complete(ctx context.Context, key string, bias biaslens.Bias, extent biaslens.Extent) error {
	storageKey := s.storageKey(key)

	txn := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, storageKey).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var existing biaslens.JobRecord
			if err := encoding.DefaultMarshaler.Unmarshal(cur, &existing); err != nil {
				return err
			}
			if existing.Status == biaslens.JobCompleted {
				if existing.Bias == bias && existing.Extent == extent {
					return nil
				}
				return biaslens.NewError(biaslens.AlreadyCompleted,
					fmt.Errorf("job %s already completed as (%s, %s), refusing (%s, %s)",
						key, existing.Bias, existing.Extent, bias, extent))
			}
		}
		// Source inputs are only retained while Pending.
		ba, err := encoding.DefaultMarshaler.Marshal(biaslens.JobRecord{
			Key:    key,
			Status: biaslens.JobCompleted,
			Bias:   bias,
			Extent: extent,
		})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, storageKey, ba, 0)
			return nil
		})
		return err
	}

	// WATCH gives optimistic per-key atomicity; retry on contention only.
	for i := 0; i < 5; i++ {
		err := s.conn.Client.Watch(ctx, txn, storageKey)
		if err == redis.TxFailedErr {
			continue
		}
		if err == nil || biaslens.IsErrorCode(err, biaslens.AlreadyCompleted) {
			return err
		}
		return biaslens.NewError(biaslens.StorageUnavailable, err)
	}
	return biaslens.NewError(biaslens.StorageUnavailable,
		fmt.Errorf("completion of job %s kept losing the optimistic transaction", key))
}
