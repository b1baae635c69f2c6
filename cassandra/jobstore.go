package cassandra

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/biaslens/biaslens"
)

type jobStore struct {
	conn *Connection
}

// NewJobStore manages job records in the Cassandra job table.
func NewJobStore(conn *Connection) biaslens.JobStore {
	return &jobStore{conn: conn}
}

func (s *jobStore) TryCreatePending(ctx context.Context, key string, sourceText string, sourceURL string) (bool, error) {
	if s.conn.Session == nil {
		return false, biaslens.NewError(biaslens.StorageUnavailable,
			fmt.Errorf("cassandra connection is closed; call OpenConnection(config) to open it"))
	}
	stmt := fmt.Sprintf("INSERT INTO %s.job (key, status, source_text, source_url) VALUES (?,?,?,?) IF NOT EXISTS;", s.conn.Keyspace)
	applied, err := s.conn.Session.Query(stmt, key, string(biaslens.JobPending), sourceText, sourceURL).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, biaslens.NewError(biaslens.StorageUnavailable, err)
	}
	return applied, nil
}

func (s *jobStore) Get(ctx context.Context, key string) (biaslens.JobRecord, bool, error) {
	if s.conn.Session == nil {
		return biaslens.JobRecord{}, false, biaslens.NewError(biaslens.StorageUnavailable,
			fmt.Errorf("cassandra connection is closed; call OpenConnection(config) to open it"))
	}
	stmt := fmt.Sprintf("SELECT status, source_text, source_url, bias, extent FROM %s.job WHERE key = ?;", s.conn.Keyspace)
	var status, sourceText, sourceURL, bias, extent string
	err := s.conn.Session.Query(stmt, key).WithContext(ctx).Scan(&status, &sourceText, &sourceURL, &bias, &extent)
	if err == gocql.ErrNotFound {
		return biaslens.JobRecord{}, false, nil
	}
	if err != nil {
		return biaslens.JobRecord{}, false, biaslens.NewError(biaslens.StorageUnavailable, err)
	}
	return biaslens.JobRecord{
		Key:        key,
		Status:     biaslens.JobStatus(status),
		SourceText: sourceText,
		SourceURL:  sourceURL,
		Bias:       biaslens.Bias(bias),
		Extent:     biaslens.Extent(extent),
	}, true, nil
}

func (s *jobStore) Complete(ctx context.Context, key string, bias biaslens.Bias, extent biaslens.Extent) error {
	if s.conn.Session == nil {
		return biaslens.NewError(biaslens.StorageUnavailable,
			fmt.Errorf("cassandra connection is closed; call OpenConnection(config) to open it"))
	}

	update := fmt.Sprintf("UPDATE %s.job SET status = ?, bias = ?, extent = ?, source_text = null, source_url = null WHERE key = ? IF status = ?;", s.conn.Keyspace)
	insert := fmt.Sprintf("INSERT INTO %s.job (key, status, bias, extent) VALUES (?,?,?,?) IF NOT EXISTS;", s.conn.Keyspace)

	for attempt := 0; attempt < 3; attempt++ {
		// Pending -> completed transition; source inputs are dropped on completion.
		applied, err := s.conn.Session.Query(update, string(biaslens.JobCompleted), string(bias), string(extent), key, string(biaslens.JobPending)).
			WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return biaslens.NewError(biaslens.StorageUnavailable, err)
		}
		if applied {
			return nil
		}

		// No pending row. Either the record does not exist yet (inline strategy
		// writes directly in completed state) or someone completed it already.
		applied, err = s.conn.Session.Query(insert, key, string(biaslens.JobCompleted), string(bias), string(extent)).
			WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return biaslens.NewError(biaslens.StorageUnavailable, err)
		}
		if applied {
			return nil
		}

		rec, found, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		if found && rec.Status == biaslens.JobPending {
			// A pending row appeared between our two conditional writes; take
			// the update path again.
			continue
		}
		if found && rec.Status == biaslens.JobCompleted && rec.Bias == bias && rec.Extent == extent {
			// Duplicate delivery landed the same result; nothing to do.
			return nil
		}
		return biaslens.NewError(biaslens.AlreadyCompleted,
			fmt.Errorf("job %s already completed as (%s, %s), refusing (%s, %s)", key, rec.Bias, rec.Extent, bias, extent))
	}
	return biaslens.NewError(biaslens.StorageUnavailable,
		fmt.Errorf("completion of job %s kept losing conditional writes", key))
}
