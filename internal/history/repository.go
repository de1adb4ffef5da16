package history

import (
	"github.com/jmoiron/sqlx"

	"github.com/classway/callkit/internal/core"
)

const (
	recordsPageDefault    int = 1
	recordsPerPageDefault int = 50
)

type CallRecordsStorer interface {
	Save(*CallRecord) (*CallRecord, error)
	ListByPeer(peerID core.PeerID, page, perPage int) ([]*CallRecord, error)
}

type CallRecordsRepository struct {
	db *sqlx.DB
}

func NewCallRecordsRepository(db *sqlx.DB) *CallRecordsRepository {
	return &CallRecordsRepository{
		db: db,
	}
}

func (r *CallRecordsRepository) Save(record *CallRecord) (*CallRecord, error) {
	_, err := r.db.NamedExec(
		`INSERT INTO call_records
			(id, call_id, caller_id, callee_id, kind, started_at, ended_at, duration_seconds, end_reason)
		VALUES (:id, :call_id, :caller_id, :callee_id, :kind, :started_at, :ended_at, :duration_seconds, :end_reason)`,
		record,
	)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *CallRecordsRepository) ListByPeer(peerID core.PeerID, page, perPage int) ([]*CallRecord, error) {
	if page <= 0 {
		page = recordsPageDefault
	}
	if perPage <= 0 {
		perPage = recordsPerPageDefault
	}

	records := []*CallRecord{}
	err := r.db.Select(&records,
		`SELECT id, call_id, caller_id, callee_id, kind, started_at, ended_at, duration_seconds, end_reason
		FROM call_records
		WHERE caller_id = $1 OR callee_id = $1
		ORDER BY ended_at DESC LIMIT $2 OFFSET $3`,
		peerID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, err
	}

	return records, nil
}
