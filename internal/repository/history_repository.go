package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/onair-media/be-editorial-workflow/internal/database"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// HistoryRepository reads the append-only workflow history ledger. Appends
// happen inside transition transactions via insertHistory; the table carries
// a delete/update-prevention trigger, so reads are the only standalone
// operation exposed.
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// insertHistory appends one ledger entry within a transition transaction.
func insertHistory(ctx context.Context, tx pgx.Tx, entry *HistoryEntry) error {
	query := `
		INSERT INTO workflow_history (entity_type, entity_id, from_status, to_status, actor_id, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query,
		entry.EntityType,
		entry.EntityID,
		entry.FromStatus,
		entry.ToStatus,
		entry.ActorID,
		entry.Comment,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return workflow.Wrap(err, workflow.CodeInternal, "failed to append history entry")
	}
	return nil
}

// ListForEntity returns the full transition history for an entity,
// oldest-first.
func (r *HistoryRepository) ListForEntity(ctx context.Context, entityType, entityID string) ([]*HistoryEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, from_status, to_status, actor_id, comment, created_at
		FROM workflow_history
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to read history")
	}
	defer rows.Close()

	entries := make([]*HistoryEntry, 0)
	for rows.Next() {
		entry := &HistoryEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.ActorID,
			&entry.Comment,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to scan history entry")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
