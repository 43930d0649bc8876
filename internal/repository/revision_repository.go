package repository

import (
	"context"

	"github.com/onair-media/be-editorial-workflow/internal/database"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// RevisionRepository reads revision requests. Creation and resolution happen
// inside transition transactions (see StoryRepository.ApplyTransition).
type RevisionRepository struct {
	db *database.DB
}

// NewRevisionRepository creates a new RevisionRepository.
func NewRevisionRepository(db *database.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// ListForStory returns a story's revision requests, newest-first. When
// unresolvedOnly is set, resolved requests are excluded.
func (r *RevisionRepository) ListForStory(ctx context.Context, storyID string, unresolvedOnly bool) ([]*RevisionRequest, error) {
	query := `
		SELECT id, story_id, requested_by, comment, created_at, resolved_at
		FROM revision_requests
		WHERE story_id = $1
	`
	if unresolvedOnly {
		query += ` AND resolved_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to list revision requests")
	}
	defer rows.Close()

	requests := make([]*RevisionRequest, 0)
	for rows.Next() {
		req := &RevisionRequest{}
		err := rows.Scan(&req.ID, &req.StoryID, &req.RequestedBy, &req.Comment, &req.CreatedAt, &req.ResolvedAt)
		if err != nil {
			return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to scan revision request")
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
