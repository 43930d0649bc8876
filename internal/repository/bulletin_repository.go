package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/onair-media/be-editorial-workflow/internal/database"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

const bulletinColumns = `id, title, intro_text, outro_text, broadcast_at, status,
	       author_id, reviewer_id, publisher_id, created_at, updated_by, updated_at`

// BulletinRepository handles bulletin data operations.
type BulletinRepository struct {
	db *database.DB
}

// NewBulletinRepository creates a new BulletinRepository.
func NewBulletinRepository(db *database.DB) *BulletinRepository {
	return &BulletinRepository{db: db}
}

// Create inserts a new draft bulletin.
func (r *BulletinRepository) Create(ctx context.Context, b *Bulletin) error {
	query := `
		INSERT INTO bulletins (title, intro_text, outro_text, broadcast_at, status, author_id)
		VALUES ($1, $2, $3, $4, $5::bulletin_status, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		b.Title,
		b.IntroText,
		b.OutroText,
		b.BroadcastAt,
		b.Status,
		b.AuthorID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return workflow.Wrap(err, workflow.CodeInternal, "failed to create bulletin")
	}
	return nil
}

// GetByID retrieves a bulletin with its ordered story references.
func (r *BulletinRepository) GetByID(ctx context.Context, id string) (*Bulletin, error) {
	query := `SELECT ` + bulletinColumns + ` FROM bulletins WHERE id = $1`
	b, err := scanBulletin(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, workflow.NotFound("bulletin", id)
	}
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to get bulletin")
	}

	stories, err := r.getStories(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Stories = stories
	return b, nil
}

func (r *BulletinRepository) getStories(ctx context.Context, bulletinID string) ([]*BulletinStory, error) {
	query := `
		SELECT bulletin_id, story_id, position
		FROM bulletin_stories
		WHERE bulletin_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, query, bulletinID)
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to get bulletin stories")
	}
	defer rows.Close()

	stories := make([]*BulletinStory, 0)
	for rows.Next() {
		bs := &BulletinStory{}
		if err := rows.Scan(&bs.BulletinID, &bs.StoryID, &bs.Position); err != nil {
			return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to scan bulletin story")
		}
		stories = append(stories, bs)
	}
	return stories, rows.Err()
}

// List retrieves bulletins, optionally filtered by status, newest-first.
func (r *BulletinRepository) List(ctx context.Context, status *workflow.BulletinStatus, limit, offset int) ([]*Bulletin, int64, error) {
	query := `SELECT ` + bulletinColumns + ` FROM bulletins WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM bulletins WHERE 1=1`
	args := []any{}
	argCount := 1

	if status != nil {
		cond := fmt.Sprintf(" AND status = $%d::bulletin_status", argCount)
		query += cond
		countQuery += cond
		args = append(args, *status)
		argCount++
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, workflow.Wrap(err, workflow.CodeInternal, "failed to count bulletins")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, workflow.Wrap(err, workflow.CodeInternal, "failed to list bulletins")
	}
	defer rows.Close()

	bulletins := make([]*Bulletin, 0)
	for rows.Next() {
		b, err := scanBulletin(rows)
		if err != nil {
			return nil, 0, workflow.Wrap(err, workflow.CodeInternal, "failed to scan bulletin")
		}
		bulletins = append(bulletins, b)
	}
	return bulletins, total, rows.Err()
}

// SetStories replaces a bulletin's ordered story references. Only permitted
// while the bulletin is in draft or needs_revision. Positions must be unique;
// the table's (bulletin_id, position) constraint backs that up.
func (r *BulletinRepository) SetStories(ctx context.Context, bulletinID string, stories []*BulletinStory) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		var status workflow.BulletinStatus
		err := tx.QueryRow(ctx, `SELECT status FROM bulletins WHERE id = $1 FOR UPDATE`, bulletinID).Scan(&status)
		if err == pgx.ErrNoRows {
			return workflow.NotFound("bulletin", bulletinID)
		}
		if err != nil {
			return workflow.Wrap(err, workflow.CodeInternal, "failed to read bulletin status")
		}
		if status != workflow.BulletinStatusDraft && status != workflow.BulletinStatusNeedsRevision {
			return workflow.New(workflow.CodeIllegalTransition, "bulletin stories can only be edited in draft or needs_revision")
		}

		if _, err := tx.Exec(ctx, `DELETE FROM bulletin_stories WHERE bulletin_id = $1`, bulletinID); err != nil {
			return workflow.Wrap(err, workflow.CodeInternal, "failed to clear bulletin stories")
		}

		insert := `INSERT INTO bulletin_stories (bulletin_id, story_id, position) VALUES ($1, $2, $3)`
		for _, bs := range stories {
			bs.BulletinID = bulletinID
			if _, err := tx.Exec(ctx, insert, bulletinID, bs.StoryID, bs.Position); err != nil {
				return workflow.Wrap(err, workflow.CodeInternal, "failed to insert bulletin story")
			}
		}
		return nil
	})
}

// ApplyTransition commits one bulletin workflow transition: compare-and-set
// on status plus the history append in one transaction.
func (r *BulletinRepository) ApplyTransition(ctx context.Context, id string, expected workflow.BulletinStatus, change *BulletinTransition) (*Bulletin, error) {
	var updated *Bulletin

	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE bulletins
			SET status = $3::bulletin_status,
			    reviewer_id = $4,
			    publisher_id = COALESCE($5, publisher_id),
			    updated_by = $6,
			    updated_at = NOW()
			WHERE id = $1 AND status = $2::bulletin_status
			RETURNING ` + bulletinColumns

		b, err := scanBulletin(tx.QueryRow(ctx, query,
			id,
			expected,
			change.Status,
			change.ReviewerID,
			change.PublisherID,
			change.ActorID,
		))
		if err == pgx.ErrNoRows {
			var current workflow.BulletinStatus
			probeErr := tx.QueryRow(ctx, `SELECT status FROM bulletins WHERE id = $1`, id).Scan(&current)
			if probeErr == pgx.ErrNoRows {
				return workflow.NotFound("bulletin", id)
			}
			if probeErr != nil {
				return workflow.Wrap(probeErr, workflow.CodeInternal, "failed to re-read bulletin status")
			}
			return workflow.ConcurrentModification("bulletin", id)
		}
		if err != nil {
			return workflow.Wrap(err, workflow.CodeInternal, "failed to apply bulletin transition")
		}

		if err := insertHistory(ctx, tx, change.History); err != nil {
			return err
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	stories, err := r.getStories(ctx, id)
	if err != nil {
		return nil, err
	}
	updated.Stories = stories
	return updated, nil
}

func scanBulletin(sc rowScanner) (*Bulletin, error) {
	b := &Bulletin{}
	err := sc.Scan(
		&b.ID,
		&b.Title,
		&b.IntroText,
		&b.OutroText,
		&b.BroadcastAt,
		&b.Status,
		&b.AuthorID,
		&b.ReviewerID,
		&b.PublisherID,
		&b.CreatedAt,
		&b.UpdatedBy,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}
