package repository

import (
	"context"

	"github.com/onair-media/be-editorial-workflow/internal/database"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// AnnouncementRepository handles staff announcements and per-user dismissals.
type AnnouncementRepository struct {
	db *database.DB
}

// NewAnnouncementRepository creates a new AnnouncementRepository.
func NewAnnouncementRepository(db *database.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *Announcement) error {
	query := `
		INSERT INTO announcements (title, body, priority, audience, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		a.Title,
		a.Body,
		a.Priority,
		a.Audience,
		a.CreatedBy,
		a.ExpiresAt,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return workflow.Wrap(err, workflow.CodeInternal, "failed to create announcement")
	}
	return nil
}

// ListActiveForUser returns announcements the user has not dismissed and
// that have not expired, highest priority first.
func (r *AnnouncementRepository) ListActiveForUser(ctx context.Context, userID string) ([]*Announcement, error) {
	query := `
		SELECT a.id, a.title, a.body, a.priority, a.audience, a.created_by, a.expires_at, a.created_at
		FROM announcements a
		WHERE (a.expires_at IS NULL OR a.expires_at > NOW())
		  AND NOT EXISTS (
		      SELECT 1 FROM announcement_dismissals d
		      WHERE d.announcement_id = a.id AND d.user_id = $1
		  )
		ORDER BY CASE a.priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, a.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to list announcements")
	}
	defer rows.Close()

	announcements := make([]*Announcement, 0)
	for rows.Next() {
		a := &Announcement{}
		err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Priority, &a.Audience, &a.CreatedBy, &a.ExpiresAt, &a.CreatedAt)
		if err != nil {
			return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to scan announcement")
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

// Dismiss records that a user dismissed an announcement. Dismissing twice
// is a no-op.
func (r *AnnouncementRepository) Dismiss(ctx context.Context, announcementID, userID string) error {
	query := `
		INSERT INTO announcement_dismissals (announcement_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (announcement_id, user_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, announcementID, userID); err != nil {
		return workflow.Wrap(err, workflow.CodeInternal, "failed to dismiss announcement")
	}
	return nil
}
