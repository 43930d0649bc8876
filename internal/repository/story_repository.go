package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/onair-media/be-editorial-workflow/internal/database"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

const storyColumns = `id, title, body, category, language, target_language,
	       is_translation, original_story_id, status, stage,
	       author_id, assigned_reviewer_id, assigned_approver_id,
	       published_at, created_at, updated_by, updated_at`

// StoryRepository handles story data operations.
type StoryRepository struct {
	db *database.DB
}

// NewStoryRepository creates a new StoryRepository.
func NewStoryRepository(db *database.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Create inserts a new draft story.
func (r *StoryRepository) Create(ctx context.Context, story *Story) error {
	query := `
		INSERT INTO stories (title, body, category, language, target_language,
		                     is_translation, original_story_id, status, stage, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::story_status, $9::story_stage, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		story.Title,
		story.Body,
		story.Category,
		story.Language,
		story.TargetLanguage,
		story.IsTranslation,
		story.OriginalStoryID,
		story.Status,
		story.Stage,
		story.AuthorID,
	).Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		return workflow.Wrap(err, workflow.CodeInternal, "failed to create story")
	}
	return nil
}

// GetByID retrieves a story by ID.
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	story, err := scanStory(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, workflow.NotFound("story", id)
	}
	if err != nil {
		if _, ok := err.(*workflow.Error); ok {
			return nil, err
		}
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to get story")
	}
	return story, nil
}

// List retrieves stories matching the filter, newest-first.
func (r *StoryRepository) List(ctx context.Context, filter StoryFilter, limit, offset int) ([]*Story, int64, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM stories WHERE 1=1`

	args := []any{}
	argCount := 1

	addFilter := func(clause string, value any) {
		cond := fmt.Sprintf(clause, argCount)
		query += cond
		countQuery += cond
		args = append(args, value)
		argCount++
	}

	if filter.Status != nil {
		addFilter(" AND status = $%d::story_status", *filter.Status)
	}
	if filter.Stage != nil {
		addFilter(" AND stage = $%d::story_stage", *filter.Stage)
	}
	if filter.AuthorID != nil {
		addFilter(" AND author_id = $%d", *filter.AuthorID)
	}
	if filter.AssigneeID != nil {
		cond := fmt.Sprintf(" AND (assigned_reviewer_id = $%d OR assigned_approver_id = $%d)", argCount, argCount)
		query += cond
		countQuery += cond
		args = append(args, *filter.AssigneeID)
		argCount++
	}
	if filter.Language != nil {
		addFilter(" AND language = $%d", *filter.Language)
	}
	if filter.Category != nil {
		addFilter(" AND category = $%d", *filter.Category)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, workflow.Wrap(err, workflow.CodeInternal, "failed to count stories")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, workflow.Wrap(err, workflow.CodeInternal, "failed to list stories")
	}
	defer rows.Close()

	stories := make([]*Story, 0)
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, 0, workflow.Wrap(err, workflow.CodeInternal, "failed to scan story")
		}
		stories = append(stories, story)
	}
	return stories, total, rows.Err()
}

// ListPublished returns the syndication feed: published stories, optionally
// filtered by language and category, newest-published-first.
func (r *StoryRepository) ListPublished(ctx context.Context, language, category *string, limit, offset int) ([]*Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE status = 'published'`
	args := []any{}
	argCount := 1

	if language != nil {
		query += fmt.Sprintf(" AND language = $%d", argCount)
		args = append(args, *language)
		argCount++
	}
	if category != nil {
		query += fmt.Sprintf(" AND category = $%d", argCount)
		args = append(args, *category)
		argCount++
	}
	query += fmt.Sprintf(" ORDER BY published_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to list published stories")
	}
	defer rows.Close()

	stories := make([]*Story, 0)
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to scan story")
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// UpdateContent edits title/body/category. Content edits are only permitted
// while the story is in draft or needs_revision; anything else must go
// through a transition.
func (r *StoryRepository) UpdateContent(ctx context.Context, id, actorID, title, body string, category *string) (*Story, error) {
	query := `
		UPDATE stories
		SET title = $2, body = $3, category = $4, updated_by = $5, updated_at = NOW()
		WHERE id = $1 AND status IN ('draft', 'needs_revision')
		RETURNING ` + storyColumns

	story, err := scanStory(r.db.QueryRow(ctx, query, id, title, body, category, actorID))
	if err == pgx.ErrNoRows {
		// Distinguish a missing story from one outside an editable status.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, workflow.New(workflow.CodeIllegalTransition, "content can only be edited in draft or needs_revision")
	}
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to update story content")
	}
	return story, nil
}

// ApplyTransition commits one workflow transition: a compare-and-set on the
// story's status plus the history append (and any revision-request or
// translation-child writes) in a single transaction. A status mismatch
// yields CONCURRENT_MODIFICATION and nothing is written.
func (r *StoryRepository) ApplyTransition(ctx context.Context, id string, expected workflow.StoryStatus, change *StoryTransition) (*Story, error) {
	var updated *Story

	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE stories
			SET status = $3::story_status,
			    stage = $4::story_stage,
			    assigned_reviewer_id = $5,
			    assigned_approver_id = $6,
			    published_at = CASE WHEN $7 THEN NOW() ELSE published_at END,
			    updated_by = $8,
			    updated_at = NOW()
			WHERE id = $1 AND status = $2::story_status
			RETURNING ` + storyColumns

		story, err := scanStory(tx.QueryRow(ctx, query,
			id,
			expected,
			change.Status,
			change.Stage,
			change.ReviewerID,
			change.ApproverID,
			change.Publish,
			change.ActorID,
		))
		if err == pgx.ErrNoRows {
			// Either the story is gone or its status moved under us.
			var current workflow.StoryStatus
			probeErr := tx.QueryRow(ctx, `SELECT status FROM stories WHERE id = $1`, id).Scan(&current)
			if probeErr == pgx.ErrNoRows {
				return workflow.NotFound("story", id)
			}
			if probeErr != nil {
				return workflow.Wrap(probeErr, workflow.CodeInternal, "failed to re-read story status")
			}
			return workflow.ConcurrentModification("story", id)
		}
		if err != nil {
			return workflow.Wrap(err, workflow.CodeInternal, "failed to apply transition")
		}

		if err := insertHistory(ctx, tx, change.History); err != nil {
			return err
		}

		if change.RevisionComment != nil {
			revQuery := `
				INSERT INTO revision_requests (story_id, requested_by, comment)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.Exec(ctx, revQuery, id, change.ActorID, *change.RevisionComment); err != nil {
				return workflow.Wrap(err, workflow.CodeInternal, "failed to create revision request")
			}
		}

		if change.ResolveRevisions {
			resolveQuery := `
				UPDATE revision_requests
				SET resolved_at = NOW()
				WHERE story_id = $1 AND resolved_at IS NULL
			`
			if _, err := tx.Exec(ctx, resolveQuery, id); err != nil {
				return workflow.Wrap(err, workflow.CodeInternal, "failed to resolve revision requests")
			}
		}

		if child := change.TranslationChild; child != nil {
			childQuery := `
				INSERT INTO stories (title, body, category, language, target_language,
				                     is_translation, original_story_id, status, stage, author_id)
				VALUES ($1, $2, $3, $4, NULL, TRUE, $5, $6::story_status, $7::story_stage, $8)
				RETURNING id, created_at, updated_at
			`
			err := tx.QueryRow(ctx, childQuery,
				child.Title,
				child.Body,
				child.Category,
				child.Language,
				id,
				child.Status,
				child.Stage,
				child.AuthorID,
			).Scan(&child.ID, &child.CreatedAt, &child.UpdatedAt)
			if err != nil {
				return workflow.Wrap(err, workflow.CodeInternal, "failed to create translation story")
			}
			originalID := id
			child.OriginalStoryID = &originalID
		}

		updated = story
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AttachAudioClip links a clip to a story with provenance metadata.
func (r *StoryRepository) AttachAudioClip(ctx context.Context, link *StoryAudioLink) error {
	query := `
		INSERT INTO story_audio_clips (story_id, clip_id, provenance, linked_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (story_id, clip_id) DO UPDATE SET provenance = EXCLUDED.provenance
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, link.StoryID, link.ClipID, link.Provenance, link.LinkedBy).
		Scan(&link.CreatedAt)
	if err != nil {
		return workflow.Wrap(err, workflow.CodeInternal, "failed to attach audio clip")
	}
	return nil
}

// ListAudioClips returns the clips linked to a story.
func (r *StoryRepository) ListAudioClips(ctx context.Context, storyID string) ([]*AudioClip, error) {
	query := `
		SELECT c.id, c.title, c.url, c.duration_secs, c.uploaded_by, c.created_at
		FROM audio_clips c
		JOIN story_audio_clips l ON l.clip_id = c.id
		WHERE l.story_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to list audio clips")
	}
	defer rows.Close()

	clips := make([]*AudioClip, 0)
	for rows.Next() {
		clip := &AudioClip{}
		err := rows.Scan(&clip.ID, &clip.Title, &clip.URL, &clip.DurationSecs, &clip.UploadedBy, &clip.CreatedAt)
		if err != nil {
			return nil, workflow.Wrap(err, workflow.CodeInternal, "failed to scan audio clip")
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(sc rowScanner) (*Story, error) {
	story := &Story{}
	err := sc.Scan(
		&story.ID,
		&story.Title,
		&story.Body,
		&story.Category,
		&story.Language,
		&story.TargetLanguage,
		&story.IsTranslation,
		&story.OriginalStoryID,
		&story.Status,
		&story.Stage,
		&story.AuthorID,
		&story.AssignedReviewerID,
		&story.AssignedApproverID,
		&story.PublishedAt,
		&story.CreatedAt,
		&story.UpdatedBy,
		&story.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return story, nil
}
