package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// fakeDirectory serves a fixed set of staff accounts.
type fakeDirectory struct {
	users map[string]*repository.User
}

func newFakeDirectory(users ...*repository.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]*repository.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) GetUser(_ context.Context, id string) (*repository.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, workflow.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (d *fakeDirectory) ListByRoles(_ context.Context, roles []workflow.Role) ([]*repository.User, error) {
	var out []*repository.User
	for _, u := range d.users {
		if !u.IsActive {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				cp := *u
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

// fakeStoryStore keeps the SQL repository's contract: ApplyTransition is a
// compare-and-set on status, and the status update, history append and
// revision/translation writes land all together or not at all.
type fakeStoryStore struct {
	mu        sync.Mutex
	stories   map[string]*repository.Story
	history   []*repository.HistoryEntry
	revisions []*repository.RevisionRequest
	seq       int

	// applyErr fails the whole transaction, leaving the store untouched.
	applyErr error
	// afterLoad runs once GetByID has taken its snapshot, so tests can
	// interleave a competing write between read and apply.
	afterLoad func()
}

func newFakeStoryStore(stories ...*repository.Story) *fakeStoryStore {
	s := &fakeStoryStore{stories: make(map[string]*repository.Story)}
	for _, st := range stories {
		s.stories[st.ID] = st
	}
	return s
}

func (s *fakeStoryStore) GetByID(_ context.Context, id string) (*repository.Story, error) {
	s.mu.Lock()
	story, ok := s.stories[id]
	var cp repository.Story
	if ok {
		cp = *story
	}
	s.mu.Unlock()

	if !ok {
		return nil, workflow.NotFound("story", id)
	}
	if s.afterLoad != nil {
		s.afterLoad()
	}
	return &cp, nil
}

func (s *fakeStoryStore) ApplyTransition(_ context.Context, id string, expected workflow.StoryStatus, change *repository.StoryTransition) (*repository.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applyErr != nil {
		return nil, s.applyErr
	}

	story, ok := s.stories[id]
	if !ok {
		return nil, workflow.NotFound("story", id)
	}
	if story.Status != expected {
		return nil, workflow.ConcurrentModification("story", id)
	}

	now := time.Now()
	story.Status = change.Status
	story.Stage = change.Stage
	story.AssignedReviewerID = change.ReviewerID
	story.AssignedApproverID = change.ApproverID
	if change.Publish {
		story.PublishedAt = &now
	}
	actor := change.ActorID
	story.UpdatedBy = &actor
	story.UpdatedAt = now

	entry := *change.History
	entry.ID = s.nextID("hist")
	entry.CreatedAt = now
	s.history = append(s.history, &entry)

	if change.RevisionComment != nil {
		s.revisions = append(s.revisions, &repository.RevisionRequest{
			ID:          s.nextID("rev"),
			StoryID:     id,
			RequestedBy: change.ActorID,
			Comment:     *change.RevisionComment,
			CreatedAt:   now,
		})
	}
	if change.ResolveRevisions {
		for _, r := range s.revisions {
			if r.StoryID == id && r.ResolvedAt == nil {
				resolved := now
				r.ResolvedAt = &resolved
			}
		}
	}
	if child := change.TranslationChild; child != nil {
		child.ID = s.nextID("story")
		originalID := id
		child.OriginalStoryID = &originalID
		child.CreatedAt = now
		child.UpdatedAt = now
		cp := *child
		s.stories[child.ID] = &cp
	}

	cp := *story
	return &cp, nil
}

func (s *fakeStoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStoryStore) snapshot(id string) repository.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.stories[id]
}

func (s *fakeStoryStore) historyFor(id string) []*repository.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repository.HistoryEntry
	for _, h := range s.history {
		if h.EntityID == id {
			out = append(out, h)
		}
	}
	return out
}

func (s *fakeStoryStore) unresolvedRevisions(id string) []*repository.RevisionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repository.RevisionRequest
	for _, r := range s.revisions {
		if r.StoryID == id && r.ResolvedAt == nil {
			out = append(out, r)
		}
	}
	return out
}

// fakeBulletinStore mirrors fakeStoryStore for bulletins.
type fakeBulletinStore struct {
	mu        sync.Mutex
	bulletins map[string]*repository.Bulletin
	history   []*repository.HistoryEntry
	seq       int
}

func newFakeBulletinStore(bulletins ...*repository.Bulletin) *fakeBulletinStore {
	s := &fakeBulletinStore{bulletins: make(map[string]*repository.Bulletin)}
	for _, b := range bulletins {
		s.bulletins[b.ID] = b
	}
	return s
}

func (s *fakeBulletinStore) GetByID(_ context.Context, id string) (*repository.Bulletin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bulletins[id]
	if !ok {
		return nil, workflow.NotFound("bulletin", id)
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBulletinStore) ApplyTransition(_ context.Context, id string, expected workflow.BulletinStatus, change *repository.BulletinTransition) (*repository.Bulletin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bulletins[id]
	if !ok {
		return nil, workflow.NotFound("bulletin", id)
	}
	if b.Status != expected {
		return nil, workflow.ConcurrentModification("bulletin", id)
	}

	now := time.Now()
	b.Status = change.Status
	b.ReviewerID = change.ReviewerID
	if change.PublisherID != nil {
		b.PublisherID = change.PublisherID
	}
	actor := change.ActorID
	b.UpdatedBy = &actor
	b.UpdatedAt = now

	entry := *change.History
	s.seq++
	entry.ID = fmt.Sprintf("hist-%d", s.seq)
	entry.CreatedAt = now
	s.history = append(s.history, &entry)

	cp := *b
	return &cp, nil
}
