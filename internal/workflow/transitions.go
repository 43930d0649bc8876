package workflow

// Rules carries the deployment-configurable knobs of the transition tables.
// Who may publish differs between newsrooms, so it is a parameter rather
// than a fixed role set.
type Rules struct {
	// PublishMinRole is the lowest role allowed to publish stories and
	// bulletins. Admin and superadmin may always publish.
	PublishMinRole Role
}

// DefaultRules publishes at sub-editor and above.
func DefaultRules() Rules {
	return Rules{PublishMinRole: RoleSubEditor}
}

// Assignment identifies which handoff a transition binds, if any.
type Assignment int

const (
	AssignNone Assignment = iota
	AssignReviewer
	AssignApprover
	AssignTranslator
)

// StoryEdge is one legal transition in the story table.
type StoryEdge struct {
	From StoryStatus
	To   StoryStatus
	// ActorRoles are the roles allowed to trigger the transition. Nil means
	// the set is rule-derived (publish edges); resolved by edge lookup.
	ActorRoles []Role
	// Assignment names the handoff this edge binds. AssigneeRoles is the
	// permitted role set for the assignee.
	Assignment    Assignment
	AssigneeRoles []Role
	// ReuseExisting permits omitting the assignee when the entity already
	// carries one from an earlier pass (resubmission after revision).
	ReuseExisting bool
	// CreatesRevisionRequest marks send-back edges, which record the
	// reviewer's comment as a revision request.
	CreatesRevisionRequest bool
	// ResolvesRevisions marks resubmission edges, which stamp the story's
	// unresolved revision requests as resolved.
	ResolvesRevisions bool
	// CreatesTranslation marks the edge that spawns a translation child.
	CreatesTranslation bool
}

var (
	reviewerRoles = []Role{RoleJournalist}
	approverRoles = []Role{RoleSubEditor, RoleEditor, RoleAdmin, RoleSuperadmin}
	reviewActors  = []Role{RoleJournalist, RoleSubEditor, RoleEditor, RoleAdmin, RoleSuperadmin}
	archiveRoles  = []Role{RoleEditor, RoleAdmin, RoleSuperadmin}
	translators   = []Role{RoleJournalist, RoleSubEditor, RoleEditor}
)

// storyEdges is the full story transition table. No (status, role, target)
// combination outside this table is ever legal.
var storyEdges = []StoryEdge{
	// Interns go through journalist review.
	{
		From: StoryStatusDraft, To: StoryStatusInReview,
		ActorRoles: []Role{RoleIntern},
		Assignment: AssignReviewer, AssigneeRoles: reviewerRoles,
	},
	// Journalists and above skip review and submit straight to approval.
	{
		From: StoryStatusDraft, To: StoryStatusPendingApproval,
		ActorRoles: reviewActors,
		Assignment: AssignApprover, AssigneeRoles: approverRoles,
	},
	// Reviewer sends the story back with comments.
	{
		From: StoryStatusInReview, To: StoryStatusNeedsRevision,
		ActorRoles:             reviewActors,
		CreatesRevisionRequest: true,
	},
	// Reviewer passes the story up for approval.
	{
		From: StoryStatusInReview, To: StoryStatusPendingApproval,
		ActorRoles: reviewActors,
		Assignment: AssignApprover, AssigneeRoles: approverRoles,
	},
	// Author resubmits to the same (or a newly chosen) reviewer.
	{
		From: StoryStatusNeedsRevision, To: StoryStatusInReview,
		ActorRoles: []Role{RoleIntern, RoleJournalist},
		Assignment: AssignReviewer, AssigneeRoles: reviewerRoles,
		ReuseExisting: true, ResolvesRevisions: true,
	},
	// Journalists and above resubmit straight to approval.
	{
		From: StoryStatusNeedsRevision, To: StoryStatusPendingApproval,
		ActorRoles: reviewActors,
		Assignment: AssignApprover, AssigneeRoles: approverRoles,
		ReuseExisting: true, ResolvesRevisions: true,
	},
	{
		From: StoryStatusPendingApproval, To: StoryStatusApproved,
		ActorRoles: approverRoles,
	},
	{
		From: StoryStatusPendingApproval, To: StoryStatusNeedsRevision,
		ActorRoles:             approverRoles,
		CreatesRevisionRequest: true,
	},
	// Optional translation pass, approver-initiated.
	{
		From: StoryStatusApproved, To: StoryStatusPendingTranslation,
		ActorRoles: approverRoles,
		Assignment: AssignTranslator, AssigneeRoles: translators,
		CreatesTranslation: true,
	},
	{
		From: StoryStatusApproved, To: StoryStatusReadyToPublish,
		ActorRoles: approverRoles,
	},
	// Translation delivered; stage becomes TRANSLATED.
	{
		From: StoryStatusPendingTranslation, To: StoryStatusReadyToPublish,
		ActorRoles: approverRoles,
	},
	// Publish gate is rule-derived: nil ActorRoles.
	{
		From: StoryStatusReadyToPublish, To: StoryStatusPublished,
	},
	{
		From: StoryStatusPublished, To: StoryStatusArchived,
		ActorRoles: archiveRoles,
	},
}

// BulletinEdge is one legal transition in the bulletin table.
type BulletinEdge struct {
	From                   BulletinStatus
	To                     BulletinStatus
	ActorRoles             []Role
	Assignment             Assignment
	AssigneeRoles          []Role
	ReuseExisting          bool
	CreatesRevisionRequest bool
}

var bulletinEdges = []BulletinEdge{
	{
		From: BulletinStatusDraft, To: BulletinStatusInReview,
		ActorRoles: reviewActors,
		Assignment: AssignReviewer, AssigneeRoles: approverRoles,
	},
	{
		From: BulletinStatusInReview, To: BulletinStatusApproved,
		ActorRoles: approverRoles,
	},
	{
		From: BulletinStatusInReview, To: BulletinStatusNeedsRevision,
		ActorRoles:             approverRoles,
		CreatesRevisionRequest: true,
	},
	{
		From: BulletinStatusNeedsRevision, To: BulletinStatusInReview,
		ActorRoles: reviewActors,
		Assignment: AssignReviewer, AssigneeRoles: approverRoles,
		ReuseExisting: true,
	},
	// Publish gate is rule-derived: nil ActorRoles.
	{
		From: BulletinStatusApproved, To: BulletinStatusPublished,
	},
	{
		From: BulletinStatusPublished, To: BulletinStatusArchived,
		ActorRoles: archiveRoles,
	},
}

// publishers resolves the rule-derived actor set for publish edges. Admin
// and superadmin always rank above any configurable gate, so they are
// included whatever the setting.
func (r Rules) publishers() []Role {
	return rolesAtLeast(r.PublishMinRole)
}

func roleIn(role Role, set []Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

// storyActorRoles resolves an edge's actor set under the given rules.
func (e StoryEdge) actorRoles(rules Rules) []Role {
	if e.ActorRoles != nil {
		return e.ActorRoles
	}
	return rules.publishers()
}

func (e BulletinEdge) actorRoles(rules Rules) []Role {
	if e.ActorRoles != nil {
		return e.ActorRoles
	}
	return rules.publishers()
}

// LegalStoryTransitions returns the set of statuses reachable from the given
// status by an actor of the given role. Pure: identical inputs always yield
// identical output.
func LegalStoryTransitions(from StoryStatus, role Role, rules Rules) []StoryStatus {
	var out []StoryStatus
	for _, e := range storyEdges {
		if e.From == from && roleIn(role, e.actorRoles(rules)) {
			out = append(out, e.To)
		}
	}
	return out
}

// FindStoryEdge returns the edge for (from, to, role), or an
// IllegalTransition error when the table has no such entry.
func FindStoryEdge(from, to StoryStatus, role Role, rules Rules) (*StoryEdge, error) {
	for i := range storyEdges {
		e := &storyEdges[i]
		if e.From == from && e.To == to {
			if roleIn(role, e.actorRoles(rules)) {
				return e, nil
			}
			return nil, IllegalTransition(from, to, role)
		}
	}
	return nil, IllegalTransition(from, to, role)
}

// StoryAssigneeRoles returns the permitted assignee role set for a story
// edge, role-agnostically, for eligible-assignee pickers. The second return
// is false when the edge does not exist or takes no assignee.
func StoryAssigneeRoles(from, to StoryStatus) ([]Role, bool) {
	for _, e := range storyEdges {
		if e.From == from && e.To == to && e.Assignment != AssignNone {
			return e.AssigneeRoles, true
		}
	}
	return nil, false
}

// BulletinAssigneeRoles mirrors StoryAssigneeRoles for bulletins.
func BulletinAssigneeRoles(from, to BulletinStatus) ([]Role, bool) {
	for _, e := range bulletinEdges {
		if e.From == from && e.To == to && e.Assignment != AssignNone {
			return e.AssigneeRoles, true
		}
	}
	return nil, false
}

// LegalBulletinTransitions mirrors LegalStoryTransitions for bulletins.
func LegalBulletinTransitions(from BulletinStatus, role Role, rules Rules) []BulletinStatus {
	var out []BulletinStatus
	for _, e := range bulletinEdges {
		if e.From == from && roleIn(role, e.actorRoles(rules)) {
			out = append(out, e.To)
		}
	}
	return out
}

// FindBulletinEdge returns the bulletin edge for (from, to, role).
func FindBulletinEdge(from, to BulletinStatus, role Role, rules Rules) (*BulletinEdge, error) {
	for i := range bulletinEdges {
		e := &bulletinEdges[i]
		if e.From == from && e.To == to {
			if roleIn(role, e.actorRoles(rules)) {
				return e, nil
			}
			return nil, IllegalTransition(from, to, role)
		}
	}
	return nil, IllegalTransition(from, to, role)
}
