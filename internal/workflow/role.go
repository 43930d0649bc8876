package workflow

// Role is a staff member's editorial role. Every account holds exactly one.
type Role string

const (
	RoleIntern     Role = "intern"
	RoleJournalist Role = "journalist"
	RoleSubEditor  Role = "sub_editor"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// roleRank orders roles for "at least" comparisons. Authorization checks
// compare against explicit role sets, not rank alone — some transitions are
// role-specific (e.g. only interns submit for review).
var roleRank = map[Role]int{
	RoleIntern:     0,
	RoleJournalist: 1,
	RoleSubEditor:  2,
	RoleEditor:     3,
	RoleAdmin:      4,
	RoleSuperadmin: 5,
}

// ParseRole validates a role string from config or the user directory.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", InvalidInput("role", "unknown role '"+s+"'")
	}
	return r, nil
}

// AtLeast reports whether r ranks at or above min in the role hierarchy.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// rolesAtLeast returns all roles ranking at or above min, in ascending order.
func rolesAtLeast(min Role) []Role {
	all := []Role{RoleIntern, RoleJournalist, RoleSubEditor, RoleEditor, RoleAdmin, RoleSuperadmin}
	out := make([]Role, 0, len(all))
	for _, r := range all {
		if r.AtLeast(min) {
			out = append(out, r)
		}
	}
	return out
}

// Capabilities is the closed-form capability set for a role. Both the
// workflow engine and any presentation layer must derive permissions from
// this one function — never from inline role checks.
type Capabilities struct {
	CanReview              bool
	CanApprove             bool
	CanPublish             bool
	CanArchive             bool
	CanCreateTag           bool
	CanEditTag             bool
	CanAssignTranslation   bool
	CanManageAnnouncements bool
	CanSetHighPriority     bool
	// SkipsReview reports that the role submits straight to approval
	// instead of going through journalist review.
	SkipsReview bool
}

// CapabilitiesFor maps a role to its capability set under the given rules.
// Pure and deterministic; no I/O.
func CapabilitiesFor(role Role, rules Rules) Capabilities {
	return Capabilities{
		CanReview:              role.AtLeast(RoleJournalist),
		CanApprove:             role.AtLeast(RoleSubEditor),
		CanPublish:             role.AtLeast(rules.PublishMinRole) || role.AtLeast(RoleAdmin),
		CanArchive:             role.AtLeast(RoleEditor),
		CanCreateTag:           role.AtLeast(RoleJournalist),
		CanEditTag:             role.AtLeast(RoleSubEditor),
		CanAssignTranslation:   role.AtLeast(RoleSubEditor),
		CanManageAnnouncements: role.AtLeast(RoleEditor),
		CanSetHighPriority:     role.AtLeast(RoleAdmin),
		SkipsReview:            role.AtLeast(RoleJournalist),
	}
}

// CanSubmitForReview reports whether an actor may move a story out of draft,
// given the story's current status and whether the actor authored it.
// Drafts are submitted by their author; editors and above may also submit
// on an author's behalf.
func (c Capabilities) CanSubmitForReview(status StoryStatus, isAuthor bool, role Role) bool {
	if status != StoryStatusDraft && status != StoryStatusNeedsRevision {
		return false
	}
	return isAuthor || role.AtLeast(RoleEditor)
}
