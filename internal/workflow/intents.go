package workflow

import "fmt"

// IntentType names a notification side effect emitted by a transition.
// The engine only describes intents; delivery belongs to the notification
// collaborator.
type IntentType string

const (
	IntentAssigned          IntentType = "assigned"
	IntentRevisionRequested IntentType = "revision_requested"
	IntentPublished         IntentType = "published"
)

// NotificationIntent is one queued notification produced by a transition.
type NotificationIntent struct {
	Type        IntentType `json:"type"`
	RecipientID string     `json:"recipient_id"`
	EntityType  string     `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
}

// InvalidationKeys names the read models a committed transition invalidates,
// so the caller's caching layer can evict them instead of guessing.
func InvalidationKeys(entityType, entityID string, from, to fmt.Stringer, affectedUsers ...string) []string {
	keys := []string{
		fmt.Sprintf("%s:%s", entityType, entityID),
		fmt.Sprintf("%s:status:%s", entityType, from),
		fmt.Sprintf("%s:status:%s", entityType, to),
	}
	for _, u := range affectedUsers {
		if u != "" {
			keys = append(keys, "queue:user:"+u)
		}
	}
	return keys
}
