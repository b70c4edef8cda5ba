package webhook

// Aspect type constants (wire values)
const (
	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"
)

// Object type constants (wire values)
const (
	ObjectActivity = "activity"
	ObjectAthlete  = "athlete"
)

// updates.authorized carries a string-typed boolean on the wire
const updatesAuthorizedKey = "authorized"

// InboundEvent is a validated push notification from the activity platform.
// Events are transient; they are never persisted as-is and the sender may
// redeliver the same event more than once.
type InboundEvent struct {
	AspectType     string            `json:"aspect_type"`
	ObjectType     string            `json:"object_type"`
	ObjectID       int64             `json:"object_id"`
	OwnerID        string            `json:"owner_id"`
	SubscriptionID int64             `json:"subscription_id,omitempty"`
	EventTime      int64             `json:"event_time"`
	Updates        map[string]string `json:"updates,omitempty"`
}

type EventKind int

const (
	KindIgnorable EventKind = iota
	KindDeauthorization
	KindActivityCreate
)

func (k EventKind) String() string {
	switch k {
	case KindDeauthorization:
		return "deauthorization"
	case KindActivityCreate:
		return "activity-create"
	default:
		return "ignorable"
	}
}

// Classify decides what an inbound event means for the pipeline. Anything
// that is neither a deauthorization nor a new activity is ignorable noise,
// which still has to be acknowledged so the sender stops retrying.
func Classify(event *InboundEvent) EventKind {
	if event.ObjectType == ObjectAthlete && event.Updates[updatesAuthorizedKey] == "false" {
		return KindDeauthorization
	}
	if event.AspectType == AspectCreate && event.ObjectType == ObjectActivity {
		return KindActivityCreate
	}
	return KindIgnorable
}
