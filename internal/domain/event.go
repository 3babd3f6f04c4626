package domain

// EventKind discriminates feed notifications.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// FeedEvent is an asynchronous notification of a remote change,
// delivered out-of-band from direct request/response calls.
// Delete events may carry only the bookmark ID.
type FeedEvent struct {
	Kind     EventKind `json:"kind"`
	Bookmark *Bookmark `json:"bookmark"`
}

// ID returns the bookmark id the event refers to.
func (e *FeedEvent) ID() string {
	if e.Bookmark == nil {
		return ""
	}
	return e.Bookmark.ID
}
